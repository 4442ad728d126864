package weather

import "fmt"

// NotFoundError is returned when the provider does not know the city.
type NotFoundError struct {
	City string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("city %q not found", e.City)
}

// TransportError covers network failures, timeouts, non-2xx statuses and
// bodies that are not JSON.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("openweather %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("openweather %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a successful response lacks a
// required field.
type MalformedResponseError struct {
	Op    string
	Field string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("openweather %s: response missing %s", e.Op, e.Field)
}
