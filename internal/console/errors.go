package console

import (
	"errors"
	"fmt"

	"weather-forecast/internal/storage"
	"weather-forecast/internal/weather"
)

// InputError reports a bad menu choice or city selection.
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// Describe turns an error into a message for the user.
func Describe(err error) string {
	var (
		notFound  *weather.NotFoundError
		transport *weather.TransportError
		malformed *weather.MalformedResponseError
		input     *InputError
	)

	switch {
	case errors.As(err, &notFound):
		if notFound.City == "" {
			return "Please enter a city name."
		}
		return fmt.Sprintf("City %q was not found.", notFound.City)
	case errors.As(err, &transport):
		return fmt.Sprintf("Could not reach the weather service: %v", transport.Err)
	case errors.As(err, &malformed):
		return fmt.Sprintf("The weather service sent an incomplete response (missing %s).", malformed.Field)
	case errors.As(err, &input):
		return fmt.Sprintf("Invalid option: %s.", input.Reason)
	case errors.Is(err, storage.ErrEmptyName):
		return "Please enter a city name."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
