package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const currentBody = `{
  "name": "Madrid",
  "dt": 1700000000,
  "timezone": 3600,
  "visibility": 8500,
  "main": {"temp": 14.2, "feels_like": 13.1, "humidity": 61, "pressure": 1018},
  "weather": [{"main": "Clouds", "description": "broken clouds", "icon": "04d"}],
  "wind": {"speed": 3.6},
  "rain": {"1h": 0.4},
  "sys": {"country": "ES", "sunrise": 1699943400, "sunset": 1699980000}
}`

const forecastBody = `{
  "cod": "200",
  "city": {"name": "Madrid", "timezone": 3600},
  "list": [
    {"dt": 1700002800, "main": {"temp": 10, "humidity": 70}, "weather": [{"description": "clear sky"}], "wind": {"speed": 2}},
    {"dt": 1700013600, "main": {"temp": 12, "humidity": 60}, "weather": [{"description": "light rain"}], "wind": {"speed": 4}, "rain": {"3h": 1.5}, "snow": {"3h": 0.5}}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenWeatherClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenWeatherClient(Options{APIKey: "key", BaseURL: srv.URL, Lang: "es"})
}

func TestFetchCurrent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("path = %s, want /weather", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Madrid" || q.Get("appid") != "key" || q.Get("units") != "metric" || q.Get("lang") != "es" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(currentBody))
	})

	current, err := client.FetchCurrent(context.Background(), "Madrid")
	if err != nil {
		t.Fatalf("FetchCurrent failed: %v", err)
	}

	if current.City != "Madrid" || current.Country != "ES" {
		t.Errorf("city = %s/%s", current.City, current.Country)
	}
	if current.Temperature != 14.2 || current.FeelsLike != 13.1 || current.Humidity != 61 || current.Pressure != 1018 {
		t.Errorf("unexpected main values: %+v", current)
	}
	if current.Description != "broken clouds" || current.WindSpeed != 3.6 {
		t.Errorf("unexpected description/wind: %q %v", current.Description, current.WindSpeed)
	}
	if current.Precipitation != 0.4 {
		t.Errorf("precipitation = %v, want 0.4", current.Precipitation)
	}
	if current.Visibility == nil || *current.Visibility != 8.5 {
		t.Errorf("visibility = %v, want 8.5", current.Visibility)
	}
	if _, offset := current.Timestamp.Zone(); offset != 3600 {
		t.Errorf("timestamp offset = %d, want 3600", offset)
	}
	if got := current.Sunrise.Format("15:04"); got != "07:30" {
		t.Errorf("sunrise = %s, want 07:30", got)
	}
}

func TestFetchCurrentWithoutVisibility(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Oslo","dt":1700000000,"timezone":0,
			"main":{"temp":1,"feels_like":-2,"humidity":80,"pressure":1000},
			"weather":[{"description":"snow"}],"wind":{"speed":5},
			"sys":{"sunrise":1699943400,"sunset":1699980000}}`))
	})

	current, err := client.FetchCurrent(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("FetchCurrent failed: %v", err)
	}
	if current.Visibility != nil {
		t.Errorf("visibility = %v, want nil", *current.Visibility)
	}
	if current.Precipitation != 0 {
		t.Errorf("precipitation = %v, want 0", current.Precipitation)
	}
}

func TestFetchForecast(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("path = %s, want /forecast", r.URL.Path)
		}
		w.Write([]byte(forecastBody))
	})

	samples, err := client.FetchForecast(context.Background(), "Madrid")
	if err != nil {
		t.Fatalf("FetchForecast failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}

	if samples[0].Precipitation != 0 {
		t.Errorf("sample 0 precipitation = %v, want 0", samples[0].Precipitation)
	}
	if samples[1].Precipitation != 2 {
		t.Errorf("sample 1 precipitation = %v, want 2", samples[1].Precipitation)
	}
	want := time.Date(2023, time.November, 15, 0, 0, 0, 0, time.FixedZone("", 3600))
	if !samples[0].Timestamp.Equal(want) || samples[0].Timestamp.Hour() != 0 {
		t.Errorf("sample 0 timestamp = %s, want %s", samples[0].Timestamp, want)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "not found status",
			status: http.StatusNotFound,
			body:   `{"cod":"404","message":"city not found"}`,
			check:  func(err error) bool { var e *NotFoundError; return errors.As(err, &e) },
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"cod":401,"message":"Invalid API key"}`,
			check: func(err error) bool {
				var e *TransportError
				return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `oops`,
			check:  func(err error) bool { var e *TransportError; return errors.As(err, &e) },
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check:  func(err error) bool { var e *TransportError; return errors.As(err, &e) },
		},
		{
			name:   "missing list",
			status: http.StatusOK,
			body:   `{"cod":"200","city":{"timezone":0}}`,
			check:  func(err error) bool { var e *MalformedResponseError; return errors.As(err, &e) && e.Field == "list" },
		},
		{
			name:   "missing temperature",
			status: http.StatusOK,
			body:   `{"list":[{"dt":1,"main":{"humidity":3},"weather":[{"description":"x"}],"wind":{"speed":1}}]}`,
			check: func(err error) bool {
				var e *MalformedResponseError
				return errors.As(err, &e) && e.Field == "list[0].main.temp"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.FetchForecast(context.Background(), "Nowhere")
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type: %T %v", err, err)
			}
		})
	}
}

func TestFetchCurrentMissingField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"X","dt":1,"main":{"temp":1,"feels_like":1,"humidity":1,"pressure":1},
			"weather":[{"description":"x"}],"wind":{"speed":1},"sys":{"sunrise":1}}`))
	})

	_, err := client.FetchCurrent(context.Background(), "X")
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) || malformed.Field != "sys.sunset" {
		t.Fatalf("err = %v, want missing sys.sunset", err)
	}
}

func TestFetchWithoutAPIKey(t *testing.T) {
	client := NewOpenWeatherClient(Options{BaseURL: "http://127.0.0.1:1"})

	_, err := client.FetchCurrent(context.Background(), "Madrid")
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewOpenWeatherClient(Options{APIKey: "key", BaseURL: url})
	_, err := client.FetchForecast(context.Background(), "Madrid")
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}
