package weather

import (
	"context"
	"time"
)

// Client is the read side of a weather provider.
type Client interface {
	FetchCurrent(ctx context.Context, city string) (*Current, error)
	FetchForecast(ctx context.Context, city string) ([]Sample, error)
}

// Sample is one normalized forecast data point. Timestamp carries the
// queried city's UTC offset, so its date component is the city's local date.
type Sample struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature_c"`
	Humidity      float64   `json:"humidity_pct"`
	WindSpeed     float64   `json:"wind_speed_ms"`
	Description   string    `json:"description"`
	Precipitation float64   `json:"precipitation_mm"`
}

// Current is the present conditions of a city.
type Current struct {
	Sample
	City      string    `json:"city"`
	Country   string    `json:"country,omitempty"`
	FeelsLike float64   `json:"feels_like_c"`
	Pressure  float64   `json:"pressure_hpa"`
	Icon      string    `json:"icon,omitempty"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
	// Visibility is in km; nil when the provider omits it.
	Visibility *float64 `json:"visibility_km,omitempty"`
}
