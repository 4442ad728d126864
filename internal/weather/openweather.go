package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	maxBodyBytes   = 1 << 20
)

type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	units   string
	lang    string
	client  *http.Client
}

type Options struct {
	APIKey  string
	BaseURL string
	Units   string
	Lang    string
	Timeout time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

func NewOpenWeatherClient(opts Options) *OpenWeatherClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Units == "" {
		opts.Units = "metric"
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &OpenWeatherClient{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		units:   opts.Units,
		lang:    opts.Lang,
		client:  httpClient,
	}
}

type openWeatherMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *float64 `json:"humidity"`
	Pressure  *float64 `json:"pressure"`
}

type openWeatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type openWeatherWind struct {
	Speed *float64 `json:"speed"`
}

type openWeatherPrecip struct {
	OneHour    float64 `json:"1h"`
	ThreeHours float64 `json:"3h"`
}

type openWeatherCurrentResponse struct {
	Name       string                 `json:"name"`
	Dt         *int64                 `json:"dt"`
	Timezone   int64                  `json:"timezone"`
	Visibility *float64               `json:"visibility"`
	Main       *openWeatherMain       `json:"main"`
	Weather    []openWeatherCondition `json:"weather"`
	Wind       *openWeatherWind       `json:"wind"`
	Rain       *openWeatherPrecip     `json:"rain"`
	Snow       *openWeatherPrecip     `json:"snow"`
	Sys        *struct {
		Country string `json:"country"`
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
}

type openWeatherForecastItem struct {
	Dt      *int64                 `json:"dt"`
	Main    *openWeatherMain       `json:"main"`
	Weather []openWeatherCondition `json:"weather"`
	Wind    *openWeatherWind       `json:"wind"`
	Rain    *openWeatherPrecip     `json:"rain"`
	Snow    *openWeatherPrecip     `json:"snow"`
}

type openWeatherForecastResponse struct {
	List []openWeatherForecastItem `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int64  `json:"timezone"`
	} `json:"city"`
}

type openWeatherErrorResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
}

func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, city string) (*Current, error) {
	const op = "current"

	var payload openWeatherCurrentResponse
	if err := c.get(ctx, op, "/weather", city, &payload); err != nil {
		return nil, err
	}

	switch {
	case payload.Name == "":
		return nil, &MalformedResponseError{Op: op, Field: "name"}
	case payload.Sys == nil || payload.Sys.Sunrise == nil:
		return nil, &MalformedResponseError{Op: op, Field: "sys.sunrise"}
	case payload.Sys.Sunset == nil:
		return nil, &MalformedResponseError{Op: op, Field: "sys.sunset"}
	case payload.Main != nil && payload.Main.FeelsLike == nil:
		return nil, &MalformedResponseError{Op: op, Field: "main.feels_like"}
	case payload.Main != nil && payload.Main.Pressure == nil:
		return nil, &MalformedResponseError{Op: op, Field: "main.pressure"}
	}

	sample, err := toSample(op, payload.Dt, payload.Timezone, payload.Main, payload.Weather, payload.Wind)
	if err != nil {
		return nil, err
	}
	sample.Precipitation = precipitation(payload.Rain, payload.Snow, false)

	current := &Current{
		Sample:    sample,
		City:      payload.Name,
		Country:   payload.Sys.Country,
		FeelsLike: *payload.Main.FeelsLike,
		Pressure:  *payload.Main.Pressure,
		Icon:      payload.Weather[0].Icon,
		Sunrise:   localTime(*payload.Sys.Sunrise, payload.Timezone),
		Sunset:    localTime(*payload.Sys.Sunset, payload.Timezone),
	}
	if payload.Visibility != nil {
		km := *payload.Visibility / 1000
		current.Visibility = &km
	}

	return current, nil
}

func (c *OpenWeatherClient) FetchForecast(ctx context.Context, city string) ([]Sample, error) {
	const op = "forecast"

	var payload openWeatherForecastResponse
	if err := c.get(ctx, op, "/forecast", city, &payload); err != nil {
		return nil, err
	}
	if payload.List == nil {
		return nil, &MalformedResponseError{Op: op, Field: "list"}
	}

	samples := make([]Sample, 0, len(payload.List))
	for i, item := range payload.List {
		sample, err := toSample(op, item.Dt, payload.City.Timezone, item.Main, item.Weather, item.Wind)
		if err != nil {
			var malformed *MalformedResponseError
			if errors.As(err, &malformed) {
				malformed.Field = fmt.Sprintf("list[%d].%s", i, malformed.Field)
			}
			return nil, err
		}
		sample.Precipitation = precipitation(item.Rain, item.Snow, true)
		samples = append(samples, sample)
	}

	return samples, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, op, path, city string, out interface{}) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return &NotFoundError{City: city}
	}
	if c.apiKey == "" {
		return &TransportError{Op: op, Err: errors.New("api key is empty")}
	}

	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.apiKey)
	query.Set("units", c.units)
	query.Set("lang", c.lang)

	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode == http.StatusNotFound || responseCode(body) == "404" {
		return &NotFoundError{City: city}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr openWeatherErrorResponse
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// responseCode extracts "cod", which the API sends either as a number or
// as a string depending on the endpoint.
func responseCode(body []byte) string {
	var apiErr openWeatherErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || len(apiErr.Cod) == 0 {
		return ""
	}
	return string(bytes.Trim(apiErr.Cod, `"`))
}

func toSample(op string, dt *int64, offset int64, main *openWeatherMain, conditions []openWeatherCondition, wind *openWeatherWind) (Sample, error) {
	switch {
	case dt == nil:
		return Sample{}, &MalformedResponseError{Op: op, Field: "dt"}
	case main == nil || main.Temp == nil:
		return Sample{}, &MalformedResponseError{Op: op, Field: "main.temp"}
	case main.Humidity == nil:
		return Sample{}, &MalformedResponseError{Op: op, Field: "main.humidity"}
	case len(conditions) == 0 || conditions[0].Description == "":
		return Sample{}, &MalformedResponseError{Op: op, Field: "weather[0].description"}
	case wind == nil || wind.Speed == nil:
		return Sample{}, &MalformedResponseError{Op: op, Field: "wind.speed"}
	}

	return Sample{
		Timestamp:   localTime(*dt, offset),
		Temperature: *main.Temp,
		Humidity:    *main.Humidity,
		WindSpeed:   *wind.Speed,
		Description: conditions[0].Description,
	}, nil
}

// precipitation sums rain and snow over the 3h window for forecast items
// and the 1h window for current conditions.
func precipitation(rain, snow *openWeatherPrecip, threeHours bool) float64 {
	total := 0.0
	for _, p := range []*openWeatherPrecip{rain, snow} {
		if p == nil {
			continue
		}
		if threeHours {
			total += p.ThreeHours
		} else {
			total += p.OneHour
		}
	}
	return total
}

func localTime(epoch, offsetSeconds int64) time.Time {
	return time.Unix(epoch, 0).In(time.FixedZone("", int(offsetSeconds)))
}
