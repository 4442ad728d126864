package console

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"

	"weather-forecast/internal/forecast"
	"weather-forecast/internal/weather"
)

type Renderer struct {
	out     io.Writer
	header  *color.Color
	primary *color.Color
	day     *color.Color
	notice  *color.Color
	failure *color.Color
	success *color.Color
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:     out,
		header:  color.New(color.FgCyan),
		primary: color.New(color.FgYellow),
		day:     color.New(color.FgGreen),
		notice:  color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		success: color.New(color.FgGreen),
	}
}

func (r *Renderer) Header(format string, args ...interface{}) {
	r.header.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Notice(format string, args ...interface{}) {
	r.notice.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Success(format string, args ...interface{}) {
	r.success.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Error(format string, args ...interface{}) {
	r.failure.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Plain(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) RenderCurrent(c *weather.Current) {
	if c == nil {
		return
	}

	r.Plain("")
	r.Header("Current weather in %s", c.City)
	r.primary.Fprintf(r.out, "Temperature: %.1f°C\n", c.Temperature)
	r.Plain("Feels like: %.1f°C", c.FeelsLike)
	r.Plain("Description: %s", Capitalize(c.Description))
	r.Plain("Humidity: %.0f%%", c.Humidity)
	r.Plain("Wind: %.1f m/s", c.WindSpeed)
	r.Plain("Pressure: %.0f hPa", c.Pressure)
	if c.Visibility != nil {
		r.Plain("Visibility: %.1f km", *c.Visibility)
	} else {
		r.Plain("Visibility: not available")
	}
	if c.Precipitation > 0 {
		r.Plain("Precipitation (1h): %.1f mm", c.Precipitation)
	}
	r.Plain("Sunrise: %s", c.Sunrise.Format("15:04"))
	r.Plain("Sunset: %s", c.Sunset.Format("15:04"))
}

func (r *Renderer) RenderForecast(city string, days []forecast.DailySummary) {
	r.Plain("")
	r.Header("Forecast for %s", city)
	if len(days) == 0 {
		r.Notice("No forecast data available.")
		return
	}

	for _, d := range days {
		r.Plain("")
		r.day.Fprintf(r.out, "%s:\n", d.Date.Time().Format("Monday 02/01"))
		r.Plain("  Temperature: %.1f°C - %.1f°C", d.TemperatureMin, d.TemperatureMax)
		r.Plain("  Average: %.1f°C", d.TemperatureMean)
		r.Plain("  Description: %s", Capitalize(d.DominantDescription))
		r.Plain("  Average humidity: %.1f%%", d.HumidityMean)
		r.Plain("  Average wind: %.1f m/s", d.WindSpeedMean)
		if d.PrecipitationTotal > 0 {
			r.Plain("  Expected precipitation: %.1f mm", d.PrecipitationTotal)
		}
	}
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
