package forecast

import (
	"sort"

	"weather-forecast/internal/weather"
)

// DailySummary aggregates every sample that falls on one calendar date.
type DailySummary struct {
	Date                Date    `json:"date"`
	TemperatureMin      float64 `json:"temperature_min_c"`
	TemperatureMax      float64 `json:"temperature_max_c"`
	TemperatureMean     float64 `json:"temperature_mean_c"`
	DominantDescription string  `json:"dominant_description"`
	HumidityMean        float64 `json:"humidity_mean_pct"`
	WindSpeedMean       float64 `json:"wind_speed_mean_ms"`
	PrecipitationTotal  float64 `json:"precipitation_total_mm"`
	Samples             int     `json:"samples"`
}

type accumulator struct {
	count     int
	tempSum   float64
	tempMin   float64
	tempMax   float64
	humSum    float64
	windSum   float64
	precipSum float64

	// descriptions in order of first occurrence, with their counts
	order  []string
	counts map[string]int
}

func (a *accumulator) add(s weather.Sample) {
	if a.count == 0 || s.Temperature < a.tempMin {
		a.tempMin = s.Temperature
	}
	if a.count == 0 || s.Temperature > a.tempMax {
		a.tempMax = s.Temperature
	}
	a.count++
	a.tempSum += s.Temperature
	a.humSum += s.Humidity
	a.windSum += s.WindSpeed
	a.precipSum += s.Precipitation

	if _, seen := a.counts[s.Description]; !seen {
		a.order = append(a.order, s.Description)
	}
	a.counts[s.Description]++
}

// dominant returns the most frequent description. Among equally frequent
// ones the description that appeared first that day wins.
func (a *accumulator) dominant() string {
	best, bestCount := "", 0
	for _, desc := range a.order {
		if c := a.counts[desc]; c > bestCount {
			best, bestCount = desc, c
		}
	}
	return best
}

func (a *accumulator) summary(date Date) DailySummary {
	n := float64(a.count)

	// Summing can drift a mean of equal values past the extremes by an ulp.
	mean := a.tempSum / n
	if mean < a.tempMin {
		mean = a.tempMin
	}
	if mean > a.tempMax {
		mean = a.tempMax
	}

	return DailySummary{
		Date:                date,
		TemperatureMin:      a.tempMin,
		TemperatureMax:      a.tempMax,
		TemperatureMean:     mean,
		DominantDescription: a.dominant(),
		HumidityMean:        a.humSum / n,
		WindSpeedMean:       a.windSum / n,
		PrecipitationTotal:  a.precipSum,
		Samples:             a.count,
	}
}

// Aggregate groups samples by the date component of their timestamp and
// summarizes each group in a single pass. Input order does not need to be
// chronological; it only matters for breaking description ties. Values are
// not validated.
func Aggregate(samples []weather.Sample) map[Date]DailySummary {
	days := make(map[Date]*accumulator)
	for _, s := range samples {
		date := DateOf(s.Timestamp)
		acc, ok := days[date]
		if !ok {
			acc = &accumulator{counts: make(map[string]int)}
			days[date] = acc
		}
		acc.add(s)
	}

	result := make(map[Date]DailySummary, len(days))
	for date, acc := range days {
		result[date] = acc.summary(date)
	}
	return result
}

// Days returns the summaries ordered by date.
func Days(summaries map[Date]DailySummary) []DailySummary {
	out := make([]DailySummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
