package domain

import (
	"fmt"
	"time"
)

// LookbackDays is the length of the weather window preceding a fire's report
// date. The window is inclusive on both ends, so it spans LookbackDays+1 days.
const LookbackDays = 14

// DateLayout is the ISO calendar-date format used by the archive API and the
// persisted daily series.
const DateLayout = "2006-01-02"

// LookbackWindow returns the inclusive [start, end] window ending at the
// report date: 2020-06-15 -> 2020-06-01 through 2020-06-15, 15 days.
func LookbackWindow(reportDate time.Time) (start, end time.Time) {
	end = reportDate
	start = reportDate.AddDate(0, 0, -LookbackDays)
	return start, end
}

// DailySeries holds the per-day measurements returned by the weather archive:
// parallel arrays, one entry per day of the requested window, aligned with Time.
type DailySeries struct {
	Time            []string  `json:"time" bson:"time"`
	TempMax         []float64 `json:"temperature_2m_max" bson:"temperature_2m_max"`
	TempMean        []float64 `json:"temperature_2m_mean" bson:"temperature_2m_mean"`
	PrecipSum       []float64 `json:"precipitation_sum" bson:"precipitation_sum"`
	WindSpeedMax    []float64 `json:"windspeed_10m_max" bson:"windspeed_10m_max"`
	WindDirDominant []float64 `json:"winddirection_10m_dominant" bson:"winddirection_10m_dominant"`
}

// SeriesValidationError reports a daily series whose shape does not match the
// time axis. Archive responses are validated explicitly rather than assumed
// well-formed, so a short or missing series never becomes an index panic.
type SeriesValidationError struct {
	Field string
	Want  int
	Got   int
}

func (e *SeriesValidationError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("daily series: %s is empty", e.Field)
	}
	return fmt.Sprintf("daily series: %s has %d values, want %d", e.Field, e.Got, e.Want)
}

// Validate checks that the series is non-empty and that every measurement
// array has one value per day of the time axis.
func (d DailySeries) Validate() error {
	n := len(d.Time)
	if n == 0 {
		return &SeriesValidationError{Field: "time"}
	}
	for _, s := range []struct {
		field string
		len   int
	}{
		{"temperature_2m_max", len(d.TempMax)},
		{"temperature_2m_mean", len(d.TempMean)},
		{"precipitation_sum", len(d.PrecipSum)},
		{"windspeed_10m_max", len(d.WindSpeedMax)},
		{"winddirection_10m_dominant", len(d.WindDirDominant)},
	} {
		if s.len != n {
			return &SeriesValidationError{Field: s.field, Want: n, Got: s.len}
		}
	}
	return nil
}

// WeatherDoc is one persisted enrichment document: the archive response for a
// fire's lookback window plus the owning FID. FID is stored as float64 to
// match the numeric type the document store uses; the reshaper casts it back
// to the integer FireRecord key.
type WeatherDoc struct {
	FID       float64     `json:"FID" bson:"FID"`
	Latitude  float64     `json:"latitude" bson:"latitude"`
	Longitude float64     `json:"longitude" bson:"longitude"`
	Elevation float64     `json:"elevation" bson:"elevation"`
	Daily     DailySeries `json:"daily" bson:"daily"`
	FetchedAt time.Time   `json:"fetched_at" bson:"fetched_at"`
}

// WeatherFeatures is the flattened, scalar form of one WeatherDoc, keyed by
// integer FID for joining against FireRecords.
type WeatherFeatures struct {
	FID            int     `json:"fid"`
	PrecipTotal    float64 `json:"precip_total"`
	TempMaxMean    float64 `json:"temp_max_mean"`
	TempMaxLastDay float64 `json:"temp_max_last_day"`
	TempMeanMean   float64 `json:"temp_mean_mean"`
	WindMaxLastDay float64 `json:"wind_max_last_day"`
	WindDirLastDay float64 `json:"wind_dir_last_day"`
}
