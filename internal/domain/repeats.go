package domain

import (
	"math"
	"sort"
	"time"
)

// RepeatLocations groups records by coordinate equality and reports, for each
// location with at least two fires, the fire count and the mean interval
// between consecutive fires (dates ascending).
//
// precision controls grouping tolerance: a negative value groups by exact
// float64 equality (the historical behavior); otherwise coordinates are
// rounded to that many decimal places first, so near-identical GPS fixes
// land in the same group. Output is ordered by count descending, then by
// latitude and longitude, so repeated runs produce identical tables.
func RepeatLocations(records []FireRecord, precision int) []RepeatLocation {
	type key struct{ lat, lon float64 }

	groups := make(map[key][]time.Time)
	for _, r := range records {
		k := key{roundTo(r.Latitude, precision), roundTo(r.Longitude, precision)}
		groups[k] = append(groups[k], r.ReportDate)
	}

	out := make([]RepeatLocation, 0)
	for k, dates := range groups {
		if len(dates) < 2 {
			continue
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		var total time.Duration
		for i := 1; i < len(dates); i++ {
			total += dates[i].Sub(dates[i-1])
		}

		out = append(out, RepeatLocation{
			Latitude:  k.lat,
			Longitude: k.lon,
			Count:     len(dates),
			MeanGap:   total / time.Duration(len(dates)-1),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Latitude != out[j].Latitude {
			return out[i].Latitude < out[j].Latitude
		}
		return out[i].Longitude < out[j].Longitude
	})
	return out
}

func roundTo(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}
