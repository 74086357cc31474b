package domain

import (
	"fmt"
	"time"
)

// BoundaryError reports a value outside a fixed bucketing range. These are
// fatal for the affected row and must be surfaced, never silently coerced.
type BoundaryError struct {
	Field string
	Value float64
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s value %g outside configured bins", e.Field, e.Value)
}

// decadeBins covers [1940, 2030) in right-open 10-year spans.
var decadeBins = []string{"40s", "50s", "60s", "70s", "80s", "90s", "00s", "10s", "20s"}

// agencyRegion maps reporting-agency codes to province/territory abbreviations.
// Provincial agencies map to themselves; PC-* codes are Parks Canada units
// (current and historical) mapped to the province containing the park.
var agencyRegion = map[string]string{
	"BC": "BC", "AB": "AB", "SK": "SK", "MB": "MB", "ON": "ON", "QC": "QC",
	"NL": "NL", "NB": "NB", "NS": "NS", "YT": "YT", "NT": "NT",
	"PC-NA": "NT", "PC-WB": "AB", "PC-VU": "YT", "PC-BA": "AB", "PC-EI": "AB",
	"PC-WP": "MB", "PC-JA": "AB", "PC-PA": "SK", "PC-GL": "BC", "PC-KO": "BC",
	"PC-RE": "BC", "PC-BT": "SK", "PC-YO": "BC", "PC-RM": "MB", "PC-GF": "BC",
	"PC-GR": "SK", "PC-WL": "AB", "PC-FR": "BC", "PC-PU": "ON", "PC-KG": "NB",
	"PC-LM": "QC", "PC-CB": "NS", "PC-PE": "PE", "PC-BP": "ON", "PC-TI": "ON",
	"PC-SL": "ON", "PC-KE": "NS", "PC-PP": "ON", "PC-SY": "NT", "PC-SE": "NT",
	"PC-NC": "YT", "PC-KL": "YT", "PC-RE-GL": "BC", "PC-GM": "NL", "PC-PR": "BC",
	"PC-TN": "NL", "PC-GI": "QC", "PC-FW": "SK", "PC-FO": "QC", "PC-GB": "ON",
	"PC-LO": "NS", "PC-FU": "NB", "PC-MM": "NL", "PC-TH": "NT",
}

// Size-class boundaries in hectares: small (0,15] with zero included,
// medium (15,5000], large above.
const (
	sizeSmallMax  = 15.0
	sizeMediumMax = 5000.0
)

// SplitDate decomposes a report date into calendar fields.
// Weekday is zero-based on Monday to match the modeling convention.
func SplitDate(t time.Time) (year, month, day, weekday int) {
	return t.Year(), int(t.Month()), t.Day(), (int(t.Weekday()) + 6) % 7
}

// DecadeBucket assigns a year to one of the nine fixed decade labels spanning
// [1940, 2030). Years outside the range are a boundary error for the row.
func DecadeBucket(year int) (string, error) {
	idx := (year - 1940) / 10
	if year < 1940 || idx >= len(decadeBins) {
		return "", &BoundaryError{Field: "year", Value: float64(year)}
	}
	return decadeBins[idx], nil
}

// RegionForAgency maps a source agency code to its region abbreviation.
// Unknown codes are not an error; they yield a missing region.
func RegionForAgency(code string) (string, bool) {
	region, ok := agencyRegion[code]
	return region, ok
}

// SizeClass buckets a burned area into small, medium, or large.
// Zero is small; negative areas are a boundary error.
func SizeClass(hectares float64) (string, error) {
	switch {
	case hectares < 0:
		return "", &BoundaryError{Field: "size_ha", Value: hectares}
	case hectares <= sizeSmallMax:
		return "small", nil
	case hectares <= sizeMediumMax:
		return "medium", nil
	default:
		return "large", nil
	}
}

// FeatureFailure pairs a row that failed feature derivation with its cause.
type FeatureFailure struct {
	FID int
	Err error
}

// EnrichFeatures derives the calendar, decade, region, and size-class columns
// for every record. The four derivations are independent; a boundary error in
// any of them drops the row and records a failure for the caller to surface.
func EnrichFeatures(records []FireRecord) ([]FireRecord, []FeatureFailure) {
	out := make([]FireRecord, 0, len(records))
	var failures []FeatureFailure

	for _, r := range records {
		r.Year, r.Month, r.Day, r.Weekday = SplitDate(r.ReportDate)

		decade, err := DecadeBucket(r.Year)
		if err != nil {
			failures = append(failures, FeatureFailure{FID: r.FID, Err: err})
			continue
		}
		r.Decade = decade

		sizeClass, err := SizeClass(r.SizeHa)
		if err != nil {
			failures = append(failures, FeatureFailure{FID: r.FID, Err: err})
			continue
		}
		r.SizeClass = sizeClass

		r.Region, _ = RegionForAgency(r.Agency)
		out = append(out, r)
	}
	return out, failures
}
