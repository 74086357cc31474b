package domain

import "math"

// CleanStats counts what the cleaner did to a batch.
type CleanStats struct {
	Kept            int
	DroppedNoDate   int
	DroppedZeroLat  int
	DefaultedCause  int
	SignCorrections int
}

// Clean repairs or removes structurally invalid rows:
//   - rows with no report date are dropped
//   - rows with a missing cause get the "U" sentinel
//   - rows with latitude 0 are dropped (0,0 placeholder coordinates)
//   - longitude is forced negative (a handful of source rows lost the sign)
//
// Malformed rows are dropped silently rather than surfaced as errors; the
// stats carry the counts for logging and metrics. Row order is preserved and
// no column is added.
func Clean(records []FireRecord) ([]FireRecord, CleanStats) {
	var stats CleanStats
	out := make([]FireRecord, 0, len(records))

	for _, r := range records {
		if r.ReportDate.IsZero() {
			stats.DroppedNoDate++
			continue
		}
		if r.Latitude == 0 {
			stats.DroppedZeroLat++
			continue
		}
		if r.Cause == "" {
			r.Cause = CauseUnknown
			stats.DefaultedCause++
		}
		if r.Longitude > 0 {
			stats.SignCorrections++
		}
		r.Longitude = -math.Abs(r.Longitude)
		out = append(out, r)
	}

	stats.Kept = len(out)
	return out, stats
}
