package domain

import "math"

// ExclusionBox is a rectangular region of coordinates known to be outside the
// study area (offshore water or foreign territory). Bounds are exclusive; use
// ±Inf for an unbounded side. YAML overrides express infinities as -.inf/.inf.
type ExclusionBox struct {
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
}

// Contains reports whether the coordinate falls strictly inside the box.
func (b ExclusionBox) Contains(lat, lon float64) bool {
	return lon > b.MinLon && lon < b.MaxLon && lat > b.MinLat && lat < b.MaxLat
}

// GeoRules is the fixed geographic-filter configuration: the exclusion boxes
// plus a denylist of FIDs for known-bad outliers the boxes do not catch.
// The denylist is keyed by stable record identifier, not row position, so it
// survives reordering and re-snapshots of the source dataset.
type GeoRules struct {
	Boxes    []ExclusionBox `yaml:"exclusion_boxes"`
	Denylist []int          `yaml:"denylist_fids"`
}

// DefaultGeoRules returns the built-in rules: five boxes covering water and
// US territory adjacent to the study region, derived by mapping the source
// dataset, plus the FIDs of individually verified outliers.
func DefaultGeoRules() GeoRules {
	inf := math.Inf(1)
	return GeoRules{
		Boxes: []ExclusionBox{
			// Pacific, southwest of the Alaska panhandle.
			{MinLon: -inf, MaxLon: -134.5, MinLat: -inf, MaxLat: 58.5},
			// Pacific, west of the central BC coast.
			{MinLon: -inf, MaxLon: -133.08, MinLat: -inf, MaxLat: 55},
			// Pacific, southwest of Vancouver Island.
			{MinLon: -inf, MaxLon: -126.89, MinLat: -inf, MaxLat: 49.8},
			// US territory south of the prairie border.
			{MinLon: -123.04, MaxLon: -95, MinLat: -inf, MaxLat: 48.95},
			// Hecate Strait, between Haida Gwaii and the mainland.
			{MinLon: -130.99, MaxLon: -130, MinLat: 51.87, MaxLat: 53.62},
		},
		Denylist: []int{
			423718, 423531, 375825, 375826, 375827, 375828,
			375823, 375830, 375829, 419691, 146985,
		},
	}
}

// Filter removes records that fall inside any exclusion box or whose FID is
// denylisted. Idempotent: filtering an already-filtered batch is a no-op.
func (g GeoRules) Filter(records []FireRecord) []FireRecord {
	denied := make(map[int]struct{}, len(g.Denylist))
	for _, fid := range g.Denylist {
		denied[fid] = struct{}{}
	}

	out := make([]FireRecord, 0, len(records))
	for _, r := range records {
		if _, ok := denied[r.FID]; ok {
			continue
		}
		if g.excluded(r.Latitude, r.Longitude) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (g GeoRules) excluded(lat, lon float64) bool {
	for _, b := range g.Boxes {
		if b.Contains(lat, lon) {
			return true
		}
	}
	return false
}
