package domain

import "time"

// EcozoneMissing is the sentinel written by ingest when the source row has no
// ecozone label. The spatial imputer replaces it; nothing downstream of the
// imputer may observe it.
const EcozoneMissing = ""

// CauseUnknown is the sentinel assigned to rows with no recorded cause,
// matching the source database convention.
const CauseUnknown = "U"

// FireRecord is one wildfire observation. FID is the stable join key into
// weather enrichment data and never changes across pipeline stages.
type FireRecord struct {
	FID        int       `json:"fid"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportDate time.Time `json:"report_date"`
	Agency     string    `json:"src_agency"`
	Cause      string    `json:"cause"`
	SizeHa     float64   `json:"size_ha"`
	Ecozone    string    `json:"ecozone"`

	// Derived by the feature enricher.
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
	Day       int    `json:"day,omitempty"`
	Weekday   int    `json:"day_of_week"` // 0 = Monday
	Decade    string `json:"decade,omitempty"`
	Region    string `json:"region,omitempty"` // empty when the agency code is unmapped
	SizeClass string `json:"size_class,omitempty"`
}

// FeatureRow is one row of the final feature table: a fully enriched
// FireRecord joined with its reshaped weather features on FID.
type FeatureRow struct {
	FireRecord
	Weather WeatherFeatures `json:"weather"`

	// WeatherMatched distinguishes a real enrichment from zero-valued weather
	// columns when the join policy keeps unmatched rows.
	WeatherMatched bool `json:"weather_matched"`
}

// RepeatLocation summarizes recurrence at one exact coordinate pair.
// Derived at analysis time; never merged back into the main table.
type RepeatLocation struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Count     int           `json:"count"`
	MeanGap   time.Duration `json:"mean_gap"`
}
