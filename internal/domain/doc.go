// Package domain models Canadian historical wildfire records and the weather
// enrichment derived for them.
//
// # Data Source
//
// Fire records come from the Canadian National Fire Database (CNFDB) point
// dataset: one row per reported fire with coordinates, report date, reporting
// agency, cause, burned area in hectares, and ecozone. Column naming in the
// source CSV varies by snapshot and is normalized once at ingestion.
//
// # Source Data Conventions
//
// Coordinates:
//
//	WGS-84 decimal degrees. A small number of rows carry a (0, 0) placeholder
//	and are dropped; a handful of longitudes lost their sign upstream and are
//	forced negative (the whole study region is in the Western hemisphere).
//	Offshore and US-territory points that survive those checks are removed by
//	fixed exclusion boxes plus an FID denylist; see [GeoRules].
//
// Cause:
//
//	Single-letter categorical code. "U" is the database sentinel for unknown
//	cause and is assigned to rows where the field is empty.
//
// Agency codes:
//
//	Two-letter provincial agencies ("BC", "ON", ...) plus "PC-*" Parks Canada
//	unit codes, including historical ones. Each maps to the province or
//	territory containing the reporting unit; see [RegionForAgency]. Codes
//	absent from the table yield a missing region, not an error.
//
// Ecozone:
//
//	Ecological-region classification of the fire's location. Missing labels
//	are filled by a deterministic k-nearest-neighbors estimate over the
//	coordinates of labeled records; see [ImputeEcozones].
//
// # Derived Features
//
// The feature enricher adds calendar fields (year, month, day, weekday with
// Monday=0), a decade bucket over [1940, 2030), the administrative region,
// and a size class over burned area: small (0,15] including zero, medium
// (15,5000], large above. Out-of-range years and negative areas surface as
// [BoundaryError], never as silently coerced labels.
//
// # Weather Enrichment
//
// Each fire is joined against an archive of daily weather for the 14 days
// preceding its report date (15 days inclusive of the report date). The
// archive response is persisted as a [WeatherDoc] keyed by FID and later
// flattened by [ReshapeWeather] into scalar features: window totals and
// means, plus report-day values for wind and maximum temperature.
//
// FID is the stable unique identifier carried through every stage; it is the
// only join key between fire and weather data.
package domain
