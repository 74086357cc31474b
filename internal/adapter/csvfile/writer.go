package csvfile

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// featureHeader is the column order of the exported feature table.
var featureHeader = []string{
	"FID", "LATITUDE", "LONGITUDE", "REP_DATE", "SRC_AGENCY", "CAUSE",
	"SIZE_HA", "ECOZ_NAME", "YEAR", "MONTH", "DATE", "DAY_OF_WEEK",
	"DECADE", "REGION", "SIZE_CLASS",
	"PRECIP_TOTAL", "TEMP_MAX_MEAN", "TEMP_MAX_LAST_DAY", "TEMP_MEAN_MEAN",
	"WIND_MAX_LAST_DAY", "WIND_DIR_LAST_DAY", "WEATHER_MATCHED",
}

// Sink writes the final feature table to one CSV file.
type Sink struct {
	path   string
	logger *slog.Logger
}

// NewSink creates a writer for the given output path.
func NewSink(path string, logger *slog.Logger) *Sink {
	return &Sink{path: path, logger: logger}
}

// WriteFeatures exports the feature table as a flat, fully-typed CSV.
// An empty table is valid output and yields a header-only file.
func (s *Sink) WriteFeatures(rows []domain.FeatureRow) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if len(rows) == 0 {
		// gota cannot represent a header-only table; write it directly.
		w := csv.NewWriter(f)
		if err := w.Write(featureHeader); err != nil {
			return fmt.Errorf("write feature table: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("write feature table: %w", err)
		}
		s.logger.Info("wrote feature table", "path", s.path, "rows", 0)
		return nil
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, featureHeader)
	for _, r := range rows {
		records = append(records, featureValues(r))
	}

	df := dataframe.LoadRecords(records)
	if df.Err != nil {
		return fmt.Errorf("build feature table: %w", df.Err)
	}

	if err := df.WriteCSV(f); err != nil {
		return fmt.Errorf("write feature table: %w", err)
	}

	s.logger.Info("wrote feature table", "path", s.path, "rows", len(rows))
	return nil
}

func featureValues(r domain.FeatureRow) []string {
	return []string{
		strconv.Itoa(r.FID),
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		r.ReportDate.Format(domain.DateLayout),
		r.Agency,
		r.Cause,
		formatFloat(r.SizeHa),
		r.Ecozone,
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
		strconv.Itoa(r.Day),
		strconv.Itoa(r.Weekday),
		r.Decade,
		r.Region,
		r.SizeClass,
		formatFloat(r.Weather.PrecipTotal),
		formatFloat(r.Weather.TempMaxMean),
		formatFloat(r.Weather.TempMaxLastDay),
		formatFloat(r.Weather.TempMeanMean),
		formatFloat(r.Weather.WindMaxLastDay),
		formatFloat(r.Weather.WindDirLastDay),
		strconv.FormatBool(r.WeatherMatched),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
