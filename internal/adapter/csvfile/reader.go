// Package csvfile reads raw wildfire CSV snapshots and writes the final
// feature table.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// Required source columns, matched case-insensitively; header naming varies
// between dataset snapshots and is normalized exactly once here.
var requiredColumns = []string{
	"FID", "REP_DATE", "LATITUDE", "LONGITUDE",
	"SRC_AGENCY", "CAUSE", "SIZE_HA", "ECOZ_NAME",
}

// dateLayouts are the report-date formats seen across snapshots.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ecozoneNulls are the string spellings of a missing ecozone in source files.
var ecozoneNulls = map[string]bool{"": true, "NA": true, "NAN": true, "NULL": true}

// Source reads fire records from one delimited snapshot file.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource creates a reader for the given CSV path.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// ReadRecords loads the snapshot into fire records. A missing file or an
// unrecognizable header is a structural error; individual unparsable cells
// are tolerated (the cleaner drops what it must) except for FID, which is
// the row's identity — rows without a parsable FID are dropped here.
func (s *Source) ReadRecords() ([]domain.FireRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	// gota cannot represent a header-only table, but an empty snapshot is a
	// valid input, not a corrupt one. Peek past the header before handing the
	// bytes over.
	peek := csv.NewReader(bytes.NewReader(data))
	header, err := peek.Read()
	if err != nil {
		return nil, fmt.Errorf("input CSV %s has no header row", s.path)
	}
	if _, err := peek.Read(); err == io.EOF {
		if _, err := columnIndex(header); err != nil {
			return nil, err
		}
		s.logger.Info("ingested fire records", "path", s.path, "rows", 0)
		return []domain.FireRecord{}, nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data))
	if df.Err != nil {
		return nil, fmt.Errorf("read input CSV: %w", df.Err)
	}

	rows := df.Records()
	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]domain.FireRecord, 0, len(rows)-1)
	droppedNoFID := 0
	for _, row := range rows[1:] {
		fid, err := strconv.Atoi(strings.TrimSpace(row[cols["FID"]]))
		if err != nil {
			droppedNoFID++
			continue
		}

		records = append(records, domain.FireRecord{
			FID:        fid,
			ReportDate: parseDate(row[cols["REP_DATE"]]),
			Latitude:   parseFloatOrZero(row[cols["LATITUDE"]]),
			Longitude:  parseFloatOrZero(row[cols["LONGITUDE"]]),
			Agency:     strings.TrimSpace(row[cols["SRC_AGENCY"]]),
			Cause:      parseCause(row[cols["CAUSE"]]),
			SizeHa:     parseFloatOrZero(row[cols["SIZE_HA"]]),
			Ecozone:    parseEcozone(row[cols["ECOZ_NAME"]]),
		})
	}

	if droppedNoFID > 0 {
		s.logger.Warn("dropped rows without a parsable FID", "count", droppedNoFID)
	}
	s.logger.Info("ingested fire records", "path", s.path, "rows", len(records))
	return records, nil
}

// columnIndex maps each required column to its position, case-insensitively.
func columnIndex(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	cols := make(map[string]int, len(requiredColumns))
	for _, want := range requiredColumns {
		idx, ok := byName[want]
		if !ok {
			return nil, fmt.Errorf("input CSV missing required column %s", want)
		}
		cols[want] = idx
	}
	return cols, nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		// Missing numeric cells surface as "NaN" after type detection.
		return 0
	}
	return v
}

func parseCause(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "NA") || strings.EqualFold(s, "NaN") {
		return ""
	}
	return s
}

func parseEcozone(s string) string {
	s = strings.TrimSpace(s)
	if ecozoneNulls[strings.ToUpper(s)] {
		return domain.EcozoneMissing
	}
	return s
}
