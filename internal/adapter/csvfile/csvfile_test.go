package csvfile

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSource_ReadRecords(t *testing.T) {
	src := NewSource(filepath.Join("testdata", "fires_sample.csv"), testLogger())

	records, err := src.ReadRecords()
	require.NoError(t, err)

	// Six data rows, one without a parsable FID.
	require.Len(t, records, 5)

	t.Run("headers matched case-insensitively", func(t *testing.T) {
		r := records[0]
		assert.Equal(t, 101, r.FID)
		assert.Equal(t, 59.963, r.Latitude)
		assert.Equal(t, -128.171, r.Longitude)
		assert.Equal(t, "BC", r.Agency)
		assert.Equal(t, "L", r.Cause)
		assert.Equal(t, 25.7, r.SizeHa)
		assert.Equal(t, "Boreal Cordillera", r.Ecozone)
	})

	t.Run("date formats", func(t *testing.T) {
		assert.Equal(t, time.Date(1981, 5, 26, 0, 0, 0, 0, time.UTC), records[0].ReportDate)
		assert.True(t, records[1].ReportDate.IsZero(), "empty date parses to zero time")
		assert.Equal(t, time.Date(1995, 4, 30, 0, 0, 0, 0, time.UTC), records[4].ReportDate)
	})

	t.Run("missing values become sentinels", func(t *testing.T) {
		r := records[2]
		assert.Equal(t, 103, r.FID)
		assert.Empty(t, r.Cause, "cause left empty for the cleaner to default")
		assert.Equal(t, domain.EcozoneMissing, r.Ecozone)
	})

	t.Run("raw values preserved for the cleaner", func(t *testing.T) {
		// Positive longitude and zero latitude pass through untouched;
		// cleaning is not the reader's business.
		assert.Equal(t, 115.37, records[3].Longitude)
		assert.Equal(t, 0.0, records[2].Latitude)
	})
}

func TestSource_ReadRecords_HeaderOnly(t *testing.T) {
	// A snapshot with no fires is a valid input, not a corrupt file.
	path := filepath.Join(t.TempDir(), "empty.csv")
	header := "FID,REP_DATE,LATITUDE,LONGITUDE,SRC_AGENCY,CAUSE,SIZE_HA,ECOZ_NAME\n"
	require.NoError(t, os.WriteFile(path, []byte(header), 0o644))

	records, err := NewSource(path, testLogger()).ReadRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSource_ReadRecords_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewSource(filepath.Join("testdata", "no_such.csv"), testLogger()).ReadRecords()
		require.Error(t, err)
	})

	t.Run("missing required column", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("FID,LATITUDE\n1,50.0\n"), 0o644))

		_, err := NewSource(path, testLogger()).ReadRecords()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REP_DATE")
	})

	t.Run("header-only with missing column", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad_empty.csv")
		require.NoError(t, os.WriteFile(path, []byte("FID,LATITUDE\n"), 0o644))

		_, err := NewSource(path, testLogger()).ReadRecords()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REP_DATE")
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "zero.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := NewSource(path, testLogger()).ReadRecords()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no header row")
	})
}

func TestSink_WriteFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	sink := NewSink(path, testLogger())

	rows := []domain.FeatureRow{
		{
			FireRecord: domain.FireRecord{
				FID:        101,
				Latitude:   59.963,
				Longitude:  -128.171,
				ReportDate: time.Date(1981, 5, 26, 0, 0, 0, 0, time.UTC),
				Agency:     "BC",
				Cause:      "L",
				SizeHa:     25.7,
				Ecozone:    "Boreal Cordillera",
				Year:       1981, Month: 5, Day: 26, Weekday: 1,
				Decade: "80s", Region: "BC", SizeClass: "medium",
			},
			Weather: domain.WeatherFeatures{
				FID: 101, PrecipTotal: 12.5, TempMaxMean: 18.2,
				TempMaxLastDay: 24.1, TempMeanMean: 11.0,
				WindMaxLastDay: 32.4, WindDirLastDay: 270,
			},
			WeatherMatched: true,
		},
	}

	require.NoError(t, sink.WriteFeatures(rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(featureHeader, ","), lines[0])
	assert.Contains(t, lines[1], "101")
	assert.Contains(t, lines[1], "1981-05-26")
	assert.Contains(t, lines[1], "true")
}

func TestSink_WriteFeatures_EmptyTable(t *testing.T) {
	// A drop-policy run where nothing was enriched still writes a valid,
	// header-only table.
	path := filepath.Join(t.TempDir(), "features.csv")
	sink := NewSink(path, testLogger())

	require.NoError(t, sink.WriteFeatures([]domain.FeatureRow{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, strings.Join(featureHeader, ","), lines[0])
}
