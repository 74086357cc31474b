//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/pyrelab/fireweather-etl/internal/adapter/csvfile"
	"github.com/pyrelab/fireweather-etl/internal/adapter/mongostore"
	"github.com/pyrelab/fireweather-etl/internal/adapter/openmeteo"
	"github.com/pyrelab/fireweather-etl/internal/domain"
	"github.com/pyrelab/fireweather-etl/internal/observability"
	"github.com/pyrelab/fireweather-etl/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startMongo runs a throwaway MongoDB container and returns its URI.
func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "start mongodb container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return uri
}

// archiveStub serves well-formed daily series and counts requests.
func archiveStub(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		start, err := time.Parse(domain.DateLayout, r.URL.Query().Get("start_date"))
		require.NoError(t, err)
		end, err := time.Parse(domain.DateLayout, r.URL.Query().Get("end_date"))
		require.NoError(t, err)
		days := int(end.Sub(start).Hours()/24) + 1

		times := make([]string, days)
		values := make([]string, days)
		for i := 0; i < days; i++ {
			times[i] = fmt.Sprintf("%q", start.AddDate(0, 0, i).Format(domain.DateLayout))
			values[i] = fmt.Sprintf("%.1f", float64(i))
		}
		series := strings.Join(values, ",")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"latitude": %s, "longitude": %s, "elevation": 650.0,
			"daily": {
				"time": [%s],
				"temperature_2m_max": [%s],
				"temperature_2m_mean": [%s],
				"precipitation_sum": [%s],
				"windspeed_10m_max": [%s],
				"winddirection_10m_dominant": [%s]
			}
		}`, r.URL.Query().Get("latitude"), r.URL.Query().Get("longitude"),
			strings.Join(times, ","), series, series, series, series, series)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// TestMongoStore verifies the store adapter against real MongoDB: upserts by
// FID are idempotent and round-trip through FetchAll.
func TestMongoStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	uri := startMongo(ctx, t)
	store, err := mongostore.Connect(ctx, uri, "fire_etl_test", "weather", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	doc := domain.WeatherDoc{
		FID:       42,
		Latitude:  53.9,
		Longitude: -122.7,
		Elevation: 650,
		Daily: domain.DailySeries{
			Time:            []string{"2005-07-01"},
			TempMax:         []float64{21},
			TempMean:        []float64{16},
			PrecipSum:       []float64{0.4},
			WindSpeedMax:    []float64{12},
			WindDirDominant: []float64{200},
		},
		FetchedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	exists, err := store.Exists(ctx, 42)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upsert(ctx, doc))

	// A second upsert for the same FID replaces, never duplicates.
	doc.Elevation = 700
	require.NoError(t, store.Upsert(ctx, doc))

	exists, err = store.Exists(ctx, 42)
	require.NoError(t, err)
	assert.True(t, exists)

	docs, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, float64(42), docs[0].FID)
	assert.Equal(t, 700.0, docs[0].Elevation)
	assert.Equal(t, doc.Daily, docs[0].Daily)
}

// TestPipelineEndToEnd runs the full pipeline against real MongoDB and a stub
// weather archive: CSV in, enriched feature CSV out, reruns skip stored FIDs.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	uri := startMongo(ctx, t)
	store, err := mongostore.Connect(ctx, uri, "fire_etl_test", "weather", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	archive, calls := archiveStub(t)
	client := openmeteo.NewRateLimited(
		openmeteo.NewClient(archive.URL, 10*time.Second, discardLogger()), 100, 10)

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "fires.csv")
	outputPath := filepath.Join(dir, "features.csv")

	input := strings.Join([]string{
		"FID,REP_DATE,LATITUDE,LONGITUDE,SRC_AGENCY,CAUSE,SIZE_HA,ECOZ_NAME",
		"1,2005-07-10 00:00:00,53.9,-122.7,BC,L,12.5,Boreal Cordillera",
		"2,2005-07-11 00:00:00,54.1,-122.9,BC,H,230.0,Boreal Cordillera",
		"3,2005-07-12 00:00:00,53.7,-122.5,BC,U,3.1,Boreal Cordillera",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	opts := pipeline.Options{
		ImputeK:         5,
		JoinPolicy:      "flag",
		RepeatPrecision: -1,
		Link: pipeline.LinkOptions{
			Workers:      2,
			MaxAttempts:  3,
			SkipExisting: true,
		},
	}

	newRun := func() *pipeline.Pipeline {
		return pipeline.New(
			csvfile.NewSource(inputPath, discardLogger()),
			store,
			client,
			csvfile.NewSink(outputPath, discardLogger()),
			nil,
			domain.DefaultGeoRules(),
			opts,
			discardLogger(),
			observability.NewMetricsForTesting(),
		)
	}

	require.NoError(t, newRun().Run(ctx))
	assert.Equal(t, int64(3), calls.Load(), "one archive request per record")

	docs, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	out, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4, "header plus three feature rows")
	assert.Contains(t, lines[0], "FID")
	assert.Contains(t, lines[0], "PRECIP_TOTAL")

	// Rerunning must skip every already-stored FID.
	require.NoError(t, newRun().Run(ctx))
	assert.Equal(t, int64(3), calls.Load(), "rerun must not refetch stored records")

	docs, err = store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 3, "rerun must not duplicate documents")
}
