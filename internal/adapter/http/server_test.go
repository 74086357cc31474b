package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/pyrelab/fireweather-etl/internal/adapter/http"
	"github.com/pyrelab/fireweather-etl/internal/domain"
	"github.com/pyrelab/fireweather-etl/internal/observability"
	"github.com/pyrelab/fireweather-etl/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("ingestion has not completed"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "ingestion has not completed", body["error"])
}

// The pipeline itself is the readiness checker in production; stub out its
// dependencies and verify /readyz tracks ingestion.
type emptySource struct{}

func (emptySource) ReadRecords() ([]domain.FireRecord, error) { return nil, nil }

type noopStore struct{}

func (noopStore) Upsert(context.Context, domain.WeatherDoc) error { return nil }
func (noopStore) Exists(context.Context, int) (bool, error)       { return false, nil }
func (noopStore) FetchAll(context.Context) ([]domain.WeatherDoc, error) {
	return nil, nil
}

type noopArchive struct{}

func (noopArchive) FetchDaily(context.Context, float64, float64, time.Time, time.Time) (domain.WeatherDoc, error) {
	return domain.WeatherDoc{}, nil
}

type noopWriter struct{}

func (noopWriter) WriteFeatures([]domain.FeatureRow) error { return nil }

func TestReadyzFlipsAfterIngestion(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(emptySource{}, noopStore{}, noopArchive{}, noopWriter{}, nil,
		domain.DefaultGeoRules(),
		pipeline.Options{
			ImputeK:         5,
			JoinPolicy:      "flag",
			RepeatPrecision: -1,
			Link:            pipeline.LinkOptions{Workers: 1, MaxAttempts: 1},
		},
		logger, observability.NewMetricsForTesting())
	srv := httpadapter.NewServer(":0", p, logger)

	readyz := func() int {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusServiceUnavailable, readyz(), "not ready before the run ingests")

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, http.StatusOK, readyz(), "ready once ingestion has completed")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
