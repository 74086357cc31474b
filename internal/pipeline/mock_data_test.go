package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// --- mocks ---

type mockSource struct {
	records []domain.FireRecord
	err     error
}

func (m *mockSource) ReadRecords() ([]domain.FireRecord, error) {
	return m.records, m.err
}

type mockStore struct {
	mu       sync.Mutex
	docs     map[float64]domain.WeatherDoc
	existing map[int]bool

	existsErr error
	upsertErr error
	fetchErr  error
	upserts   int
}

func newMockStore() *mockStore {
	return &mockStore{
		docs:     make(map[float64]domain.WeatherDoc),
		existing: make(map[int]bool),
	}
}

func (m *mockStore) Exists(_ context.Context, fid int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[fid], nil
}

func (m *mockStore) Upsert(_ context.Context, doc domain.WeatherDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.docs[doc.FID] = doc
	return nil
}

func (m *mockStore) FetchAll(_ context.Context) ([]domain.WeatherDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	docs := make([]domain.WeatherDoc, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	return docs, nil
}

type mockArchive struct {
	calls atomic.Int64
	fetch func(ctx context.Context, lat, lon float64, start, end time.Time) (domain.WeatherDoc, error)
}

func (m *mockArchive) FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) (domain.WeatherDoc, error) {
	m.calls.Add(1)
	if m.fetch != nil {
		return m.fetch(ctx, lat, lon, start, end)
	}
	return goodDoc(start, end), nil
}

type mockWriter struct {
	mu   sync.Mutex
	rows []domain.FeatureRow
	err  error
}

func (m *mockWriter) WriteFeatures(rows []domain.FeatureRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append([]domain.FeatureRow(nil), rows...)
	return nil
}

type mockPublisher struct {
	mu   sync.Mutex
	rows []domain.FeatureRow
	err  error
}

func (m *mockPublisher) PublishFeatures(_ context.Context, rows []domain.FeatureRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append([]domain.FeatureRow(nil), rows...)
	return nil
}

// transientFailure behaves like a rate-limit or 5xx response.
type transientFailure struct{}

func (transientFailure) Error() string   { return "upstream says try again" }
func (transientFailure) Transient() bool { return true }

// --- fixtures ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// goodDoc builds a well-formed weather document covering [start, end].
func goodDoc(start, end time.Time) domain.WeatherDoc {
	days := int(end.Sub(start).Hours()/24) + 1
	series := domain.DailySeries{
		Time:            make([]string, days),
		TempMax:         make([]float64, days),
		TempMean:        make([]float64, days),
		PrecipSum:       make([]float64, days),
		WindSpeedMax:    make([]float64, days),
		WindDirDominant: make([]float64, days),
	}
	for i := 0; i < days; i++ {
		series.Time[i] = start.AddDate(0, 0, i).Format(domain.DateLayout)
		series.TempMax[i] = 20 + float64(i)
		series.TempMean[i] = 15 + float64(i)
		series.PrecipSum[i] = float64(i)
		series.WindSpeedMax[i] = 10
		series.WindDirDominant[i] = 180
	}
	return domain.WeatherDoc{Elevation: 650, Daily: series}
}

// fireFixture returns a record well inside mainland Canada with every
// feature input populated.
func fireFixture(fid int) domain.FireRecord {
	return domain.FireRecord{
		FID:        fid,
		Latitude:   53.9,
		Longitude:  -122.7 - float64(fid%7)*0.01,
		ReportDate: time.Date(2005, time.July, 10+fid%10, 0, 0, 0, 0, time.UTC),
		Agency:     "BC",
		Cause:      "L",
		SizeHa:     12.5,
		Ecozone:    fmt.Sprintf("Zone-%d", fid%3),
	}
}

func fireFixtures(n int) []domain.FireRecord {
	records := make([]domain.FireRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, fireFixture(i + 1))
	}
	return records
}
