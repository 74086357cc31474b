package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pyrelab/fireweather-etl/internal/domain"
	"github.com/pyrelab/fireweather-etl/internal/observability"
)

// RecordSource reads the raw fire records from the input dataset.
type RecordSource interface {
	ReadRecords() ([]domain.FireRecord, error)
}

// EnrichmentStore persists fetched weather documents keyed by FID.
type EnrichmentStore interface {
	Upsert(ctx context.Context, doc domain.WeatherDoc) error
	Exists(ctx context.Context, fid int) (bool, error)
	FetchAll(ctx context.Context) ([]domain.WeatherDoc, error)
}

// ArchiveProvider fetches the daily weather series for one location and window.
type ArchiveProvider interface {
	FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) (domain.WeatherDoc, error)
}

// FeatureWriter writes the final feature table.
type FeatureWriter interface {
	WriteFeatures(rows []domain.FeatureRow) error
}

// FeaturePublisher emits finished feature rows to downstream consumers.
// Optional; a nil publisher disables the step.
type FeaturePublisher interface {
	PublishFeatures(ctx context.Context, rows []domain.FeatureRow) error
}

// Options carries the tunable stage parameters.
type Options struct {
	ImputeK         int
	JoinPolicy      string // "flag" or "drop"
	RepeatPrecision int    // decimal places for repeat grouping; -1 = exact
	Link            LinkOptions
}

// Pipeline orchestrates the ingest-clean-enrich-link-join run.
type Pipeline struct {
	source    RecordSource
	store     EnrichmentStore
	archive   ArchiveProvider
	writer    FeatureWriter
	publisher FeaturePublisher
	rules     domain.GeoRules
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(source RecordSource, store EnrichmentStore, archive ArchiveProvider, writer FeatureWriter, publisher FeaturePublisher, rules domain.GeoRules, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:    source,
		store:     store,
		archive:   archive,
		writer:    writer,
		publisher: publisher,
		rules:     rules,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the input dataset has been read,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("ingestion has not completed yet")
	}
	return nil
}

// Run executes the full pipeline once. Per-row problems are dropped and
// counted; only structural failures (unreadable input, unreachable store,
// unwritable output) abort the run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	records, err := p.ingest()
	if err != nil {
		return err
	}

	records = p.prepare(records)

	repeats := p.analyzeRepeats(records)
	p.logger.Info("repeat locations analyzed",
		"sites", len(repeats), "precision", p.opts.RepeatPrecision)

	report, err := p.linkWeather(ctx, records)
	if err != nil {
		return err
	}
	p.logger.Info("weather linking finished",
		"enriched", report.Enriched, "skipped", report.Skipped, "failed", report.Failed)

	rows, err := p.join(ctx, records)
	if err != nil {
		return err
	}

	return p.emit(ctx, rows)
}

// ingest reads the raw dataset and flips the readiness flag.
func (p *Pipeline) ingest() ([]domain.FireRecord, error) {
	start := time.Now()
	records, err := p.source.ReadRecords()
	if err != nil {
		return nil, fmt.Errorf("reading input records: %w", err)
	}
	p.observeStage("ingest", start)

	p.metrics.RowsIngested.Add(float64(len(records)))
	p.ready.Store(true)
	p.logger.Info("records ingested", "rows", len(records))
	return records, nil
}

// prepare runs the in-memory stages: clean, geo-filter, impute, enrich.
func (p *Pipeline) prepare(records []domain.FireRecord) []domain.FireRecord {
	start := time.Now()
	records, cleanStats := domain.Clean(records)
	p.observeStage("clean", start)
	p.metrics.RowsDropped.WithLabelValues("no_date").Add(float64(cleanStats.DroppedNoDate))
	p.metrics.RowsDropped.WithLabelValues("zero_lat").Add(float64(cleanStats.DroppedZeroLat))
	p.logger.Info("records cleaned",
		"kept", cleanStats.Kept,
		"dropped_no_date", cleanStats.DroppedNoDate,
		"dropped_zero_lat", cleanStats.DroppedZeroLat,
		"defaulted_cause", cleanStats.DefaultedCause,
		"sign_corrections", cleanStats.SignCorrections,
	)

	start = time.Now()
	before := len(records)
	records = p.rules.Filter(records)
	p.observeStage("geofilter", start)
	p.metrics.RowsDropped.WithLabelValues("geo_excluded").Add(float64(before - len(records)))
	p.logger.Info("geo filter applied", "excluded", before-len(records), "kept", len(records))

	start = time.Now()
	imputeStats := domain.ImputeEcozones(records, p.opts.ImputeK)
	p.observeStage("impute", start)
	p.metrics.RowsImputed.Add(float64(imputeStats.Imputed))
	p.metrics.RowsUnresolved.Add(float64(len(imputeStats.Unresolved)))
	if len(imputeStats.Unresolved) > 0 {
		p.logger.Warn("ecozone imputation left rows unresolved",
			"count", len(imputeStats.Unresolved))
	}
	p.logger.Info("ecozones imputed", "imputed", imputeStats.Imputed, "k", p.opts.ImputeK)

	start = time.Now()
	records, failures := domain.EnrichFeatures(records)
	p.observeStage("features", start)
	p.metrics.RowsDropped.WithLabelValues("feature_boundary").Add(float64(len(failures)))
	for _, f := range failures {
		p.logger.Warn("feature derivation failed, dropping row", "fid", f.FID, "error", f.Err)
	}
	p.logger.Info("features enriched", "rows", len(records), "dropped", len(failures))

	return records
}

// analyzeRepeats runs the repeat-location side analysis. Its output is
// reported, never merged back into the main table.
func (p *Pipeline) analyzeRepeats(records []domain.FireRecord) []domain.RepeatLocation {
	start := time.Now()
	repeats := domain.RepeatLocations(records, p.opts.RepeatPrecision)
	p.observeStage("repeats", start)
	return repeats
}

// join fetches the stored weather documents, reshapes each daily series to
// scalar features, and joins them onto the fire records by FID.
func (p *Pipeline) join(ctx context.Context, records []domain.FireRecord) ([]domain.FeatureRow, error) {
	start := time.Now()
	docs, err := p.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching weather documents: %w", err)
	}

	features := make(map[int]domain.WeatherFeatures, len(docs))
	for _, doc := range docs {
		wf, err := domain.ReshapeWeather(doc)
		if err != nil {
			p.logger.Warn("stored weather document is unusable, skipping",
				"fid", doc.FID, "error", err)
			continue
		}
		features[wf.FID] = wf
	}

	rows := make([]domain.FeatureRow, 0, len(records))
	for _, r := range records {
		wf, ok := features[r.FID]
		if !ok {
			p.metrics.JoinRows.WithLabelValues("unmatched").Inc()
			if p.opts.JoinPolicy == "drop" {
				continue
			}
			rows = append(rows, domain.FeatureRow{FireRecord: r})
			continue
		}
		p.metrics.JoinRows.WithLabelValues("matched").Inc()
		rows = append(rows, domain.FeatureRow{FireRecord: r, Weather: wf, WeatherMatched: true})
	}
	p.observeStage("join", start)
	p.logger.Info("weather joined", "rows", len(rows), "documents", len(docs), "policy", p.opts.JoinPolicy)

	return rows, nil
}

// emit writes the feature table and, when configured, publishes the rows.
func (p *Pipeline) emit(ctx context.Context, rows []domain.FeatureRow) error {
	start := time.Now()
	if err := p.writer.WriteFeatures(rows); err != nil {
		return fmt.Errorf("writing feature table: %w", err)
	}
	p.observeStage("write", start)
	p.logger.Info("feature table written", "rows", len(rows))

	if p.publisher == nil {
		return nil
	}
	if err := p.publisher.PublishFeatures(ctx, rows); err != nil {
		return fmt.Errorf("publishing feature rows: %w", err)
	}
	p.logger.Info("feature rows published", "rows", len(rows))
	return nil
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
