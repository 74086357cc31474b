package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// LinkOptions tunes the weather linking stage.
type LinkOptions struct {
	// Workers is the number of concurrent fetchers.
	Workers int
	// MaxAttempts caps fetch attempts per record. Only transient errors
	// are retried.
	MaxAttempts int
	// SkipExisting skips records that already have a stored document,
	// making reruns cheap and idempotent.
	SkipExisting bool
}

// LinkFailure records one record the linker could not enrich.
type LinkFailure struct {
	FID    int
	Reason string
}

// LinkReport summarizes a linking run.
type LinkReport struct {
	Enriched int
	Skipped  int
	Failed   int
	Failures []LinkFailure
}

// transientError is satisfied by adapter errors worth retrying.
type transientError interface {
	Transient() bool
}

type linkOutcome struct {
	outcome string // success, skipped, unavailable, failed
	failure *LinkFailure
}

// linkWeather fetches and stores the lookback-window weather series for every
// record, using a bounded worker pool. A failed record never aborts the run;
// it is counted and reported. Only context cancellation stops the pool early.
func (p *Pipeline) linkWeather(ctx context.Context, records []domain.FireRecord) (LinkReport, error) {
	start := time.Now()
	defer p.observeStage("link", start)

	jobs := make(chan domain.FireRecord)
	outcomes := make(chan linkOutcome)

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Link.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				outcomes <- p.linkOne(ctx, r)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, r := range records {
			select {
			case jobs <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var report LinkReport
	for o := range outcomes {
		p.metrics.EnrichRequests.WithLabelValues(o.outcome).Inc()
		switch o.outcome {
		case "success":
			report.Enriched++
		case "skipped":
			report.Skipped++
		default:
			report.Failed++
			if o.failure != nil {
				report.Failures = append(report.Failures, *o.failure)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// linkOne enriches a single record: skip if already stored, otherwise fetch
// the lookback window with retries and upsert the document by FID.
func (p *Pipeline) linkOne(ctx context.Context, r domain.FireRecord) linkOutcome {
	if p.opts.Link.SkipExisting {
		exists, err := p.store.Exists(ctx, r.FID)
		if err != nil {
			p.logger.Warn("existence check failed", "fid", r.FID, "error", err)
			return linkOutcome{outcome: "failed", failure: &LinkFailure{FID: r.FID, Reason: "exists: " + err.Error()}}
		}
		if exists {
			return linkOutcome{outcome: "skipped"}
		}
	}

	doc, err := p.fetchWithRetry(ctx, r)
	if err != nil {
		outcome := "failed"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, context.Canceled) {
			outcome = "unavailable"
		}
		p.logger.Warn("weather fetch failed", "fid", r.FID, "error", err)
		return linkOutcome{outcome: outcome, failure: &LinkFailure{FID: r.FID, Reason: err.Error()}}
	}

	doc.FID = float64(r.FID)
	doc.FetchedAt = domain.Now()

	if err := p.store.Upsert(ctx, doc); err != nil {
		p.logger.Warn("weather upsert failed", "fid", r.FID, "error", err)
		return linkOutcome{outcome: "failed", failure: &LinkFailure{FID: r.FID, Reason: "upsert: " + err.Error()}}
	}
	return linkOutcome{outcome: "success"}
}

// fetchWithRetry calls the archive with exponential backoff, retrying only
// errors that report themselves transient (rate limiting, 5xx).
func (p *Pipeline) fetchWithRetry(ctx context.Context, r domain.FireRecord) (domain.WeatherDoc, error) {
	windowStart, windowEnd := domain.LookbackWindow(r.ReportDate)

	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var lastErr error
	for attempt := 1; attempt <= p.opts.Link.MaxAttempts; attempt++ {
		fetchStart := time.Now()
		doc, err := p.archive.FetchDaily(ctx, r.Latitude, r.Longitude, windowStart, windowEnd)
		p.metrics.EnrichDuration.Observe(time.Since(fetchStart).Seconds())
		if err == nil {
			return doc, nil
		}
		lastErr = err

		var te transientError
		if !errors.As(err, &te) || !te.Transient() {
			return domain.WeatherDoc{}, err
		}
		if attempt == p.opts.Link.MaxAttempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return domain.WeatherDoc{}, ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return domain.WeatherDoc{}, lastErr
}
