package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// wildfire enrichment pipeline.
type Metrics struct {
	RowsIngested    prometheus.Counter
	RowsDropped     *prometheus.CounterVec // labels: reason={no_date,zero_lat,geo_excluded,feature_boundary}
	RowsImputed     prometheus.Counter
	RowsUnresolved  prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Stage timing.
	StageDuration *prometheus.HistogramVec // labels: stage

	// Weather enrichment metrics.
	EnrichRequests *prometheus.CounterVec // labels: outcome={success,skipped,unavailable,failed}
	EnrichDuration prometheus.Histogram

	// Join metrics.
	JoinRows *prometheus.CounterVec // labels: outcome={matched,unmatched}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "rows_ingested_total",
			Help:      "Total rows read from the input snapshot.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows removed by cleaning, geographic filtering, or feature derivation.",
		}, []string{"reason"}),
		RowsImputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "rows_imputed_total",
			Help:      "Rows whose missing ecozone was filled by the spatial imputer.",
		}),
		RowsUnresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "rows_unresolved_total",
			Help:      "Rows whose ecozone could not be imputed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fire_etl",
			Name:      "pipeline_running",
			Help:      "1 while the pipeline is active, 0 when finished.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fire_etl",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30, 60, 300, 1800, 7200},
		}, []string{"stage"}),
		EnrichRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "enrich_requests_total",
			Help:      "Weather enrichment attempts by outcome.",
		}, []string{"outcome"}),
		EnrichDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_etl",
			Name:      "enrich_duration_seconds",
			Help:      "Archive API request duration per attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		JoinRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "join_rows_total",
			Help:      "Final join results by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.RowsIngested,
		m.RowsDropped,
		m.RowsImputed,
		m.RowsUnresolved,
		m.PipelineRunning,
		m.StageDuration,
		m.EnrichRequests,
		m.EnrichDuration,
		m.JoinRows,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsIngested:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fire_etl", Name: "rows_ingested_total"}),
		RowsDropped:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fire_etl", Name: "rows_dropped_total"}, []string{"reason"}),
		RowsImputed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fire_etl", Name: "rows_imputed_total"}),
		RowsUnresolved:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fire_etl", Name: "rows_unresolved_total"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "fire_etl", Name: "pipeline_running"}),
		StageDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "fire_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
		EnrichRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fire_etl", Name: "enrich_requests_total"}, []string{"outcome"}),
		EnrichDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "fire_etl", Name: "enrich_duration_seconds"}),
		JoinRows:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fire_etl", Name: "join_rows_total"}, []string{"outcome"}),
	}
}
