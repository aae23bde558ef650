package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fetch-normalize-cache pipeline.
type Metrics struct {
	FetchesTotal  prometheus.Counter
	FetchErrors   prometheus.Counter
	FetchDuration prometheus.Histogram

	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheInvalidations prometheus.Counter

	// CoercionFailures counts cell-level failures by kind={numeric,timestamp}.
	CoercionFailures *prometheus.CounterVec

	SnapshotRows  prometheus.Gauge
	LastFetchTime prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toll_weather",
			Name:      "sheet_fetches_total",
			Help:      "Total fetch attempts against the published sheet.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toll_weather",
			Name:      "sheet_fetch_errors_total",
			Help:      "Total failed fetch attempts (network, non-200, malformed CSV).",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "toll_weather",
			Name:      "sheet_fetch_duration_seconds",
			Help:      "Duration of a fetch-and-normalize cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toll_weather",
			Name:      "snapshot_cache_hits_total",
			Help:      "Snapshot reads served from the cache within the TTL.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toll_weather",
			Name:      "snapshot_cache_misses_total",
			Help:      "Snapshot reads that triggered an upstream fetch.",
		}),
		CacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toll_weather",
			Name:      "snapshot_cache_invalidations_total",
			Help:      "Explicit cache invalidations (manual refresh).",
		}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toll_weather",
			Name:      "cell_coercion_failures_total",
			Help:      "Cells degraded to null during normalization, by kind.",
		}, []string{"kind"}),
		SnapshotRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "toll_weather",
			Name:      "snapshot_rows",
			Help:      "Row count of the current normalized snapshot.",
		}),
		LastFetchTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "toll_weather",
			Name:      "snapshot_last_fetch_timestamp_seconds",
			Help:      "Unix time of the last successful fetch.",
		}),
	}

	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchErrors,
		m.FetchDuration,
		m.CacheHits,
		m.CacheMisses,
		m.CacheInvalidations,
		m.CoercionFailures,
		m.SnapshotRows,
		m.LastFetchTime,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchesTotal:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "toll_weather", Name: "sheet_fetches_total"}),
		FetchErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "toll_weather", Name: "sheet_fetch_errors_total"}),
		FetchDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "toll_weather", Name: "sheet_fetch_duration_seconds"}),
		CacheHits:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "toll_weather", Name: "snapshot_cache_hits_total"}),
		CacheMisses:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "toll_weather", Name: "snapshot_cache_misses_total"}),
		CacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "toll_weather", Name: "snapshot_cache_invalidations_total"}),
		CoercionFailures:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "toll_weather", Name: "cell_coercion_failures_total"}, []string{"kind"}),
		SnapshotRows:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "toll_weather", Name: "snapshot_rows"}),
		LastFetchTime:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "toll_weather", Name: "snapshot_last_fetch_timestamp_seconds"}),
	}
}
