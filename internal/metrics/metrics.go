// Package metrics holds the prometheus collectors of the stream pipeline.
// Components take a *Metrics that may be nil.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "streamhub"

type Metrics struct {
	AdapterResults    *prometheus.CounterVec
	AdapterFailures   *prometheus.CounterVec
	AdapterDuration   *prometheus.HistogramVec
	EarlyExits        prometheus.Counter
	FilterRejections  *prometheus.CounterVec
	DedupCollapsed    prometheus.Counter
	DebridChecks      *prometheus.CounterVec
	DebridCached      *prometheus.CounterVec
	AggregateDuration prometheus.Histogram
	StreamsReturned   prometheus.Histogram
	ResponseCacheHits *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests rely on.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AdapterResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_results_total",
			Help:      "Raw results returned per source adapter.",
		}, []string{"source"}),
		AdapterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_failures_total",
			Help:      "Source adapter calls that failed, timed out or panicked.",
		}, []string{"source", "type"}),
		AdapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_duration_seconds",
			Help:      "Source adapter call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		EarlyExits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_early_exits_total",
			Help:      "Aggregations that stopped waiting once enough high resolution results arrived.",
		}),
		FilterRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_rejections_total",
			Help:      "Results rejected by the filter, by reason.",
		}, []string{"reason"}),
		DedupCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_collapsed_total",
			Help:      "Results dropped as duplicates.",
		}),
		DebridChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debrid_checks_total",
			Help:      "Debrid cache-check calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		DebridCached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debrid_cached_hashes_total",
			Help:      "Hashes reported cached by provider.",
		}, []string{"provider"}),
		AggregateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "End to end GetStreams latency.",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		}),
		StreamsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "streams_returned",
			Help:      "Ranked streams returned per request.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		ResponseCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Stream response cache lookups by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AdapterResults,
			m.AdapterFailures,
			m.AdapterDuration,
			m.EarlyExits,
			m.FilterRejections,
			m.DedupCollapsed,
			m.DebridChecks,
			m.DebridCached,
			m.AggregateDuration,
			m.StreamsReturned,
			m.ResponseCacheHits,
		)
	}
	return m
}
