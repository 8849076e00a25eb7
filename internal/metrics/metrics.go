// Package metrics holds the prometheus collectors updated by the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracescope"

// Metrics groups the engine's collectors.
type Metrics struct {
	TracesOpened       prometheus.Counter
	OpenFailures       prometheus.Counter
	IndexCacheHits     prometheus.Counter
	FramesIndexed      prometheus.Counter
	CallsScanned       prometheus.Counter
	FramesMaterialized prometheus.Counter
	CallsMaterialized  prometheus.Counter
	IndexCorruptions   prometheus.Counter
	Searches           *prometheus.CounterVec
	SearchDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TracesOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_opened_total",
			Help:      "Total number of traces opened successfully.",
		}),
		OpenFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_failures_total",
			Help:      "Total number of traces that could not be opened.",
		}),
		IndexCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_cache_hits_total",
			Help:      "Total number of opens served from a saved frame index.",
		}),
		FramesIndexed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_indexed_total",
			Help:      "Total number of frames added to the index.",
		}),
		CallsScanned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_scanned_total",
			Help:      "Total number of calls decoded while indexing or loading.",
		}),
		FramesMaterialized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_materialized_total",
			Help:      "Total number of frames whose calls were loaded on demand.",
		}),
		CallsMaterialized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_materialized_total",
			Help:      "Total number of calls loaded on demand.",
		}),
		IndexCorruptions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_corruptions_total",
			Help:      "Total number of index/content mismatches detected.",
		}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches by direction and outcome.",
		}, []string{"direction", "status"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent per search.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"direction"}),
	}
}
