// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks API request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total API requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	// CacheHitsTotal tracks cache hits, by freshness of the served entry.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Query cache hits",
		},
		[]string{"state"},
	)

	// CacheMissesTotal tracks cache misses that triggered a fetch.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Query cache misses",
		},
	)

	// CacheEvictionsTotal tracks LRU evictions.
	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_evictions_total",
			Help: "Query cache LRU evictions",
		},
	)

	// CacheEntries tracks the current number of cached entries.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "query_cache_entries",
			Help: "Number of entries in the query cache",
		},
	)

	// DedupedFetchesTotal tracks fetches coalesced onto an in-flight call.
	DedupedFetchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "query_cache_deduped_fetches_total",
			Help: "Fetches coalesced onto an identical in-flight request",
		},
	)

	// OptimisticRollbacksTotal tracks optimistic updates rolled back on failure.
	OptimisticRollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimistic_rollbacks_total",
			Help: "Optimistic cache updates rolled back after a failed mutation",
		},
		[]string{"key"},
	)

	// PollTicksTotal tracks assistant update-poll requests.
	PollTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_poll_ticks_total",
			Help: "Assistant conversation poll requests",
		},
		[]string{"outcome"},
	)

	// RateLimitWaitsTotal tracks rate-limit countdowns started.
	RateLimitWaitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_waits_total",
			Help: "Rate-limit countdowns started after a 429 response",
		},
	)
)

// RecordRequest records metrics for an API request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCacheHit records a cache hit in the given state ("fresh" or "stale").
func RecordCacheHit(state string) {
	CacheHitsTotal.WithLabelValues(state).Inc()
}

// RecordRollback records an optimistic rollback for a cache key.
func RecordRollback(key string) {
	OptimisticRollbacksTotal.WithLabelValues(key).Inc()
}
