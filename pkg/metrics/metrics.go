// Package metrics provides Prometheus instrumentation for the
// assistant backend.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestLatency tracks end-to-end latency per agent operation.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_request_latency_seconds",
			Help:    "End-to-end agent request latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"agent", "operation", "cache_status"},
	)

	// RequestsTotal counts completed requests by agent operation and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_total",
			Help: "Total agent requests by outcome.",
		},
		[]string{"agent", "operation", "status"},
	)

	// ParseFailuresTotal counts structured outputs the parser could not decode.
	ParseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structured_parse_failures_total",
			Help: "Model outputs that failed structured parsing, by failure kind.",
		},
		[]string{"agent", "kind"},
	)

	// CacheHitsTotal counts response cache hits.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of response cache hits.",
		},
	)

	// CacheLookupsTotal counts response cache lookups.
	CacheLookupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of response cache lookups.",
		},
	)

	// CacheHitRatio is hits/lookups, recomputed per lookup. Prometheus
	// can derive it in queries; the gauge is kept for dashboards.
	CacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Current response cache hit ratio (hits / lookups).",
		},
	)

	// CircuitBreakerState exposes the backend breaker: 0=closed, 1=open, 2=half-open.
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Generation backend circuit breaker state: 0=closed, 1=open, 2=half-open.",
		},
	)

	// ActiveRequests tracks in-flight agent requests.
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_requests",
			Help: "Number of currently in-flight agent requests.",
		},
	)

	// SpeakingSessionsActive tracks open speaking practice sessions.
	SpeakingSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speaking_sessions_active",
			Help: "Number of currently open speaking practice sessions.",
		},
	)

	totalHits    atomic.Int64
	totalLookups atomic.Int64
)

// RecordCacheLookup records one cache lookup and refreshes the ratio gauge.
func RecordCacheLookup(hit bool) {
	CacheLookupsTotal.Inc()
	lookups := totalLookups.Add(1)

	hits := totalHits.Load()
	if hit {
		CacheHitsTotal.Inc()
		hits = totalHits.Add(1)
	}
	CacheHitRatio.Set(float64(hits) / float64(lookups))
}
