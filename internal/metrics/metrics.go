// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package metrics provides Prometheus instrumentation for the
// recommendation service: ranking latency, cache efficiency, invalidation
// throughput, event processing, and signal store health.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking Metrics

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_ranking_duration_seconds",
			Help:    "Duration of recommendation ranking in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"algorithm"},
	)

	RankingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_ranking_errors_total",
			Help: "Total number of ranking failures",
		},
		[]string{"algorithm", "error_type"},
	)

	ColdStartFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cold_start_fallbacks_total",
			Help: "Total number of requests answered by the cold-start ranker after insufficient data",
		},
	)

	// Recommendation Cache Metrics

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
		[]string{"algorithm", "freshness"}, // freshness: fresh, stale
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
		[]string{"algorithm"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_cache_entries",
			Help: "Current number of cached recommendation lists",
		},
	)

	CacheStaleWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_stale_writes_total",
			Help: "Total number of cache writes discarded for carrying a superseded generation",
		},
	)

	// Invalidation Metrics

	Invalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_invalidations_total",
			Help: "Total number of cache invalidations applied",
		},
		[]string{"scope"}, // scope: user, movie, global
	)

	// Similarity Metrics

	SimilarityComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_computations_total",
			Help: "Total number of user similarity computations",
		},
		[]string{"metric", "outcome"}, // outcome: ok, insufficient_data, error
	)

	SimilarityCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_cache_hits_total",
			Help: "Total number of similarity pair cache hits",
		},
	)

	SimilarityCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_cache_misses_total",
			Help: "Total number of similarity pair cache misses",
		},
	)

	// Event Processing Metrics

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_received_total",
			Help: "Total number of catalog events received from the bus",
		},
		[]string{"topic"},
	)

	EventsMalformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_malformed_total",
			Help: "Total number of catalog events that failed to parse or validate",
		},
		[]string{"topic"},
	)

	EventProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_event_processing_duration_seconds",
			Help:    "Time from event receipt to invalidation applied",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"signal"},
	)

	PartitionQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "invalidation_partition_queue_depth",
			Help: "Current number of events waiting on each ordered partition",
		},
		[]string{"partition"},
	)

	// Recompute Pool Metrics

	RecomputeJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recompute_jobs_total",
			Help: "Total number of background recompute jobs by outcome",
		},
		[]string{"outcome"}, // outcome: completed, failed, dropped, superseded
	)

	RecomputeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recompute_queue_depth",
			Help: "Current number of pending background recompute jobs",
		},
	)

	// Signal Store Metrics

	SignalStoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_store_query_duration_seconds",
			Help:    "Duration of signal store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	SignalStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_store_errors_total",
			Help: "Total number of signal store query failures",
		},
		[]string{"query", "error_type"},
	)

	SignalStoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_store_breaker_state",
			Help: "Circuit breaker state guarding the signal store (0=closed, 1=half-open, 2=open)",
		},
	)

	// API Metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Sharing Metrics

	SharedRecommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shared_recommendations_total",
			Help: "Total number of recommendation share operations by outcome",
		},
		[]string{"outcome"}, // outcome: created, duplicate, error
	)

	InteractionsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_tracked_total",
			Help: "Total number of user interactions recorded",
		},
		[]string{"kind"},
	)
)

// RecordRanking records a completed ranking run.
func RecordRanking(algorithm string, duration time.Duration, err error) {
	if err != nil {
		RankingErrors.WithLabelValues(algorithm, errorType(err)).Inc()
		return
	}
	RankingDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// RecordSignalStoreQuery records a signal store query outcome.
func RecordSignalStoreQuery(query string, duration time.Duration, err error) {
	if err != nil {
		SignalStoreErrors.WithLabelValues(query, errorType(err)).Inc()
		return
	}
	SignalStoreQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// errorType buckets errors into coarse categories to keep label cardinality low.
func errorType(err error) string {
	if err == nil {
		return "none"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "circuit breaker is open"):
		return "breaker_open"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no reachable servers"):
		return "connection"
	default:
		return "other"
	}
}
