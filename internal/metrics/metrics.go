// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package metrics exposes the Prometheus instrumentation of RetailPulse.
//
// All collectors are registered on the default registry through promauto and
// served by promhttp on /metrics. Prefer the Record* helpers over touching
// the vectors directly so label sets stay consistent.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Region labels.
const (
	RegionDashboard = "dashboard"
	RegionStoreKpi  = "store_kpi"
)

var (
	// Refresh Metrics
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailpulse_refresh_duration_seconds",
			Help:    "Duration of cache region refreshes in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"region"},
	)

	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailpulse_refresh_total",
			Help: "Total number of cache region refreshes by outcome",
		},
		[]string{"region", "outcome"}, // outcome: "success", "failure"
	)

	RefreshLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retailpulse_refresh_last_success_timestamp_seconds",
			Help: "Unix time of the last successful refresh per region",
		},
		[]string{"region"},
	)

	RefreshSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retailpulse_refresh_skipped_total",
			Help: "Staleness checks that found the caches fresh",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailpulse_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // "dashboard", "dashboard_history", "store_kpi"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailpulse_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retailpulse_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)

	// Source Metrics
	SourceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailpulse_source_query_duration_seconds",
			Help:    "Duration of analytical source queries in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation", "mode"}, // mode: "as_of", "for_date"
	)

	SourceQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailpulse_source_query_errors_total",
			Help: "Total number of failed analytical source queries",
		},
		[]string{"operation", "error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
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
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordRefresh records one region refresh.
func RecordRefresh(region string, duration time.Duration, err error) {
	RefreshDuration.WithLabelValues(region).Observe(duration.Seconds())
	if err != nil {
		RefreshTotal.WithLabelValues(region, "failure").Inc()
		return
	}
	RefreshTotal.WithLabelValues(region, "success").Inc()
	RefreshLastSuccess.WithLabelValues(region).SetToCurrentTime()
}

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// SetCacheEntries publishes the current entry count of the named cache.
func SetCacheEntries(cache string, n int) {
	CacheEntries.WithLabelValues(cache).Set(float64(n))
}

// RecordSourceQuery records one analytical query.
func RecordSourceQuery(operation, mode string, duration time.Duration, err error) {
	SourceQueryDuration.WithLabelValues(operation, mode).Observe(duration.Seconds())
	if err != nil {
		SourceQueryErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

// errorType buckets errors into a small label set.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "query"
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitHit records a rejected request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}
