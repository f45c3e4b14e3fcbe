// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package database

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/config"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/metrics"
)

// BreakerName labels the analytics source breaker in metrics and logs.
const BreakerName = "analytics-source"

// BreakerSource wraps an analytics.Source with a circuit breaker. While the
// breaker is open calls fail fast with gobreaker.ErrOpenState and the caches
// keep serving their last good payload.
//
// The breaker uses real time for its interval and timeout. Tests drive it
// through failure counts rather than the clock.
type BreakerSource struct {
	source analytics.Source
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewBreakerSource wraps source using the breaker settings in cfg.
func NewBreakerSource(source analytics.Source, cfg *config.BreakerConfig) *BreakerSource {
	name := BreakerName

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio < ratio {
				return false
			}
			logging.Warn().
				Str("breaker", name).
				Uint32("failures", counts.TotalFailures).
				Float64("failure_rate", failureRatio*100).
				Msg("Opening circuit")
			return true
		},

		// A caller giving up is not a database failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerSource{source: source, cb: cb, name: name}
}

// QueryDashboard implements analytics.Source.
func (b *BreakerSource) QueryDashboard(ctx context.Context, mode analytics.Mode) (analytics.ResultSets, error) {
	res, err := b.execute(func() (any, error) {
		return b.source.QueryDashboard(ctx, mode)
	})
	if err != nil {
		return analytics.ResultSets{}, err
	}
	rs, ok := res.(analytics.ResultSets)
	if !ok {
		return analytics.ResultSets{}, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return rs, nil
}

// QueryStoreKpi implements analytics.Source.
func (b *BreakerSource) QueryStoreKpi(ctx context.Context, mode analytics.Mode) ([]analytics.Row, error) {
	res, err := b.execute(func() (any, error) {
		return b.source.QueryStoreKpi(ctx, mode)
	})
	if err != nil {
		return nil, err
	}
	rows, ok := res.([]analytics.Row)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return rows, nil
}

// State returns the current breaker state as "closed", "half-open" or "open".
func (b *BreakerSource) State() string {
	return stateToString(b.cb.State())
}

func (b *BreakerSource) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Debug().Str("breaker", b.name).Err(err).Msg("Request rejected by circuit breaker")
			return nil, err
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		counts := b.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
