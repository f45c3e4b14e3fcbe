// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/retailpulse/internal/cache"
	"github.com/tomtom215/retailpulse/internal/logging"
)

// readyPingTimeout bounds the source ping of the readiness probe.
const readyPingTimeout = 3 * time.Second

// ReadyStatus is the readiness probe body.
type ReadyStatus struct {
	Ready           bool                   `json:"ready"`
	SourceConnected bool                   `json:"source_connected"`
	BreakerState    string                 `json:"breaker_state,omitempty"`
	LastRefresh     *time.Time             `json:"last_refresh,omitempty"`
	RefreshAge      float64                `json:"refresh_age_seconds,omitempty"`
	RefreshInterval float64                `json:"refresh_interval_seconds"`
	RefreshStale    bool                   `json:"refresh_stale"`
	Caches          map[string]cache.Stats `json:"caches"`
	Uptime          float64                `json:"uptime"`
}

// HealthLive handles GET /api/v1/health/live. It only reports that the
// process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready.
//
// Ready means the analytics source answers a ping. A refresh older than
// twice the interval is flagged as stale but does not fail the probe: the
// next read refreshes it, and cached data is still served meanwhile.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := ReadyStatus{
		SourceConnected: h.pingSource(r.Context()),
		RefreshInterval: h.svc.RefreshInterval().Seconds(),
		Caches:          h.svc.CacheStats(),
		Uptime:          time.Since(h.startTime).Seconds(),
	}
	status.Ready = status.SourceConnected
	if h.breaker != nil {
		status.BreakerState = h.breaker.State()
	}

	if last := h.svc.LastRefresh(); !last.IsZero() {
		age := time.Since(last)
		status.LastRefresh = &last
		status.RefreshAge = age.Seconds()
		status.RefreshStale = age > 2*h.svc.RefreshInterval()
	}

	if !status.Ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeSourceUnavailable, "analytics source unreachable", status)
		return
	}
	rw.Success(status)
}

func (h *Handler) pingSource(ctx context.Context) bool {
	if h.source == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, readyPingTimeout)
	defer cancel()

	if err := h.source.Ping(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Readiness ping failed")
		return false
	}
	return true
}
