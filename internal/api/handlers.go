// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/retailpulse/internal/cache"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/metrics"
	"github.com/tomtom215/retailpulse/internal/models"
)

// Service is the operation surface the handlers call. *service.Service
// implements it.
type Service interface {
	GetDashboard(ctx context.Context, forceRefresh bool, forDate *time.Time) (*models.DashboardPayload, error)
	ResetDashboard()
	GetStoreKpi(ctx context.Context, storeID int, forceRefresh bool, forDate *time.Time) (*models.StoreKpi, error)
	ResetAllStoreKpi()
	LastRefresh() time.Time
	RefreshInterval() time.Duration
	CacheStats() map[string]cache.Stats
}

// Pinger checks that the analytics source is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater reports a circuit breaker state ("closed", "open", ...).
type BreakerStater interface {
	State() string
}

// HandlerConfig holds the handler dependencies. Only Service is required.
type HandlerConfig struct {
	Service Service

	// Source is pinged by the readiness probe; nil counts as reachable.
	Source Pinger

	// Breaker, when set, is reported by the readiness probe.
	Breaker BreakerStater

	// Throttle caps refresh=true requests; nil means unlimited.
	Throttle *RefreshThrottle

	// Location is the zone forDate values without an offset are read in.
	Location *time.Location
}

// Handler serves the dashboard, store KPI and health endpoints.
type Handler struct {
	svc       Service
	source    Pinger
	breaker   BreakerStater
	throttle  *RefreshThrottle
	loc       *time.Location
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Handler{
		svc:       cfg.Service,
		source:    cfg.Source,
		breaker:   cfg.Breaker,
		throttle:  cfg.Throttle,
		loc:       cfg.Location,
		startTime: time.Now(),
	}
}

// DashboardMetrics handles GET /api/v1/dashboard/metrics.
//
// Query parameters:
//   - refresh: recompute the current payload before returning it
//   - forDate: a past day (cached per day) or a time today (uncached, as of
//     that hour)
func (h *Handler) DashboardMetrics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	opts, ok := h.bindDashboard(rw, r)
	if !ok {
		return
	}
	if opts.forced() && !h.allowForcedRefresh(rw, w) {
		return
	}

	payload, err := h.svc.GetDashboard(r.Context(), opts.refresh, opts.forDate)
	if err != nil {
		writeServiceError(rw, r, err)
		return
	}
	rw.Success(payload)
}

// ResetDashboard handles POST /api/v1/dashboard/metrics/reset.
func (h *Handler) ResetDashboard(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetDashboard()
	logging.Ctx(r.Context()).Info().Msg("Dashboard cache reset")
	NewResponseWriter(w, r).NoContent()
}

// StoreKpi handles GET /api/v1/stores/{storeId}/kpi.
func (h *Handler) StoreKpi(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	storeID, opts, ok := h.bindStoreKpi(rw, r)
	if !ok {
		return
	}
	if opts.forced() && !h.allowForcedRefresh(rw, w) {
		return
	}

	kpi, err := h.svc.GetStoreKpi(r.Context(), storeID, opts.refresh, opts.forDate)
	if err != nil {
		writeServiceError(rw, r, err)
		return
	}
	rw.Success(kpi)
}

// ResetStoreKpi handles POST /api/v1/stores/kpi/reset.
func (h *Handler) ResetStoreKpi(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetAllStoreKpi()
	logging.Ctx(r.Context()).Info().Msg("Store KPI cache reset")
	NewResponseWriter(w, r).NoContent()
}

// allowForcedRefresh consumes a throttle token or writes the 429.
func (h *Handler) allowForcedRefresh(rw *ResponseWriter, w http.ResponseWriter) bool {
	if h.throttle.Allow() {
		return true
	}
	metrics.RecordRateLimitHit("forced_refresh")
	w.Header().Set("Retry-After", strconv.Itoa(h.throttle.RetryAfterSeconds()))
	rw.Error(http.StatusTooManyRequests, ErrCodeRefreshThrottled, "too many forced refreshes, try again later")
	return false
}
