// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package service is the operation surface shared by the HTTP adapter and
// any other front end: read the dashboard or a store's KPI, force or reset
// the caches, and trigger a staleness check.
package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/cache"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/models"
	"github.com/tomtom215/retailpulse/internal/refresh"
)

// Deps are the components a Service coordinates.
type Deps struct {
	Dashboard    *cache.DashboardCache
	StoreKpi     *cache.StoreKpiStore
	Orchestrator *refresh.Orchestrator

	// Loader answers dashboard requests for today's date at a given hour,
	// which bypass the cache.
	Loader cache.PayloadLoader

	// Location decides which calendar day "today" is; defaults to UTC.
	Location *time.Location

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Service exposes the cache and refresh operations.
type Service struct {
	dashboard *cache.DashboardCache
	storeKpi  *cache.StoreKpiStore
	orch      *refresh.Orchestrator
	loader    cache.PayloadLoader
	loc       *time.Location
	clock     clockwork.Clock
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	return &Service{
		dashboard: d.Dashboard,
		storeKpi:  d.StoreKpi,
		orch:      d.Orchestrator,
		loader:    d.Loader,
		loc:       d.Location,
		clock:     d.Clock,
	}
}

// GetDashboard returns the dashboard payload.
//
//   - forDate on a past day: the day's payload, computed once and kept.
//   - forDate on today: a fresh query as of forDate's hour, not cached.
//   - refresh: the current payload is recomputed before it is returned.
//   - otherwise: the cached payload, after a staleness check.
//
// A forDate in the future is treated like any other day that is not today.
func (s *Service) GetDashboard(ctx context.Context, forceRefresh bool, forDate *time.Time) (*models.DashboardPayload, error) {
	if forDate != nil {
		mode := analytics.Resolve(forDate, s.now())
		if mode.IsAsOf() {
			return s.loader.Load(ctx, mode)
		}
		return s.dashboard.GetForDate(ctx, *forDate)
	}

	if forceRefresh {
		logging.Ctx(ctx).Info().Str("component", "service").Msg("Forced dashboard refresh")
		return s.dashboard.Put(ctx)
	}

	s.orch.RefreshIfStale(ctx)
	return s.dashboard.Get(ctx)
}

// ResetDashboard drops the current dashboard payload. Historical days are
// kept.
func (s *Service) ResetDashboard() {
	s.dashboard.Evict()
}

// GetStoreKpi returns the KPI of one store.
//
// A forDate always queries the source directly. Without one, a staleness
// check runs first and the store is then re-fetched (refresh) or read from
// the cache. Unknown stores yield models.ErrNotFound.
func (s *Service) GetStoreKpi(ctx context.Context, storeID int, forceRefresh bool, forDate *time.Time) (*models.StoreKpi, error) {
	if forDate != nil {
		return s.storeKpi.GetForDate(ctx, storeID, *forDate)
	}

	s.orch.RefreshIfStale(ctx)
	if forceRefresh {
		return s.storeKpi.RefreshOne(ctx, storeID)
	}
	return s.storeKpi.Get(ctx, storeID)
}

// ResetAllStoreKpi drops every store; the next read warms the map again.
func (s *Service) ResetAllStoreKpi() {
	s.storeKpi.EvictAll()
}

// RefreshIfStale refreshes both regions when they are stale and reports
// whether it did.
func (s *Service) RefreshIfStale(ctx context.Context) bool {
	return s.orch.RefreshIfStale(ctx)
}

// LastRefresh returns when the caches were last refreshed.
func (s *Service) LastRefresh() time.Time {
	return s.orch.LastRefresh()
}

// RefreshInterval returns the staleness interval.
func (s *Service) RefreshInterval() time.Duration {
	return s.orch.Interval()
}

// CacheStats returns the counters of every cache region keyed by name.
func (s *Service) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		cache.NameDashboard:        s.dashboard.Stats(),
		cache.NameDashboardHistory: s.dashboard.HistoryStats(),
		cache.NameStoreKpi:         s.storeKpi.Stats(),
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}
