// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/metrics"
	"github.com/tomtom215/retailpulse/internal/models"
)

// DefaultInterval is the staleness interval used when none is configured.
const DefaultInterval = time.Hour

// DashboardRefresher recomputes the current dashboard payload.
// cache.DashboardCache implements it.
type DashboardRefresher interface {
	Put(ctx context.Context) (*models.DashboardPayload, error)
}

// StoreKpiRefresher reloads every store KPI.
// cache.StoreKpiStore implements it.
type StoreKpiRefresher interface {
	RefreshAll(ctx context.Context) error
}

// Config configures an Orchestrator.
type Config struct {
	// Interval after which the cached regions count as stale.
	Interval time.Duration

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Orchestrator owns the staleness clock of both cache regions.
//
// A single mutex serializes RefreshAll and the slow path of RefreshIfStale,
// so at most one refresh cycle runs at a time. Readers of the caches are
// never blocked by it.
type Orchestrator struct {
	dashboard DashboardRefresher
	stores    StoreKpiRefresher
	interval  time.Duration
	clock     clockwork.Clock

	mu sync.Mutex

	// lastRefresh is written under mu and read lock-free. Zero means never,
	// which is always stale.
	lastRefresh atomic.Int64
}

// NewOrchestrator creates an orchestrator that has never refreshed.
func NewOrchestrator(dashboard DashboardRefresher, stores StoreKpiRefresher, cfg Config) *Orchestrator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		dashboard: dashboard,
		stores:    stores,
		interval:  cfg.Interval,
		clock:     cfg.Clock,
	}
}

// RefreshAll recomputes both regions, then marks them fresh.
//
// A failing region is logged and counted but does not stop the other one,
// and its previous cached value stays in place. Errors are never returned:
// the refresh is a background concern. A call arriving while another cycle
// runs waits for it and then runs its own.
func (o *Orchestrator) RefreshAll(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshLocked(ctx)
}

// RefreshIfStale runs RefreshAll when the interval has elapsed since the
// last refresh and reports whether it did.
//
// Callers that queue behind an in-flight refresh re-check staleness once
// they hold the lock, so they observe that refresh instead of starting a
// second one.
func (o *Orchestrator) RefreshIfStale(ctx context.Context) bool {
	if !o.stale() {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.stale() {
		return false
	}
	o.refreshLocked(ctx)
	return true
}

// LastRefresh returns when the last refresh cycle finished, or the zero
// time when none has.
func (o *Orchestrator) LastRefresh() time.Time {
	ns := o.lastRefresh.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Interval returns the staleness interval.
func (o *Orchestrator) Interval() time.Duration {
	return o.interval
}

func (o *Orchestrator) stale() bool {
	last := o.LastRefresh()
	if last.IsZero() {
		return true
	}
	return o.clock.Since(last) >= o.interval
}

// refreshLocked detaches from the caller's cancellation: a client hanging up
// must not leave a region half refreshed yet marked fresh. The source's query
// timeout still bounds each call.
func (o *Orchestrator) refreshLocked(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(context.WithoutCancel(ctx))
	log := logging.Ctx(ctx).With().Str("component", "refresh").Logger()
	start := o.clock.Now()

	okDashboard := o.runRegion(ctx, &log, metrics.RegionDashboard, func(ctx context.Context) error {
		_, err := o.dashboard.Put(ctx)
		return err
	})
	okStores := o.runRegion(ctx, &log, metrics.RegionStoreKpi, o.stores.RefreshAll)

	now := o.clock.Now()
	o.lastRefresh.Store(now.UnixNano())

	log.Info().
		Bool("dashboard_ok", okDashboard).
		Bool("store_kpi_ok", okStores).
		Dur("duration", now.Sub(start)).
		Msg("Refresh cycle completed")
}

func (o *Orchestrator) runRegion(ctx context.Context, log *zerolog.Logger, region string, fn func(context.Context) error) bool {
	start := time.Now()
	err := fn(ctx)
	dur := time.Since(start)
	metrics.RecordRefresh(region, dur, err)

	if err != nil {
		log.Warn().Err(err).Str("region", region).Dur("duration", dur).Msg("Region refresh failed, keeping previous value")
		return false
	}
	log.Debug().Str("region", region).Dur("duration", dur).Msg("Region refreshed")
	return true
}
