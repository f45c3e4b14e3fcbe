// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/metrics"
	"github.com/tomtom215/retailpulse/internal/models"
)

// PayloadLoader computes a dashboard payload for a query mode.
// dashboard.Repository implements it.
type PayloadLoader interface {
	Load(ctx context.Context, mode analytics.Mode) (*models.DashboardPayload, error)
}

// DashboardConfig configures a DashboardCache.
type DashboardConfig struct {
	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Location decides calendar days; defaults to UTC.
	Location *time.Location

	// History optionally persists historical payloads. Nil keeps them in
	// memory only.
	History HistoryStore
}

// DashboardCache holds the current dashboard payload and historical
// payloads keyed by day.
type DashboardCache struct {
	loader  PayloadLoader
	clock   clockwork.Clock
	loc     *time.Location
	history HistoryStore
	logger  zerolog.Logger

	current atomic.Pointer[models.DashboardPayload]
	group   singleflight.Group

	mu   sync.RWMutex
	days map[string]*models.DashboardPayload

	stats        counters
	historyStats counters
}

// NewDashboardCache creates an empty cache over loader.
func NewDashboardCache(loader PayloadLoader, cfg DashboardConfig) *DashboardCache {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &DashboardCache{
		loader:       loader,
		clock:        cfg.Clock,
		loc:          cfg.Location,
		history:      cfg.History,
		logger:       logging.WithComponent("dashboard-cache"),
		days:         make(map[string]*models.DashboardPayload),
		stats:        counters{name: NameDashboard},
		historyStats: counters{name: NameDashboardHistory},
	}
}

// Get returns the current payload, loading it when absent.
//
// Concurrent callers that miss share one load. A failed load leaves the
// cache empty and returns an error matching models.ErrSourceUnavailable.
func (c *DashboardCache) Get(ctx context.Context) (*models.DashboardPayload, error) {
	if p := c.current.Load(); p != nil {
		c.stats.hit()
		return p, nil
	}
	c.stats.miss()

	v, err, _ := c.group.Do(NameDashboard, func() (any, error) {
		if p := c.current.Load(); p != nil {
			return p, nil
		}
		p, err := c.loader.Load(context.WithoutCancel(ctx), analytics.AsOf(c.now()))
		if err != nil {
			return nil, err
		}
		// A concurrent Put wins over this lazily loaded value.
		if !c.current.CompareAndSwap(nil, p) {
			if cur := c.current.Load(); cur != nil {
				return cur, nil
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DashboardPayload), nil
}

// Put recomputes the current payload and replaces it. On failure the
// previous payload stays in place.
func (c *DashboardCache) Put(ctx context.Context) (*models.DashboardPayload, error) {
	p, err := c.loader.Load(ctx, analytics.AsOf(c.now()))
	if err != nil {
		return nil, err
	}
	c.current.Store(p)
	metrics.SetCacheEntries(NameDashboard, 1)
	return p, nil
}

// Evict drops the current payload. Historical payloads are kept.
func (c *DashboardCache) Evict() {
	c.current.Store(nil)
	metrics.SetCacheEntries(NameDashboard, 0)
}

// Current returns the cached payload without loading.
func (c *DashboardCache) Current() (*models.DashboardPayload, bool) {
	p := c.current.Load()
	return p, p != nil
}

// GetForDate returns the complete payload of a past calendar day.
//
// The day is computed once and then served from memory, falling back to the
// history store after a restart. Historical payloads never go stale.
func (c *DashboardCache) GetForDate(ctx context.Context, date time.Time) (*models.DashboardPayload, error) {
	date = date.In(c.loc)
	day := analytics.DateKey(date)

	c.mu.RLock()
	p, ok := c.days[day]
	c.mu.RUnlock()
	if ok {
		c.historyStats.hit()
		return p, nil
	}
	c.historyStats.miss()

	v, err, _ := c.group.Do("day:"+day, func() (any, error) {
		c.mu.RLock()
		p, ok := c.days[day]
		c.mu.RUnlock()
		if ok {
			return p, nil
		}

		loadCtx := context.WithoutCancel(ctx)
		if p := c.fromHistory(loadCtx, day); p != nil {
			c.remember(day, p)
			return p, nil
		}

		p, err := c.loader.Load(loadCtx, analytics.ForDate(date))
		if err != nil {
			return nil, err
		}
		c.remember(day, p)
		c.toHistory(loadCtx, day, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DashboardPayload), nil
}

func (c *DashboardCache) fromHistory(ctx context.Context, day string) *models.DashboardPayload {
	if c.history == nil {
		return nil
	}
	p, ok, err := c.history.Get(ctx, day)
	if err != nil {
		c.logger.Warn().Err(err).Str("day", day).Msg("History store read failed")
		return nil
	}
	if !ok {
		return nil
	}
	return p
}

func (c *DashboardCache) toHistory(ctx context.Context, day string, p *models.DashboardPayload) {
	if c.history == nil {
		return
	}
	if err := c.history.Put(ctx, day, p); err != nil {
		c.logger.Warn().Err(err).Str("day", day).Msg("History store write failed")
	}
}

func (c *DashboardCache) remember(day string, p *models.DashboardPayload) {
	c.mu.Lock()
	c.days[day] = p
	n := len(c.days)
	c.mu.Unlock()
	metrics.SetCacheEntries(NameDashboardHistory, n)
}

// Stats returns the counters of the current-payload region.
func (c *DashboardCache) Stats() Stats {
	n := 0
	if c.current.Load() != nil {
		n = 1
	}
	return c.stats.snapshot(n)
}

// HistoryStats returns the counters of the per-day region.
func (c *DashboardCache) HistoryStats() Stats {
	c.mu.RLock()
	n := len(c.days)
	c.mu.RUnlock()
	return c.historyStats.snapshot(n)
}

func (c *DashboardCache) now() time.Time {
	return c.clock.Now().In(c.loc)
}
