// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package cache

import (
	"context"
	"fmt"
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

// StoreKpiConfig configures a StoreKpiStore.
type StoreKpiConfig struct {
	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Location decides whether a requested date is today; defaults to UTC.
	Location *time.Location
}

// StoreKpiStore caches per-store KPI records keyed by store id.
//
// The whole map comes from a single source call: every query returns all
// stores, so a refresh replaces the map wholesale and a per-store refresh
// still costs one full query.
type StoreKpiStore struct {
	source analytics.Source
	clock  clockwork.Clock
	loc    *time.Location
	logger zerolog.Logger

	mu      sync.RWMutex
	entries map[int]*models.StoreKpi

	// gen is bumped by EvictAll under mu. A fetch that started in an older
	// generation must not publish into the cleared map.
	gen atomic.Uint64

	warmed atomic.Bool
	group  singleflight.Group
	stats  counters
}

// NewStoreKpiStore creates an empty, unwarmed store.
func NewStoreKpiStore(source analytics.Source, cfg StoreKpiConfig) *StoreKpiStore {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &StoreKpiStore{
		source:  source,
		clock:   cfg.Clock,
		loc:     cfg.Location,
		logger:  logging.WithComponent("storekpi"),
		entries: make(map[int]*models.StoreKpi),
		stats:   counters{name: NameStoreKpi},
	}
}

// Get returns the KPI of one store.
//
// The first call after construction or EvictAll warms the whole map with a
// single query; concurrent first callers wait for that query instead of
// issuing their own. A store missing from the map triggers a full fetch and
// only that store is cached. Unknown stores yield models.ErrNotFound.
func (s *StoreKpiStore) Get(ctx context.Context, storeID int) (*models.StoreKpi, error) {
	s.warmIfNeeded(ctx)

	if k, ok := s.lookup(storeID); ok {
		s.stats.hit()
		return k, nil
	}
	s.stats.miss()

	gen := s.gen.Load()
	rows, err := s.fetch(ctx, analytics.AsOf(s.now()))
	if err != nil {
		return nil, err
	}
	k := MapStoreKpi(findStoreRow(rows, storeID))
	if k == nil {
		return nil, notFound(storeID)
	}

	s.mu.Lock()
	if s.gen.Load() == gen {
		s.entries[k.StoreID] = k
	}
	n := len(s.entries)
	s.mu.Unlock()
	metrics.SetCacheEntries(NameStoreKpi, n)
	return k, nil
}

// GetForDate returns the KPI of one store for a given date, bypassing the
// cache. A date on today is queried as of that hour.
func (s *StoreKpiStore) GetForDate(ctx context.Context, storeID int, date time.Time) (*models.StoreKpi, error) {
	rows, err := s.fetch(ctx, analytics.Resolve(&date, s.now()))
	if err != nil {
		return nil, err
	}
	k := MapStoreKpi(findStoreRow(rows, storeID))
	if k == nil {
		return nil, notFound(storeID)
	}
	return k, nil
}

// RefreshOne re-fetches all stores and replaces the entry of storeID only.
// A store no longer reported by the source is evicted and ErrNotFound is
// returned.
func (s *StoreKpiStore) RefreshOne(ctx context.Context, storeID int) (*models.StoreKpi, error) {
	gen := s.gen.Load()
	rows, err := s.fetch(ctx, analytics.AsOf(s.now()))
	if err != nil {
		return nil, err
	}

	k := MapStoreKpi(findStoreRow(rows, storeID))

	s.mu.Lock()
	switch {
	case k == nil:
		delete(s.entries, storeID)
	case s.gen.Load() == gen:
		s.entries[storeID] = k
	}
	n := len(s.entries)
	s.mu.Unlock()
	metrics.SetCacheEntries(NameStoreKpi, n)

	if k == nil {
		return nil, notFound(storeID)
	}
	return k, nil
}

// RefreshAll fetches all stores and swaps in a new map. On failure the
// current map stays authoritative. A batch fetched across an EvictAll is
// dropped, leaving the store empty and unwarmed.
func (s *StoreKpiStore) RefreshAll(ctx context.Context) error {
	gen := s.gen.Load()
	rows, err := s.fetch(ctx, analytics.AsOf(s.now()))
	if err != nil {
		return err
	}

	next := buildEntries(rows)

	s.mu.Lock()
	if s.gen.Load() != gen {
		s.mu.Unlock()
		logging.Ctx(ctx).Debug().Msg("Store KPI batch dropped, cache evicted during refresh")
		return nil
	}
	s.entries = next
	s.warmed.Store(true)
	s.mu.Unlock()
	metrics.SetCacheEntries(NameStoreKpi, len(next))

	logging.Ctx(ctx).Debug().Int("stores", len(next)).Msg("Store KPI map replaced")
	return nil
}

// EvictOne drops a single store.
func (s *StoreKpiStore) EvictOne(storeID int) {
	s.mu.Lock()
	delete(s.entries, storeID)
	n := len(s.entries)
	s.mu.Unlock()
	metrics.SetCacheEntries(NameStoreKpi, n)
}

// EvictAll drops every store and clears the warm flag, so the next Get
// warms again.
func (s *StoreKpiStore) EvictAll() {
	s.mu.Lock()
	s.gen.Add(1)
	s.entries = make(map[int]*models.StoreKpi)
	s.warmed.Store(false)
	s.mu.Unlock()
	metrics.SetCacheEntries(NameStoreKpi, 0)
}

// Warmed reports whether the initial warm has completed, successfully or not.
func (s *StoreKpiStore) Warmed() bool {
	return s.warmed.Load()
}

// Len returns the number of cached stores.
func (s *StoreKpiStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns the lookup counters.
func (s *StoreKpiStore) Stats() Stats {
	return s.stats.snapshot(s.Len())
}

// warmIfNeeded loads the full map once. The warm flag is published only
// after the query returns, so readers arriving meanwhile join the in-flight
// call. It is set even when the query fails; later reads then go through the
// per-store fallback. An EvictAll during the query discards the warm, so the
// next read warms again.
func (s *StoreKpiStore) warmIfNeeded(ctx context.Context) {
	if s.warmed.Load() {
		return
	}
	_, _, _ = s.group.Do("warm", func() (any, error) {
		if s.warmed.Load() {
			return nil, nil
		}
		gen := s.gen.Load()

		rows, err := s.fetch(context.WithoutCancel(ctx), analytics.AsOf(s.now()))
		var next map[int]*models.StoreKpi
		if err == nil {
			next = buildEntries(rows)
		}

		s.mu.Lock()
		if s.gen.Load() != gen {
			s.mu.Unlock()
			s.logger.Debug().Msg("Store KPI warm discarded, cache evicted meanwhile")
			return nil, nil
		}
		for id, k := range next {
			s.entries[id] = k
		}
		s.warmed.Store(true)
		n := len(s.entries)
		s.mu.Unlock()

		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("component", "storekpi").Msg("Store KPI warm failed")
			return nil, err
		}
		metrics.SetCacheEntries(NameStoreKpi, n)
		s.logger.Info().Int("stores", len(next)).Msg("Store KPI cache warmed")
		return nil, nil
	})
}

func (s *StoreKpiStore) lookup(storeID int) (*models.StoreKpi, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.entries[storeID]
	return k, ok
}

func (s *StoreKpiStore) fetch(ctx context.Context, mode analytics.Mode) ([]analytics.Row, error) {
	rows, err := s.source.QueryStoreKpi(ctx, mode)
	if err != nil {
		return nil, models.SourceError("query store kpi "+mode.String(), err)
	}
	return rows, nil
}

func (s *StoreKpiStore) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func buildEntries(rows []analytics.Row) map[int]*models.StoreKpi {
	out := make(map[int]*models.StoreKpi, len(rows))
	for _, r := range rows {
		k := MapStoreKpi(r)
		if k == nil || k.StoreID == 0 {
			continue
		}
		out[k.StoreID] = k
	}
	return out
}

// findStoreRow returns the row of storeID. Ids <= 0 never match, as rows
// with a missing or malformed StoreId map to 0.
func findStoreRow(rows []analytics.Row, storeID int) analytics.Row {
	if storeID <= 0 {
		return nil
	}
	for _, r := range rows {
		if r.Int("StoreId") == storeID {
			return r
		}
	}
	return nil
}

func notFound(storeID int) error {
	return fmt.Errorf("store %d: %w", storeID, models.ErrNotFound)
}

// MapStoreKpi converts one store KPI row. An empty row yields nil; missing
// or malformed columns become zero or "".
func MapStoreKpi(r analytics.Row) *models.StoreKpi {
	if len(r) == 0 {
		return nil
	}
	return &models.StoreKpi{
		StoreID:         r.Int("StoreId"),
		StoreName:       r.String("StoreName"),
		RevenueToday:    r.Decimal("RevenueToday"),
		RevenuePY:       r.Decimal("RevenuePY"),
		TxToday:         r.Int("TxToday"),
		TxPY:            r.Int("TxPY"),
		AvgBasketToday:  r.Decimal("AvgBasketToday"),
		AvgBasketPY:     r.Decimal("AvgBasketPY"),
		RevenueDiff:     r.Decimal("RevenueDiff"),
		RevenuePct:      r.Decimal("RevenuePct"),
		TxDiff:          r.Int("TxDiff"),
		TxPct:           r.Decimal("TxPct"),
		AvgBasketDiff:   r.Decimal("AvgBasketDiff"),
		PeakHour:        r.Int("PeakHour"),
		PeakHourLabel:   r.String("PeakHourLabel"),
		PeakHourRevenue: r.Decimal("PeakHourRevenue"),
		TopArtCode:      r.String("TopArtCode"),
		TopArtRevenue:   r.Decimal("TopArtRevenue"),
		TopArtName:      r.String("TopArtName"),
	}
}
