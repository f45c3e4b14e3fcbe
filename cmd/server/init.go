// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package main

import (
	"fmt"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/api"
	"github.com/tomtom215/retailpulse/internal/cache"
	"github.com/tomtom215/retailpulse/internal/config"
	"github.com/tomtom215/retailpulse/internal/dashboard"
	"github.com/tomtom215/retailpulse/internal/database"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/refresh"
	"github.com/tomtom215/retailpulse/internal/service"
)

// sourceHandle is the analytics source as the rest of the process sees it:
// the raw SQL source, optionally wrapped in a circuit breaker.
type sourceHandle struct {
	sql     *database.SQLSource
	guarded *database.BreakerSource
	source  analytics.Source
	pinger  api.Pinger
}

func initSource(cfg *config.Config) (*sourceHandle, error) {
	sqlSource, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	h := &sourceHandle{sql: sqlSource, source: sqlSource, pinger: sqlSource}
	if cfg.Breaker.Enabled {
		h.guarded = database.NewBreakerSource(sqlSource, &cfg.Breaker)
		h.source = h.guarded
		logging.Info().
			Uint32("min_requests", cfg.Breaker.MinRequests).
			Float64("failure_ratio", cfg.Breaker.FailureRatio).
			Dur("open_timeout", cfg.Breaker.Timeout).
			Msg("Circuit breaker enabled for analytics source")
	}
	return h, nil
}

// breaker returns the breaker for the readiness probe, or a nil interface
// when none is configured.
func (h *sourceHandle) breaker() api.BreakerStater {
	if h.guarded == nil {
		return nil
	}
	return h.guarded
}

func (h *sourceHandle) close() {
	if err := h.sql.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing analytics source")
	}
}

// components are the caches and the refresh machinery built on a source.
type components struct {
	history      *cache.BadgerHistoryStore
	orchestrator *refresh.Orchestrator
	scheduler    *refresh.Scheduler
	service      *service.Service
}

func initComponents(cfg *config.Config, src *sourceHandle) (*components, error) {
	loc := cfg.Refresh.Location()
	c := &components{}

	dashCfg := cache.DashboardConfig{Location: loc}
	if cfg.Cache.HistoryEnabled && cfg.Cache.HistoryPath != "" {
		history, err := cache.OpenBadgerHistoryStore(cfg.Cache.HistoryPath)
		if err != nil {
			return nil, err
		}
		c.history = history
		dashCfg.History = history
		logging.Info().Str("path", cfg.Cache.HistoryPath).Msg("Dashboard history persisted to BadgerDB")
	}

	repo := dashboard.NewRepository(src.source)
	dash := cache.NewDashboardCache(repo, dashCfg)
	stores := cache.NewStoreKpiStore(src.source, cache.StoreKpiConfig{Location: loc})

	c.orchestrator = refresh.NewOrchestrator(dash, stores, refresh.Config{
		Interval: cfg.Refresh.Interval,
	})

	scheduler, err := refresh.NewScheduler(c.orchestrator, refresh.SchedulerConfig{
		Cron:     cfg.Refresh.Cron,
		Location: loc,
	})
	if err != nil {
		c.close()
		return nil, fmt.Errorf("refresh scheduler: %w", err)
	}
	c.scheduler = scheduler

	c.service = service.New(service.Deps{
		Dashboard:    dash,
		StoreKpi:     stores,
		Orchestrator: c.orchestrator,
		Loader:       repo,
		Location:     loc,
	})
	return c, nil
}

func (c *components) close() {
	if c.history == nil {
		return
	}
	if err := c.history.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing history store")
	}
}
