// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package refresh decides when the cached metrics are recomputed.
//
// The Orchestrator tracks a single last-refresh instant for both cache
// regions (the dashboard payload and the store KPI map). RefreshIfStale is
// called on the read path and refreshes when the configured interval has
// elapsed; RefreshAll is called at startup and by the Scheduler on a cron
// schedule. Refresh failures are logged and counted, never returned, and the
// previously cached value stays authoritative.
//
// Usage:
//
//	orch := refresh.NewOrchestrator(dashboardCache, storeKpiStore, refresh.Config{
//	    Interval: cfg.Refresh.Interval,
//	})
//	orch.RefreshAll(ctx) // warm on startup
//
//	sched, err := refresh.NewScheduler(orch, refresh.SchedulerConfig{
//	    Cron:     cfg.Refresh.Cron,
//	    Location: cfg.Refresh.Location(),
//	})
//
// Both types take a clockwork.Clock so tests can move time explicitly.
package refresh
