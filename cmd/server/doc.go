// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package main is the entry point for the RetailPulse server.

RetailPulse serves a retail analytics dashboard and per-store KPI records out
of an in-memory cache, recomputing them from a SQL analytics source (DuckDB or
PostgreSQL) when they go stale or on an hourly schedule.

# Application Architecture

Long-running services run under a Suture v4 supervisor tree:

	RootSupervisor ("retailpulse")
	├── RefreshSupervisor ("refresh-layer")
	│   └── Refresh scheduler (cron driven RefreshAll)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, with a slog bridge for the supervisor
 3. Analytics source: database/sql over duckdb or pgx, optionally behind a
    gobreaker circuit breaker
 4. Caches: dashboard payload, per-day history (optionally on BadgerDB) and
    the store KPI map
 5. Refresh orchestrator, plus an initial warm when REFRESH_WARM_ON_STARTUP
 6. Supervisor tree with the scheduler and the HTTP server

# Configuration

Common environment variables:

	DB_DRIVER=duckdb|pgx
	DB_DSN=/data/retailpulse.duckdb
	REFRESH_INTERVAL=1h
	REFRESH_CRON="0 * * * *"
	APP_TIMEZONE=Europe/Tirane
	CACHE_HISTORY_PATH=/var/lib/retailpulse/history
	FORCED_REFRESH_PER_MINUTE=6
	HTTP_PORT=8080
	LOG_LEVEL=info

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests within HTTP_SHUTDOWN_TIMEOUT, the scheduler stops, and services that
did not stop in time are logged before exit.
*/
package main
