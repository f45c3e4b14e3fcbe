// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package config provides centralized configuration management for RetailPulse.

# Configuration Sources

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: CONFIG_PATH, else config.yaml / config.yml in the
    working directory, else /etc/retailpulse/config.yaml
 3. Environment variables, mapped explicitly by envTransformFunc

Unknown environment variables are ignored so unrelated process settings never
leak into the configuration.

# Configuration Structure

  - DatabaseConfig: analytics source driver, DSN and the stored queries
  - BreakerConfig: circuit breaker around the analytics source
  - RefreshConfig: staleness interval, cron schedule and timezone
  - CacheConfig: durable history store for past-day dashboards
  - ServerConfig: HTTP listener and timeouts
  - SecurityConfig: CORS, request rate limits, forced refresh throttle
  - LoggingConfig: zerolog level, format and caller info

# Environment Variables

Database:
  - DB_DRIVER: duckdb (default) or pgx
  - DB_DSN: DuckDB file path or PostgreSQL URL (default: /data/retailpulse.duckdb)
  - DB_QUERY_TIMEOUT: per-query timeout (default: 30s)
  - DB_MAX_OPEN_CONNS: connection pool size (default: 4)
  - DB_DASHBOARD_QUERY: single call returning all four dashboard result sets
  - DB_METRICS_QUERY, DB_DAILY_QUERY, DB_HOURLY_QUERY, DB_STORES_QUERY:
    per-set dashboard queries, used when DB_DASHBOARD_QUERY is empty
  - DB_STORE_KPI_QUERY: store KPI query

Every query receives two parameters: the requested calendar date (or NULL)
and the as-of hour (or NULL). Exactly one of them is non-NULL.

Refresh:
  - REFRESH_INTERVAL: staleness interval (default: 1h)
  - REFRESH_CRON: 5-field cron expression (default: "0 * * * *")
  - REFRESH_TIMEZONE (or APP_TIMEZONE): IANA zone for cron and calendar days (default: UTC)
  - REFRESH_WARM_ON_STARTUP, REFRESH_SCHEDULER_ENABLED

Server and security:
  - HTTP_HOST, HTTP_PORT, HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
  - CORS_ORIGINS (comma-separated), RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW,
    DISABLE_RATE_LIMIT, FORCED_REFRESH_PER_MINUTE

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	loc := cfg.Refresh.Location()
*/
package config
