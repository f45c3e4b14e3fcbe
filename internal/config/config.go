// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Breaker  BreakerConfig  `koanf:"breaker"`
	Refresh  RefreshConfig  `koanf:"refresh"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// Supported database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "pgx"
)

// DatabaseConfig holds the analytics source settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver name: duckdb or pgx.
	Driver string `koanf:"driver"`

	// DSN is a DuckDB file path or a PostgreSQL connection URL.
	DSN string `koanf:"dsn"`

	// QueryTimeout bounds every analytics query.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	MaxOpenConns int `koanf:"max_open_conns"`

	// DashboardQuery, when set, is a single call returning the metrics,
	// daily, hourly and stores result sets in that order. Engines without
	// multiple result sets leave it empty and use the per-set queries.
	DashboardQuery string `koanf:"dashboard_query"`
	MetricsQuery   string `koanf:"metrics_query"`
	DailyQuery     string `koanf:"daily_query"`
	HourlyQuery    string `koanf:"hourly_query"`
	StoresQuery    string `koanf:"stores_query"`
	StoreKpiQuery  string `koanf:"store_kpi_query"`
}

// BreakerConfig configures the circuit breaker around the analytics source.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval is the closed-state window after which counts reset.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `koanf:"timeout"`

	// MinRequests and FailureRatio decide when to trip.
	MinRequests  uint32  `koanf:"min_requests"`
	FailureRatio float64 `koanf:"failure_ratio"`
}

// RefreshConfig controls staleness and the periodic refresh.
type RefreshConfig struct {
	// Interval is the age after which cached data counts as stale.
	Interval time.Duration `koanf:"interval"`

	// Cron is a 5-field expression (minute hour dom month dow).
	Cron string `koanf:"cron"`

	// Timezone is the IANA zone used for the cron schedule and to decide
	// which calendar day "today" is.
	Timezone string `koanf:"timezone"`

	WarmOnStartup    bool `koanf:"warm_on_startup"`
	SchedulerEnabled bool `koanf:"scheduler_enabled"`
}

// Location returns the configured zone, or UTC when it cannot be loaded.
// Validate rejects unknown zones, so the fallback only applies to
// unvalidated configs.
func (r RefreshConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CacheConfig holds cache persistence settings.
type CacheConfig struct {
	// HistoryEnabled turns on the persistent history store. Past-day
	// payloads are always kept in memory.
	HistoryEnabled bool `koanf:"history_enabled"`

	// HistoryPath is the BadgerDB directory past-day payloads persist to so
	// they survive restarts. Empty keeps them in memory only.
	HistoryPath string `koanf:"history_path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds request limiting and CORS settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// ForcedRefreshPerMinute caps refresh=true requests, which bypass the
	// cache and hit the source directly. Zero disables the cap.
	ForcedRefreshPerMinute int `koanf:"forced_refresh_per_minute"`
}

// LoggingConfig holds logging configuration settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Load reads configuration from all sources with the following precedence
// (highest to lowest):
//  1. Environment variables
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Built-in defaults
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
