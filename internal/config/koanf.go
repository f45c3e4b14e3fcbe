// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/retailpulse/config.yaml",
	"/etc/retailpulse/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default queries call table functions with ($1 = for date, $2 = as of).
// Both DuckDB table macros and PostgreSQL set-returning functions accept
// this form.
const (
	defaultMetricsQuery  = "SELECT * FROM dashboard_metrics($1, $2)"
	defaultDailyQuery    = "SELECT * FROM dashboard_daily($1, $2)"
	defaultHourlyQuery   = "SELECT * FROM dashboard_hourly($1, $2)"
	defaultStoresQuery   = "SELECT * FROM dashboard_stores($1, $2)"
	defaultStoreKpiQuery = "SELECT * FROM store_kpi($1, $2)"
)

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         DriverDuckDB,
			DSN:            "/data/retailpulse.duckdb",
			QueryTimeout:   30 * time.Second,
			MaxOpenConns:   4,
			DashboardQuery: "",
			MetricsQuery:   defaultMetricsQuery,
			DailyQuery:     defaultDailyQuery,
			HourlyQuery:    defaultHourlyQuery,
			StoresQuery:    defaultStoresQuery,
			StoreKpiQuery:  defaultStoreKpiQuery,
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      2 * time.Minute,
			MinRequests:  5,
			FailureRatio: 0.6,
		},
		Refresh: RefreshConfig{
			Interval:         time.Hour,
			Cron:             "0 * * * *",
			Timezone:         "UTC",
			WarmOnStartup:    true,
			SchedulerEnabled: true,
		},
		Cache: CacheConfig{
			HistoryEnabled: true,
			HistoryPath:    "", // memory only
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:            []string{},
			RateLimitReqs:          100,
			RateLimitWindow:        time.Minute,
			RateLimitDisabled:      false,
			ForcedRefreshPerMinute: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DB_DSN -> database.dsn, REFRESH_CRON -> refresh.cron
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Database
	"db_driver":          "database.driver",
	"db_dsn":             "database.dsn",
	"database_url":       "database.dsn",
	"db_query_timeout":   "database.query_timeout",
	"db_max_open_conns":  "database.max_open_conns",
	"db_dashboard_query": "database.dashboard_query",
	"db_metrics_query":   "database.metrics_query",
	"db_daily_query":     "database.daily_query",
	"db_hourly_query":    "database.hourly_query",
	"db_stores_query":    "database.stores_query",
	"db_store_kpi_query": "database.store_kpi_query",

	// Circuit breaker
	"breaker_enabled":       "breaker.enabled",
	"breaker_max_requests":  "breaker.max_requests",
	"breaker_interval":      "breaker.interval",
	"breaker_timeout":       "breaker.timeout",
	"breaker_min_requests":  "breaker.min_requests",
	"breaker_failure_ratio": "breaker.failure_ratio",

	// Refresh
	"refresh_interval":          "refresh.interval",
	"refresh_cron":              "refresh.cron",
	"refresh_timezone":          "refresh.timezone",
	"app_timezone":              "refresh.timezone",
	"refresh_warm_on_startup":   "refresh.warm_on_startup",
	"refresh_scheduler_enabled": "refresh.scheduler_enabled",

	// Cache
	"cache_history_enabled": "cache.history_enabled",
	"cache_history_path":    "cache.history_path",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Security
	"cors_origins":              "security.cors_origins",
	"rate_limit_requests":       "security.rate_limit_reqs",
	"rate_limit_window":         "security.rate_limit_window",
	"disable_rate_limit":        "security.rate_limit_disabled",
	"forced_refresh_per_minute": "security.forced_refresh_per_minute",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DB_DSN -> database.dsn
//   - HTTP_PORT -> server.port
//   - DISABLE_RATE_LIMIT -> security.rate_limit_disabled
//
// Unmapped keys return "" and are skipped, so unrelated environment
// variables never pollute the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
