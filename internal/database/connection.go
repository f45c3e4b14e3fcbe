// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/retailpulse/internal/config"
)

const pingTimeout = 5 * time.Second

// Open opens and verifies a connection pool for the configured driver.
func Open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN

	if cfg.Driver == config.DriverDuckDB {
		// Existing files are opened read-only; the service never writes.
		dir := filepath.Dir(dsn)
		if dsn != ":memory:" && dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		if dsn != ":memory:" && !strings.Contains(dsn, "?") {
			if _, err := os.Stat(dsn); err == nil {
				dsn += "?access_mode=read_only"
			}
		}
	}

	conn, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	configureConnectionPool(conn, cfg.MaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	return conn, nil
}

// configureConnectionPool sets connection pool parameters
//   - max_open: configured, analytical queries are heavy so keep it small
//   - max_idle: 2 for connection reuse
//   - max_lifetime: 1h to prevent stale connections
//   - max_idle_time: 5m for idle connection cleanup
func configureConnectionPool(conn *sql.DB, maxOpen int) {
	if maxOpen < 1 {
		maxOpen = 1
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(min(2, maxOpen))
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isConnectionError checks if an error indicates database connection loss
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "bad connection") ||
		strings.Contains(errMsg, "database is closed")
}
