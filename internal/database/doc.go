// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package database implements analytics.Source over database/sql.
//
// # Overview
//
// The analytics data lives behind stored queries that are expensive to run:
// a dashboard query returning four result sets (headline metrics, daily,
// hourly and per-store revenue) and a store KPI query returning one row per
// store. This package runs them and hands back driver-neutral rows; it never
// interprets the columns.
//
// # Drivers
//
//   - duckdb (default): github.com/duckdb/duckdb-go/v2, DECIMAL values are
//     normalised to decimal.Decimal
//   - pgx: github.com/jackc/pgx/v5/stdlib for PostgreSQL
//
// # Query Shapes
//
// A single multi-result-set call (database.dashboard_query) is used when
// configured; otherwise the four per-set queries run one after another under
// the same deadline. Every query receives ($1 = for date, $2 = as of) where
// exactly one argument is non-NULL.
//
// # Resilience
//
// BreakerSource wraps any analytics.Source in a sony/gobreaker circuit
// breaker so a failing database is not hammered by every cache miss. State
// changes are exported as Prometheus gauges.
//
// # Files
//
//   - connection.go: Open, pool configuration, connection error detection
//   - source.go: SQLSource (QueryDashboard, QueryStoreKpi, Ping)
//   - scan.go: row scanning and driver value normalisation
//   - breaker.go: BreakerSource
//   - errors.go: close helpers
package database
