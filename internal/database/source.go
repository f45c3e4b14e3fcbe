// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/config"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/metrics"
)

// Operation labels for source metrics.
const (
	OpDashboard = "dashboard"
	OpStoreKpi  = "store_kpi"
)

// Queries holds the SQL text of each analytical query. Every query takes
// ($1 = for date, $2 = as of).
type Queries struct {
	// Dashboard returns all four result sets in one call. When empty the
	// per-set queries below are used instead.
	Dashboard string

	Metrics  string
	Daily    string
	Hourly   string
	Stores   string
	StoreKpi string
}

// QueriesFromConfig extracts the query texts from the database config.
func QueriesFromConfig(cfg *config.DatabaseConfig) Queries {
	return Queries{
		Dashboard: strings.TrimSpace(cfg.DashboardQuery),
		Metrics:   strings.TrimSpace(cfg.MetricsQuery),
		Daily:     strings.TrimSpace(cfg.DailyQuery),
		Hourly:    strings.TrimSpace(cfg.HourlyQuery),
		Stores:    strings.TrimSpace(cfg.StoresQuery),
		StoreKpi:  strings.TrimSpace(cfg.StoreKpiQuery),
	}
}

// SQLSource runs the analytical queries over a database/sql pool.
// It implements analytics.Source and is safe for concurrent use.
type SQLSource struct {
	db      *sql.DB
	queries Queries
	timeout time.Duration
	logger  zerolog.Logger
}

// New opens the configured database and returns a source over it.
func New(cfg *config.DatabaseConfig) (*SQLSource, error) {
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewSQLSource(conn, QueriesFromConfig(cfg), cfg.QueryTimeout), nil
}

// NewSQLSource wraps an open pool. A zero timeout leaves queries bounded
// only by the caller's context.
func NewSQLSource(db *sql.DB, queries Queries, timeout time.Duration) *SQLSource {
	return &SQLSource{
		db:      db,
		queries: queries,
		timeout: timeout,
		logger:  logging.WithComponent("source"),
	}
}

// QueryDashboard runs the dashboard query for mode and returns its four
// result sets. Missing sets come back empty.
func (s *SQLSource) QueryDashboard(ctx context.Context, mode analytics.Mode) (rs analytics.ResultSets, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSourceQuery(OpDashboard, mode.Kind(), time.Since(start), err)
	}()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.queries.Dashboard != "" {
		rs, err = s.queryMultiResult(ctx, s.queries.Dashboard, mode)
	} else {
		rs, err = s.queryPerSet(ctx, mode)
	}
	if err != nil {
		s.logFailure(ctx, OpDashboard, mode, err)
		return analytics.ResultSets{}, err
	}
	return rs.Normalize(), nil
}

// QueryStoreKpi runs the store KPI query for mode.
func (s *SQLSource) QueryStoreKpi(ctx context.Context, mode analytics.Mode) (out []analytics.Row, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSourceQuery(OpStoreKpi, mode.Kind(), time.Since(start), err)
	}()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err = s.querySet(ctx, s.queries.StoreKpi, mode)
	if err != nil {
		s.logFailure(ctx, OpStoreKpi, mode, err)
		return nil, fmt.Errorf("store kpi query: %w", err)
	}
	return out, nil
}

// Ping verifies the database is reachable.
func (s *SQLSource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// queryMultiResult reads up to four result sets from a single call.
func (s *SQLSource) queryMultiResult(ctx context.Context, query string, mode analytics.Mode) (analytics.ResultSets, error) {
	rows, err := s.db.QueryContext(ctx, query, mode.Args()...)
	if err != nil {
		return analytics.ResultSets{}, fmt.Errorf("dashboard query: %w", err)
	}
	defer closeWithLog(rows, &s.logger, "dashboard rows")

	var sets [4][]analytics.Row
	for i := range sets {
		if i > 0 && !rows.NextResultSet() {
			break
		}
		set, err := scanRows(rows)
		if err != nil {
			return analytics.ResultSets{}, fmt.Errorf("dashboard result set %d: %w", i+1, err)
		}
		sets[i] = set
	}
	if err := rows.Err(); err != nil {
		return analytics.ResultSets{}, fmt.Errorf("dashboard query: %w", err)
	}

	return analytics.ResultSets{Metrics: sets[0], Daily: sets[1], Hourly: sets[2], Stores: sets[3]}, nil
}

// queryPerSet runs one query per result set, sequentially, under the same
// deadline. The first failure aborts the whole load so a payload is never
// assembled from partial data.
func (s *SQLSource) queryPerSet(ctx context.Context, mode analytics.Mode) (analytics.ResultSets, error) {
	var rs analytics.ResultSets
	steps := []struct {
		name  string
		query string
		dst   *[]analytics.Row
	}{
		{"metrics", s.queries.Metrics, &rs.Metrics},
		{"daily", s.queries.Daily, &rs.Daily},
		{"hourly", s.queries.Hourly, &rs.Hourly},
		{"stores", s.queries.Stores, &rs.Stores},
	}

	for _, step := range steps {
		if step.query == "" {
			continue
		}
		set, err := s.querySet(ctx, step.query, mode)
		if err != nil {
			return analytics.ResultSets{}, fmt.Errorf("dashboard %s query: %w", step.name, err)
		}
		*step.dst = set
	}
	return rs, nil
}

func (s *SQLSource) querySet(ctx context.Context, query string, mode analytics.Mode) ([]analytics.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, mode.Args()...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, &s.logger, "rows")
	return scanRows(rows)
}

func (s *SQLSource) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *SQLSource) logFailure(ctx context.Context, op string, mode analytics.Mode, err error) {
	ev := logging.Ctx(ctx).Warn()
	if isConnectionError(err) {
		ev = logging.Ctx(ctx).Error()
	}
	ev.Err(err).
		Str("component", "source").
		Str("operation", op).
		Str("mode", mode.String()).
		Bool("connection_error", isConnectionError(err)).
		Msg("Analytics query failed")
}
