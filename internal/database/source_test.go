// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/config"
)

var testAsOf = time.Date(2025, 8, 9, 14, 0, 0, 0, time.UTC)

func newMockSource(t *testing.T, q Queries) (*SQLSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLSource(db, q, time.Second), mock
}

func TestQueryDashboardMultiResultSet(t *testing.T) {
	const q = "SELECT * FROM dashboard($1, $2)"
	src, mock := newMockSource(t, Queries{Dashboard: q})

	mock.ExpectQuery(q).
		WithArgs(nil, testAsOf).
		WillReturnRows(
			sqlmock.NewRows([]string{"Revenue", "Transactions"}).AddRow(1234.5, int64(42)),
			sqlmock.NewRows([]string{"Label", "Amount"}).AddRow("Mon", 10.0).AddRow("Tue", 20.0),
			sqlmock.NewRows([]string{"HourLabel", "Amount"}).AddRow("09", 5.0),
			sqlmock.NewRows([]string{"Store", "LastYear", "ThisYear"}).AddRow([]byte("Tirana"), 1.0, 2.0),
		)

	rs, err := src.QueryDashboard(context.Background(), analytics.AsOf(testAsOf.Add(37*time.Minute)))
	if err != nil {
		t.Fatalf("QueryDashboard() error = %v", err)
	}

	if got := rs.MetricsRow().Decimal("Revenue"); !got.Equal(decimal.RequireFromString("1234.5")) {
		t.Errorf("Revenue = %s, want 1234.5", got)
	}
	if got := rs.MetricsRow().Int("Transactions"); got != 42 {
		t.Errorf("Transactions = %d, want 42", got)
	}
	if len(rs.Daily) != 2 {
		t.Errorf("len(Daily) = %d, want 2", len(rs.Daily))
	}
	if len(rs.Hourly) != 1 {
		t.Errorf("len(Hourly) = %d, want 1", len(rs.Hourly))
	}
	if got := rs.Stores[0].String("Store"); got != "Tirana" {
		t.Errorf("Store = %q, want Tirana", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryDashboardMissingResultSets(t *testing.T) {
	const q = "CALL dashboard($1, $2)"
	src, mock := newMockSource(t, Queries{Dashboard: q})

	mock.ExpectQuery(q).
		WithArgs(nil, testAsOf).
		WillReturnRows(sqlmock.NewRows([]string{"Revenue"}).AddRow(1.0))

	rs, err := src.QueryDashboard(context.Background(), analytics.AsOf(testAsOf))
	if err != nil {
		t.Fatalf("QueryDashboard() error = %v", err)
	}
	if rs.Daily == nil || rs.Hourly == nil || rs.Stores == nil {
		t.Errorf("missing result sets should be empty, got %+v", rs)
	}
	if len(rs.Daily)+len(rs.Hourly)+len(rs.Stores) != 0 {
		t.Errorf("missing result sets should have no rows, got %+v", rs)
	}
}

func TestQueryDashboardPerSet(t *testing.T) {
	q := Queries{
		Metrics: "SELECT * FROM dashboard_metrics($1, $2)",
		Daily:   "SELECT * FROM dashboard_daily($1, $2)",
		Hourly:  "SELECT * FROM dashboard_hourly($1, $2)",
		// Stores left empty on purpose.
	}
	src, mock := newMockSource(t, q)

	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q.Metrics).WithArgs(day, nil).
		WillReturnRows(sqlmock.NewRows([]string{"Revenue"}).AddRow(7.0))
	mock.ExpectQuery(q.Daily).WithArgs(day, nil).
		WillReturnRows(sqlmock.NewRows([]string{"Label", "Amount"}).AddRow("Fri", 7.0))
	mock.ExpectQuery(q.Hourly).WithArgs(day, nil).
		WillReturnRows(sqlmock.NewRows([]string{"HourLabel", "Amount"}))

	rs, err := src.QueryDashboard(context.Background(), analytics.ForDate(day.Add(15*time.Hour)))
	if err != nil {
		t.Fatalf("QueryDashboard() error = %v", err)
	}
	if len(rs.Metrics) != 1 || len(rs.Daily) != 1 {
		t.Errorf("got %d metrics rows and %d daily rows, want 1 and 1", len(rs.Metrics), len(rs.Daily))
	}
	if rs.Hourly == nil || len(rs.Hourly) != 0 {
		t.Errorf("Hourly = %v, want empty", rs.Hourly)
	}
	if rs.Stores == nil || len(rs.Stores) != 0 {
		t.Errorf("Stores = %v, want empty", rs.Stores)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryDashboardPerSetFailureAborts(t *testing.T) {
	q := Queries{
		Metrics: "SELECT * FROM dashboard_metrics($1, $2)",
		Daily:   "SELECT * FROM dashboard_daily($1, $2)",
	}
	src, mock := newMockSource(t, q)

	mock.ExpectQuery(q.Metrics).WithArgs(nil, testAsOf).
		WillReturnError(errors.New("connection refused"))

	_, err := src.QueryDashboard(context.Background(), analytics.AsOf(testAsOf))
	if err == nil {
		t.Fatal("QueryDashboard() should fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryStoreKpi(t *testing.T) {
	const q = "SELECT * FROM store_kpi($1, $2)"
	src, mock := newMockSource(t, Queries{StoreKpi: q})

	mock.ExpectQuery(q).WithArgs(nil, testAsOf).
		WillReturnRows(sqlmock.NewRows([]string{"StoreId", "StoreName", "RevenueToday"}).
			AddRow(int64(12), "Durres", "1500.25").
			AddRow(int64(14), "Vlore", nil))

	rows, err := src.QueryStoreKpi(context.Background(), analytics.AsOf(testAsOf))
	if err != nil {
		t.Fatalf("QueryStoreKpi() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if got := rows[0].Int("storeid"); got != 12 {
		t.Errorf("StoreId = %d, want 12", got)
	}
	if got := rows[0].Decimal("RevenueToday"); !got.Equal(decimal.RequireFromString("1500.25")) {
		t.Errorf("RevenueToday = %s, want 1500.25", got)
	}
	if got := rows[1].Decimal("RevenueToday"); !got.IsZero() {
		t.Errorf("null RevenueToday = %s, want 0", got)
	}
}

func TestQueryStoreKpiError(t *testing.T) {
	const q = "SELECT * FROM store_kpi($1, $2)"
	src, mock := newMockSource(t, Queries{StoreKpi: q})

	boom := errors.New("timeout")
	mock.ExpectQuery(q).WithArgs(nil, testAsOf).WillReturnError(boom)

	_, err := src.QueryStoreKpi(context.Background(), analytics.AsOf(testAsOf))
	if !errors.Is(err, boom) {
		t.Errorf("QueryStoreKpi() error = %v, want %v", err, boom)
	}
}

func TestQueriesFromConfig(t *testing.T) {
	q := QueriesFromConfig(&config.DatabaseConfig{
		DashboardQuery: "   ",
		MetricsQuery:   " SELECT * FROM dashboard_metrics($1, $2)\n",
		StoreKpiQuery:  "\tSELECT * FROM store_kpi($1, $2) ",
	})
	if q.Dashboard != "" {
		t.Errorf("Dashboard = %q, want empty", q.Dashboard)
	}
	if q.Metrics != "SELECT * FROM dashboard_metrics($1, $2)" {
		t.Errorf("Metrics = %q, want trimmed", q.Metrics)
	}
	if q.StoreKpi != "SELECT * FROM store_kpi($1, $2)" {
		t.Errorf("StoreKpi = %q, want trimmed", q.StoreKpi)
	}
}

func TestNormalizeValue(t *testing.T) {
	if got := normalizeValue([]byte("abc")); got != "abc" {
		t.Errorf("normalizeValue([]byte) = %v, want abc", got)
	}
	if got := normalizeValue(int64(3)); got != int64(3) {
		t.Errorf("normalizeValue(int64) = %v, want 3", got)
	}
	if got := normalizeValue(nil); got != nil {
		t.Errorf("normalizeValue(nil) = %v, want nil", got)
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("driver: bad connection"), true},
		{errors.New("syntax error at or near"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.want {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
