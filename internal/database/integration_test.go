// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/config"
	"github.com/tomtom215/retailpulse/internal/testinfra"
)

// seedFunctions mirrors the shape of the production table functions with
// fixed data. Both modes return the same rows.
const seedFunctions = `
CREATE FUNCTION dashboard_metrics(for_date date, as_of timestamp)
RETURNS TABLE("Revenue" numeric, "RevenuePY" numeric, "Transactions" int, "TransactionsPY" int)
LANGUAGE sql AS $$ SELECT 1500.25::numeric, 1200.00::numeric, 42, 40 $$;

CREATE FUNCTION dashboard_daily(for_date date, as_of timestamp)
RETURNS TABLE("Label" text, "Amount" numeric)
LANGUAGE sql AS $$ VALUES ('Mon', 10.5::numeric), ('Tue', 20.0::numeric) $$;

CREATE FUNCTION dashboard_hourly(for_date date, as_of timestamp)
RETURNS TABLE("HourLabel" text, "Amount" numeric)
LANGUAGE sql AS $$ VALUES ('09', 5::numeric), ('10', 0::numeric) $$;

CREATE FUNCTION dashboard_stores(for_date date, as_of timestamp)
RETURNS TABLE("Store" text, "LastYear" numeric, "ThisYear" numeric)
LANGUAGE sql AS $$ VALUES ('Durres', 100::numeric, 120::numeric) $$;

CREATE FUNCTION store_kpi(for_date date, as_of timestamp)
RETURNS TABLE("StoreId" int, "StoreName" text, "RevenueToday" numeric)
LANGUAGE sql AS $$ VALUES (12, 'Durres', 1500.25::numeric), (14, 'Vlore', 99.50::numeric) $$;
`

func TestSQLSourcePostgres(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithSeedSQL(seedFunctions))
	if err != nil {
		t.Fatalf("NewPostgresContainer() error = %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	src, err := New(&config.DatabaseConfig{
		Driver:        config.DriverPostgres,
		DSN:           pg.DSN,
		QueryTimeout:  10 * time.Second,
		MaxOpenConns:  2,
		MetricsQuery:  "SELECT * FROM dashboard_metrics($1, $2)",
		DailyQuery:    "SELECT * FROM dashboard_daily($1, $2)",
		HourlyQuery:   "SELECT * FROM dashboard_hourly($1, $2)",
		StoresQuery:   "SELECT * FROM dashboard_stores($1, $2)",
		StoreKpiQuery: "SELECT * FROM store_kpi($1, $2)",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closeQuietly(src)

	if err := src.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	modes := []analytics.Mode{
		analytics.AsOf(time.Now()),
		analytics.ForDate(time.Now().AddDate(0, 0, -3)),
	}
	for _, mode := range modes {
		t.Run(mode.Kind(), func(t *testing.T) {
			rs, err := src.QueryDashboard(ctx, mode)
			if err != nil {
				t.Fatalf("QueryDashboard() error = %v", err)
			}
			if got := rs.MetricsRow().Decimal("Revenue"); !got.Equal(decimal.RequireFromString("1500.25")) {
				t.Errorf("Revenue = %s, want 1500.25", got)
			}
			if len(rs.Daily) != 2 || len(rs.Hourly) != 2 || len(rs.Stores) != 1 {
				t.Errorf("row counts = %d/%d/%d, want 2/2/1", len(rs.Daily), len(rs.Hourly), len(rs.Stores))
			}

			rows, err := src.QueryStoreKpi(ctx, mode)
			if err != nil {
				t.Fatalf("QueryStoreKpi() error = %v", err)
			}
			if len(rows) != 2 || rows[0].Int("StoreId") != 12 {
				t.Errorf("QueryStoreKpi() = %v, want stores 12 and 14", rows)
			}
		})
	}
}
