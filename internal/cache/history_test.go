// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package cache

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/retailpulse/internal/models"
)

func TestBadgerHistoryStoreRoundTrip(t *testing.T) {
	store := NewBadgerHistoryStore(newMemoryBadger(t))
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "2025-08-01"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	payload := &models.DashboardPayload{
		Metrics: []models.Metric{models.NewGroup("Shitjet Sod", "1.23K", models.NewMetric("Dje", "900"))},
		DailySeries: []models.Point{
			{Label: "Fri", Amount: decimal.RequireFromString("1234.50"), Display: "1.23K"},
		},
		HourlySeries:    []models.Point{},
		StoreComparison: []models.StoreCompare{},
	}
	if err := store.Put(ctx, "2025-08-01", payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "2025-08-02", payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := store.Get(ctx, "2025-08-01")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if len(got.DailySeries) != 1 || !got.DailySeries[0].Amount.Equal(decimal.RequireFromString("1234.5")) {
		t.Errorf("daily series = %+v", got.DailySeries)
	}
	if sub, ok := got.Metrics[0].Sub("Dje"); !ok || sub.Value != "900" {
		t.Errorf("sub-metric lost in round trip: %+v", got.Metrics[0])
	}

	days, err := store.Days()
	if err != nil {
		t.Fatalf("Days() error = %v", err)
	}
	if len(days) != 2 || days[0] != "2025-08-01" || days[1] != "2025-08-02" {
		t.Errorf("Days() = %v", days)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() on borrowed db = %v, want nil", err)
	}
}
