// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package dashboard builds the dashboard payload from the analytics source.
package dashboard

import (
	"context"
	"strings"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/models"
	"github.com/tomtom215/retailpulse/internal/series"
)

// Headline metric names as shown by the dashboard clients.
const (
	MetricRevenue      = "Shitjet Sod"
	MetricTopStore     = "Top Pika"
	MetricTransactions = "Kuponat Fiskal"
	MetricAvgBasket    = "Shporta Mesatare"
)

// Repository loads dashboard payloads. It holds no state besides the source
// and is safe for concurrent use.
type Repository struct {
	source analytics.Source
}

// NewRepository creates a repository over source.
func NewRepository(source analytics.Source) *Repository {
	return &Repository{source: source}
}

// Load runs the dashboard query once and shapes the result.
//
// Missing result sets degrade to empty series and zero metrics. A failed
// query is returned wrapped as models.ErrSourceUnavailable.
func (r *Repository) Load(ctx context.Context, mode analytics.Mode) (*models.DashboardPayload, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	rs, err := r.source.QueryDashboard(ctx, mode)
	if err != nil {
		return nil, models.SourceError("load dashboard "+mode.String(), err)
	}
	rs = rs.Normalize()

	logging.Ctx(ctx).Debug().
		Str("mode", mode.String()).
		Int("daily_rows", len(rs.Daily)).
		Int("hourly_rows", len(rs.Hourly)).
		Int("store_rows", len(rs.Stores)).
		Msg("Dashboard query completed")

	return Build(rs), nil
}

// Build shapes the four result sets into a payload.
func Build(rs analytics.ResultSets) *models.DashboardPayload {
	row := rs.MetricsRow()
	stores := storeRevenues(rs.Stores)

	return &models.DashboardPayload{
		Metrics:         buildMetrics(row, stores),
		DailySeries:     series.DailyPoints(buckets(rs.Daily, "Label")),
		HourlySeries:    series.HourlyCompressed(buckets(rs.Hourly, "HourLabel")),
		StoreComparison: series.StoreComparison(stores),
	}
}

func buildMetrics(row analytics.Row, stores []series.StoreRevenue) []models.Metric {
	compact := func(col string) string { return series.FormatCompact(row.Decimal(col)) }
	change := func(cur, prev string) string {
		return series.ChangePercent(row.Decimal(cur), row.Decimal(prev)) + "%"
	}

	topName := strings.TrimSpace(row.String("TopStoreName"))
	topOE := strings.TrimSpace(row.String("TopStoreOE"))
	topRevenue := row.Decimal("TopStoreRevenue")
	top := series.AnalyzeTopStore(stores, topName, topRevenue, row.Decimal("TotalRevenue"))

	topValue := topOE
	if topValue == "" {
		topValue = topName
	}

	return []models.Metric{
		models.NewGroup(MetricRevenue, compact("TotalRevenue"),
			models.NewMetric("VS Dje", compact("RevenueVsYesterdayPct")+"%"),
			models.NewMetric("Vs Viti Kaluar", compact("RevenueVsPYPct")+"%"),
			models.NewMetric("Total Viti Kaluar", compact("TotalRevenuePY")),
			models.NewMetric("Dje", compact("RevenueYesterday")),
		),
		models.NewGroup(MetricTopStore, topValue,
			models.NewMetric("Emri", topName),
			models.NewMetric("Shitjet e Pikes", series.FormatCompact(topRevenue)),
			models.NewMetric("Kontributi %", top.ContributionPct),
			models.NewMetric("Vs Viti Kaluar", top.VsPyPct),
			models.NewMetric("Renditja", top.RankLabel()),
			models.NewMetric("Diferenca me #2", series.FormatCompact(top.GapToSecond)),
			models.NewMetric("Top 3 Pika", top.Top3Summary),
		),
		models.NewGroup(MetricTransactions, compact("Transactions"),
			models.NewMetric("Vs Viti Kaluar", change("Transactions", "TransactionsPY")),
			models.NewMetric("Viti Kaluar", compact("TransactionsPY")),
			models.NewMetric("Ora Me Trafik", row.String("PeakHour")),
		),
		models.NewGroup(MetricAvgBasket, compact("AvgBasketSize"),
			models.NewMetric("Vs Viti Kaluar", change("AvgBasketSize", "AvgBasketSizePY")),
			models.NewMetric("Viti Kaluar", compact("AvgBasketSizePY")),
		),
	}
}

func buckets(rows []analytics.Row, labelCol string) []series.Bucket {
	out := make([]series.Bucket, 0, len(rows))
	for _, r := range rows {
		out = append(out, series.Bucket{Label: r.String(labelCol), Amount: r.Decimal("Amount")})
	}
	return out
}

func storeRevenues(rows []analytics.Row) []series.StoreRevenue {
	out := make([]series.StoreRevenue, 0, len(rows))
	for _, r := range rows {
		out = append(out, series.StoreRevenue{
			Store:    r.String("Store"),
			LastYear: r.Decimal("LastYear"),
			ThisYear: r.Decimal("ThisYear"),
		})
	}
	return out
}
