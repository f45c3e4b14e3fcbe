// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package models

import (
	"github.com/shopspring/decimal"
)

// StoreKpi is the flat per-store KPI record returned by the store KPI
// procedure. A new value is built on every refresh; cached records are
// replaced, never mutated.
type StoreKpi struct {
	StoreID         int             `json:"storeId"`
	StoreName       string          `json:"storeName"`
	RevenueToday    decimal.Decimal `json:"revenueToday"`
	RevenuePY       decimal.Decimal `json:"revenuePY"`
	TxToday         int             `json:"txToday"`
	TxPY            int             `json:"txPY"`
	AvgBasketToday  decimal.Decimal `json:"avgBasketToday"`
	AvgBasketPY     decimal.Decimal `json:"avgBasketPY"`
	RevenueDiff     decimal.Decimal `json:"revenueDiff"`
	RevenuePct      decimal.Decimal `json:"revenuePct"`
	TxDiff          int             `json:"txDiff"`
	TxPct           decimal.Decimal `json:"txPct"`
	AvgBasketDiff   decimal.Decimal `json:"avgBasketDiff"`
	PeakHour        int             `json:"peakHour"`
	PeakHourLabel   string          `json:"peakHourLabel"`
	PeakHourRevenue decimal.Decimal `json:"peakHourRevenue"`
	TopArtCode      string          `json:"topArtCode"`
	TopArtRevenue   decimal.Decimal `json:"topArtRevenue"`
	TopArtName      string          `json:"topArtName"`
}

// Equal reports whether two records carry the same values.
// Decimal fields are compared numerically.
func (k *StoreKpi) Equal(o *StoreKpi) bool {
	if k == nil || o == nil {
		return k == o
	}
	return k.StoreID == o.StoreID &&
		k.StoreName == o.StoreName &&
		k.RevenueToday.Equal(o.RevenueToday) &&
		k.RevenuePY.Equal(o.RevenuePY) &&
		k.TxToday == o.TxToday &&
		k.TxPY == o.TxPY &&
		k.AvgBasketToday.Equal(o.AvgBasketToday) &&
		k.AvgBasketPY.Equal(o.AvgBasketPY) &&
		k.RevenueDiff.Equal(o.RevenueDiff) &&
		k.RevenuePct.Equal(o.RevenuePct) &&
		k.TxDiff == o.TxDiff &&
		k.TxPct.Equal(o.TxPct) &&
		k.AvgBasketDiff.Equal(o.AvgBasketDiff) &&
		k.PeakHour == o.PeakHour &&
		k.PeakHourLabel == o.PeakHourLabel &&
		k.PeakHourRevenue.Equal(o.PeakHourRevenue) &&
		k.TopArtCode == o.TopArtCode &&
		k.TopArtRevenue.Equal(o.TopArtRevenue) &&
		k.TopArtName == o.TopArtName
}
