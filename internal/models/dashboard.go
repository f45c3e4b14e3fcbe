// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package models

import (
	"github.com/shopspring/decimal"
)

// Metric is a named, pre-formatted dashboard value.
//
// Metrics form a tree of at most two levels: each headline metric may carry
// sub-metrics, sub-metrics never carry their own. Value is a display string
// produced once at aggregation time; downstream code must not re-format it.
type Metric struct {
	Name       string   `json:"name"`
	Value      string   `json:"value"`
	SubMetrics []Metric `json:"subMetrics,omitempty"`
}

// NewMetric builds a leaf metric.
func NewMetric(name, value string) Metric {
	return Metric{Name: name, Value: value}
}

// NewGroup builds a headline metric with sub-metrics.
func NewGroup(name, value string, subs ...Metric) Metric {
	return Metric{Name: name, Value: value, SubMetrics: subs}
}

// Sub returns the sub-metric with the given name.
func (m Metric) Sub(name string) (Metric, bool) {
	for _, s := range m.SubMetrics {
		if s.Name == name {
			return s, true
		}
	}
	return Metric{}, false
}

// Point is one entry of a time series.
//
// Amount keeps the exact decimal value so currency sums never drift;
// Display is the compact K/M/B rendering of Amount.
type Point struct {
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
	Display string          `json:"display"`
}

// StoreCompare holds one store's this-year vs last-year revenue.
// Duplicate store names within a batch are kept as separate rows.
type StoreCompare struct {
	Store           string          `json:"store"`
	LastYear        decimal.Decimal `json:"lastYear"`
	ThisYear        decimal.Decimal `json:"thisYear"`
	LastYearDisplay string          `json:"lastYearDisplay"`
	ThisYearDisplay string          `json:"thisYearDisplay"`
}

// DashboardPayload is the unit of caching for the dashboard region.
// It is always replaced as a whole, never patched.
type DashboardPayload struct {
	Metrics         []Metric       `json:"metrics"`
	DailySeries     []Point        `json:"dailySeries"`
	HourlySeries    []Point        `json:"hourlySeries"`
	StoreComparison []StoreCompare `json:"storeComparison"`
}

// Metric returns the headline metric with the given name.
func (p *DashboardPayload) Metric(name string) (Metric, bool) {
	if p == nil {
		return Metric{}, false
	}
	for _, m := range p.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}
