// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package models defines the data structures served by RetailPulse.

Key Components:

  - DashboardPayload: headline metric tree plus daily, hourly and per-store series
  - Metric: named pre-formatted value with optional sub-metrics (two levels max)
  - Point: series entry carrying an exact decimal amount and its compact display
  - StoreCompare: this-year vs last-year revenue for one store
  - StoreKpi: flat per-store KPI record keyed by store id

Monetary amounts use github.com/shopspring/decimal and are never converted to
float64. JSON field names are camelCase to match the dashboard clients.

Errors:

  - ErrSourceUnavailable: the analytical source failed and no cached value exists
  - ErrNotFound: the store id is absent from the source batch

Thread Safety:
All types are values built once per refresh and treated as immutable afterwards,
so they may be shared between goroutines without locking.
*/
package models
