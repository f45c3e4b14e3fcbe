// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package analytics defines the contract of the analytical data source: the
// stored procedures that compute dashboard metrics and per-store KPIs.
//
// The cache and refresh layers only depend on the Source interface. The SQL
// implementation lives in internal/database.
package analytics

import (
	"context"
	"fmt"
	"time"
)

// Source executes the analytical queries.
//
// Calls are synchronous and bounded by the implementation's own timeout.
// A call either returns rows or an error; absent result sets are returned as
// empty slices, never nil.
type Source interface {
	// QueryDashboard runs the dashboard procedure and returns its four result sets.
	QueryDashboard(ctx context.Context, mode Mode) (ResultSets, error)

	// QueryStoreKpi runs the store KPI procedure, one row per store.
	QueryStoreKpi(ctx context.Context, mode Mode) ([]Row, error)
}

// ResultSets holds the four result sets of the dashboard procedure, in
// procedure order.
type ResultSets struct {
	Metrics []Row // headline metrics, only the first row is used
	Daily   []Row // Label, Amount
	Hourly  []Row // HourLabel, Amount
	Stores  []Row // Store, LastYear, ThisYear
}

// Normalize replaces nil result sets with empty ones.
func (rs ResultSets) Normalize() ResultSets {
	if rs.Metrics == nil {
		rs.Metrics = []Row{}
	}
	if rs.Daily == nil {
		rs.Daily = []Row{}
	}
	if rs.Hourly == nil {
		rs.Hourly = []Row{}
	}
	if rs.Stores == nil {
		rs.Stores = []Row{}
	}
	return rs
}

// MetricsRow returns the headline metrics row, or an empty row when the first
// result set is missing.
func (rs ResultSets) MetricsRow() Row {
	if len(rs.Metrics) == 0 {
		return Row{}
	}
	return rs.Metrics[0]
}

// Mode selects between the two mutually exclusive query modes.
// Exactly one of AsOf and ForDate is set.
type Mode struct {
	// AsOf asks for "today so far", cut off at an hour boundary.
	AsOf *time.Time

	// ForDate asks for a complete historical calendar day.
	ForDate *time.Time
}

// AsOf returns a point-in-time mode truncated to the start of t's hour.
func AsOf(t time.Time) Mode {
	h := truncateHour(t)
	return Mode{AsOf: &h}
}

// ForDate returns a historical mode for t's calendar day.
func ForDate(t time.Time) Mode {
	d := truncateDay(t)
	return Mode{ForDate: &d}
}

// Resolve picks the query mode for an optional requested date.
//
// A nil forDate, or a forDate on the same calendar day as now, produces an
// AsOf query at the requested (or current) hour. Any other day produces a
// ForDate query. Calendar days are compared in now's location.
func Resolve(forDate *time.Time, now time.Time) Mode {
	if forDate == nil {
		return AsOf(now)
	}
	t := forDate.In(now.Location())
	if SameDay(t, now) {
		return AsOf(t)
	}
	return ForDate(t)
}

// IsAsOf reports whether the mode is a point-in-time query.
func (m Mode) IsAsOf() bool {
	return m.AsOf != nil
}

// Validate checks that exactly one of AsOf and ForDate is set.
func (m Mode) Validate() error {
	if (m.AsOf == nil) == (m.ForDate == nil) {
		return fmt.Errorf("query mode must set exactly one of AsOf and ForDate")
	}
	return nil
}

// Kind returns "as_of" or "for_date", for metric labels.
func (m Mode) Kind() string {
	if m.AsOf != nil {
		return "as_of"
	}
	return "for_date"
}

// Args returns the (for date, as of) query parameters; the unset one is nil.
func (m Mode) Args() []any {
	var forDate, asOf any
	if m.ForDate != nil {
		forDate = *m.ForDate
	}
	if m.AsOf != nil {
		asOf = *m.AsOf
	}
	return []any{forDate, asOf}
}

// String implements fmt.Stringer for logging.
func (m Mode) String() string {
	switch {
	case m.AsOf != nil:
		return "as_of=" + m.AsOf.Format("2006-01-02T15:04")
	case m.ForDate != nil:
		return "for_date=" + m.ForDate.Format("2006-01-02")
	default:
		return "invalid"
	}
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateKey formats t's calendar day as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
