// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package analyticstest provides an in-memory analytics.Source for tests.
package analyticstest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/retailpulse/internal/analytics"
)

// Source is a scripted analytics.Source that counts calls.
//
// When Block is non-nil every call waits until it is closed (or the context
// is done) before answering, which lets tests hold a query in flight.
type Source struct {
	Block chan struct{}

	mu           sync.Mutex
	dashboard    analytics.ResultSets
	storeKpi     []analytics.Row
	dashboardErr error
	storeKpiErr  error
	modes        []analytics.Mode

	dashboardCalls atomic.Int64
	storeKpiCalls  atomic.Int64
}

// New returns a source answering with the given result sets and KPI rows.
func New(dashboard analytics.ResultSets, storeKpi []analytics.Row) *Source {
	return &Source{dashboard: dashboard, storeKpi: storeKpi}
}

// QueryDashboard implements analytics.Source.
func (s *Source) QueryDashboard(ctx context.Context, mode analytics.Mode) (analytics.ResultSets, error) {
	s.dashboardCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return analytics.ResultSets{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, mode)
	if s.dashboardErr != nil {
		return analytics.ResultSets{}, s.dashboardErr
	}
	return s.dashboard.Normalize(), nil
}

// QueryStoreKpi implements analytics.Source.
func (s *Source) QueryStoreKpi(ctx context.Context, mode analytics.Mode) ([]analytics.Row, error) {
	s.storeKpiCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, mode)
	if s.storeKpiErr != nil {
		return nil, s.storeKpiErr
	}
	rows := make([]analytics.Row, len(s.storeKpi))
	copy(rows, s.storeKpi)
	return rows, nil
}

func (s *Source) wait(ctx context.Context) error {
	if s.Block == nil {
		return nil
	}
	select {
	case <-s.Block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetDashboard replaces the dashboard answer.
func (s *Source) SetDashboard(rs analytics.ResultSets) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = rs
}

// SetStoreKpi replaces the store KPI answer.
func (s *Source) SetStoreKpi(rows []analytics.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeKpi = rows
}

// FailDashboard makes dashboard queries fail with err; nil clears the failure.
func (s *Source) FailDashboard(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboardErr = err
}

// FailStoreKpi makes store KPI queries fail with err; nil clears the failure.
func (s *Source) FailStoreKpi(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeKpiErr = err
}

// DashboardCalls returns the number of dashboard queries issued.
func (s *Source) DashboardCalls() int {
	return int(s.dashboardCalls.Load())
}

// StoreKpiCalls returns the number of store KPI queries issued.
func (s *Source) StoreKpiCalls() int {
	return int(s.storeKpiCalls.Load())
}

// LastMode returns the mode of the most recent answered query.
func (s *Source) LastMode() (analytics.Mode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.modes) == 0 {
		return analytics.Mode{}, false
	}
	return s.modes[len(s.modes)-1], true
}

// KpiRow builds a store KPI row with the given id, name and revenue.
func KpiRow(id int, name string, revenue string) analytics.Row {
	return analytics.Row{
		"StoreId":      id,
		"StoreName":    name,
		"RevenueToday": revenue,
		"TxToday":      10,
		"PeakHour":     14,
	}
}
