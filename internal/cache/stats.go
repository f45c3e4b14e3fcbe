// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package cache

import (
	"sync/atomic"

	"github.com/tomtom215/retailpulse/internal/metrics"
)

// Cache names used as the "cache" metric label.
const (
	NameDashboard        = "dashboard"
	NameDashboardHistory = "dashboard_history"
	NameStoreKpi         = "store_kpi"
)

// Stats is a point-in-time view of a cache's counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// HitRate returns hits as a percentage of all lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// counters tracks lookups locally and mirrors them to Prometheus.
type counters struct {
	name   string
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) hit() {
	c.hits.Add(1)
	metrics.RecordCacheLookup(c.name, true)
}

func (c *counters) miss() {
	c.misses.Add(1)
	metrics.RecordCacheLookup(c.name, false)
}

func (c *counters) snapshot(entries int) Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: entries}
}
