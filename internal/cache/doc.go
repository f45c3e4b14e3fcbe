// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package cache holds the two cache regions served by RetailPulse.

This is not a general-purpose cache. There is no TTL and no size-based
eviction: entries live until they are replaced by a refresh or evicted
explicitly. Staleness is tracked by the refresh orchestrator, not here.

# Regions

DashboardCache:
  - One current payload for "today so far", replaced as a whole by Put
  - Historical payloads keyed by calendar date (YYYY-MM-DD), computed once
    and kept indefinitely, optionally persisted through a HistoryStore
  - Concurrent misses are coalesced with singleflight

StoreKpiStore:
  - Map of store id to StoreKpi, swapped wholesale on RefreshAll
  - Lazy warm on first read, guarded by an atomic flag plus singleflight so
    concurrent first readers share a single source query
  - Per-store fallback fetch on a miss, per-store refresh and eviction

# Persistence

BadgerHistoryStore persists historical dashboard payloads in BadgerDB with
JSON-encoded values. Historical days never change once complete, so a
restart does not need to recompute them.

# Thread Safety

All exported types are safe for concurrent use. Readers never block on a
refresh in progress: the dashboard payload is held in an atomic pointer and
the store map is replaced under a short write lock.
*/
package cache
