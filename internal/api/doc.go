// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package api provides the HTTP REST API for RetailPulse.

Routes:

	GET  /api/v1/dashboard/metrics?refresh=&forDate=   dashboard payload
	POST /api/v1/dashboard/metrics/reset               drop the current payload (204)
	GET  /api/v1/stores/{storeId}/kpi?refresh=&forDate= one store's KPI record
	POST /api/v1/stores/kpi/reset                      drop every store (204)
	GET  /api/v1/health/live                           liveness
	GET  /api/v1/health/ready                          source ping and refresh age
	GET  /metrics                                      Prometheus exposition

forDate accepts YYYY-MM-DD, YYYY-MM-DDTHH:MM:SS (read in the configured zone)
or an RFC 3339 timestamp.

Every JSON response uses one envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

	{
	  "success": false,
	  "error": {"code": "NOT_FOUND", "message": "store 9: not found", "request_id": "..."},
	  "meta": {...}
	}

Error codes:

  - VALIDATION_ERROR (400): a malformed storeId, refresh or forDate
  - NOT_FOUND (404): the store is not in the latest batch
  - REFRESH_THROTTLED (429): refresh=true over the forced refresh budget
  - TOO_MANY_REQUESTS (429): per-IP rate limit
  - SOURCE_UNAVAILABLE (503): the analytics query failed, timed out or the
    circuit breaker is open

Middleware (outermost first): request id, real IP, Prometheus metrics, panic
recovery, CORS, then per-group rate limiting, security headers and gzip.

Usage:

	handler := api.NewHandler(api.HandlerConfig{
	    Service:  svc,
	    Source:   source,
	    Breaker:  breaker,
	    Throttle: api.NewRefreshThrottle(cfg.Security.ForcedRefreshPerMinute),
	    Location: cfg.Refresh.Location(),
	})
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))
	srv := &http.Server{Handler: api.NewRouter(handler, mw).SetupChi()}
*/
package api
