// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package middleware provides the request-scoped HTTP middleware shared by every
API route.

  - RequestID: accepts or generates an X-Request-ID and seeds the logging
    context with it and a new correlation id.
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern.

Both are plain func(http.Handler) http.Handler values for chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

CORS, rate limiting, panic recovery and compression come from the chi
ecosystem and are wired in the api package.
*/
package middleware
