// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/models"
)

// writeServiceError maps a service error onto the envelope.
//
// Source failures are reported with a fixed message; the wrapped driver
// error is logged, never returned to the client.
func writeServiceError(rw *ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())

	switch {
	case errors.Is(err, models.ErrNotFound):
		rw.NotFound(err.Error())

	case errors.Is(err, models.ErrSourceUnavailable):
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Analytics source unavailable")
		rw.SourceUnavailable(models.ErrSourceUnavailable.Error())

	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request cancelled")
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request cancelled")

	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Unexpected service error")
		rw.InternalError("internal error")
	}
}
