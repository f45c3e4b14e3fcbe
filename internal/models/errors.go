// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the cache, refresh and API layers.
// Wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrSourceUnavailable means the analytical query failed or timed out.
	ErrSourceUnavailable = errors.New("metrics currently unavailable")

	// ErrNotFound means the requested store id was not present in any batch.
	// It is an expected outcome and is not logged as an error.
	ErrNotFound = errors.New("not found")
)

// SourceError wraps a failed source call for op so that it matches
// ErrSourceUnavailable. The underlying error stays reachable through
// errors.Is and errors.As.
func SourceError(op string, err error) error {
	if errors.Is(err, ErrSourceUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrSourceUnavailable, err)
}
