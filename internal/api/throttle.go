// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package api

import (
	"math"
	"time"

	"golang.org/x/time/rate"
)

// RefreshThrottle caps forced refreshes (refresh=true), which bypass the
// cache and run the full dashboard query against the source. It is shared
// by every client and both regions.
//
// A nil *RefreshThrottle allows everything.
type RefreshThrottle struct {
	limiter *rate.Limiter
	every   time.Duration
}

// NewRefreshThrottle allows perMinute forced refreshes per minute, with a
// burst of the same size. perMinute <= 0 disables the cap and returns nil.
func NewRefreshThrottle(perMinute int) *RefreshThrottle {
	if perMinute <= 0 {
		return nil
	}
	every := time.Minute / time.Duration(perMinute)
	return &RefreshThrottle{
		limiter: rate.NewLimiter(rate.Every(every), perMinute),
		every:   every,
	}
}

// Allow reports whether a forced refresh may run now and consumes a token
// when it may.
func (t *RefreshThrottle) Allow() bool {
	if t == nil {
		return true
	}
	return t.limiter.Allow()
}

// RetryAfterSeconds is the spacing between tokens in whole seconds, rounded
// up, for the Retry-After header.
func (t *RefreshThrottle) RetryAfterSeconds() int {
	if t == nil {
		return 0
	}
	return int(math.Ceil(t.every.Seconds()))
}
