// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package services

import (
	"context"
	"fmt"
)

// RefreshScheduler matches the Start/Stop lifecycle of
// *refresh.Scheduler.
type RefreshScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// RefreshSchedulerService runs the cron refresh scheduler under
// supervision.
type RefreshSchedulerService struct {
	scheduler RefreshScheduler
	name      string
}

// NewRefreshSchedulerService wraps scheduler.
func NewRefreshSchedulerService(scheduler RefreshScheduler) *RefreshSchedulerService {
	return &RefreshSchedulerService{
		scheduler: scheduler,
		name:      "refresh-scheduler",
	}
}

// Serve implements suture.Service: Start, wait for ctx, Stop.
//
// A failed Start is returned so suture restarts the service with backoff.
// Stop waits for an in-flight refresh, which bounds shutdown by the query
// timeout.
func (s *RefreshSchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("refresh scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("refresh scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String names the service in supervisor events.
func (s *RefreshSchedulerService) String() string {
	return s.name
}
