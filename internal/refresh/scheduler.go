// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/retailpulse/internal/logging"
)

// DefaultCron fires at the top of every hour.
const DefaultCron = "0 * * * *"

// Refresher is what the scheduler triggers. *Orchestrator implements it.
type Refresher interface {
	RefreshAll(ctx context.Context)
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Cron is a 5-field expression; empty means DefaultCron.
	Cron string

	// Location the expression is evaluated in; defaults to UTC.
	Location *time.Location

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Scheduler triggers a full refresh on a cron schedule.
//
// Fires are handled one at a time on the scheduler goroutine. A refresh
// that overruns the next fire time delays it rather than overlapping.
type Scheduler struct {
	refresher Refresher
	schedule  *Schedule
	loc       *time.Location
	clock     clockwork.Clock
	logger    zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler parses the cron expression and returns a stopped scheduler.
func NewScheduler(refresher Refresher, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Cron == "" {
		cfg.Cron = DefaultCron
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	schedule, err := ParseSchedule(cfg.Cron)
	if err != nil {
		return nil, fmt.Errorf("refresh schedule: %w", err)
	}

	return &Scheduler{
		refresher: refresher,
		schedule:  schedule,
		loc:       cfg.Location,
		clock:     cfg.Clock,
		logger:    logging.WithComponent("refresh-scheduler"),
	}, nil
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	s.logger.Info().
		Str("cron", s.schedule.String()).
		Str("timezone", s.loc.String()).
		Time("next_run", s.NextRun()).
		Msg("Starting refresh scheduler")

	go s.run(ctx, stopCh, doneCh)
	return nil
}

// Stop stops the loop and waits for an in-flight refresh to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.logger.Info().Msg("Refresh scheduler stopped")
	return nil
}

// NextRun returns the next fire time after now.
func (s *Scheduler) NextRun() time.Time {
	return s.schedule.Next(s.clock.Now(), s.loc)
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		now := s.clock.Now()
		next := s.schedule.Next(now, s.loc)
		if next.IsZero() {
			s.logger.Error().Str("cron", s.schedule.String()).Msg("Cron expression never fires, scheduler idle")
			select {
			case <-stopCh:
			case <-ctx.Done():
			}
			return
		}

		timer := s.clock.NewTimer(next.Sub(now))
		select {
		case <-timer.Chan():
			s.fire(ctx, next)
		case <-stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, scheduled time.Time) {
	s.logger.Debug().Time("scheduled", scheduled).Msg("Scheduled refresh firing")
	s.refresher.RefreshAll(ctx)
}
