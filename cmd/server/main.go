// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/retailpulse/internal/api"
	"github.com/tomtom215/retailpulse/internal/config"
	"github.com/tomtom215/retailpulse/internal/logging"
	"github.com/tomtom215/retailpulse/internal/supervisor"
	"github.com/tomtom215/retailpulse/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("driver", cfg.Database.Driver).
		Str("timezone", cfg.Refresh.Timezone).
		Dur("refresh_interval", cfg.Refresh.Interval).
		Str("refresh_cron", cfg.Refresh.Cron).
		Msg("Starting RetailPulse")

	src, err := initSource(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize analytics source")
	}
	defer src.close()

	comps, err := initComponents(cfg, src)
	if err != nil {
		src.close()
		logging.Fatal().Err(err).Msg("Failed to initialize caches")
	}
	defer comps.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Refresh.WarmOnStartup {
		logging.Info().Msg("Warming caches")
		comps.orchestrator.RefreshAll(ctx)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Refresh.SchedulerEnabled {
		tree.AddRefreshService(services.NewRefreshSchedulerService(comps.scheduler))
		logging.Info().Time("next_run", comps.scheduler.NextRun()).Msg("Refresh scheduler added to supervisor tree")
	} else {
		logging.Info().Msg("Refresh scheduler disabled, caches refresh on read only")
	}

	handler := api.NewHandler(api.HandlerConfig{
		Service:  comps.service,
		Source:   src.pinger,
		Breaker:  src.breaker(),
		Throttle: api.NewRefreshThrottle(cfg.Security.ForcedRefreshPerMinute),
		Location: cfg.Refresh.Location(),
	})
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, mw).SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("RetailPulse stopped")
}
