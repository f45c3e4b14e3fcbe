// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package supervisor runs the long-lived parts of RetailPulse under a suture v4
supervisor tree.

	retailpulse
	├── refresh-layer
	│   └── RefreshSchedulerService (if refresh.scheduler_enabled)
	└── api-layer
	    └── HTTPServerService

Crashed services restart with suture's failure decay and backoff; a layer
that keeps failing backs off on its own. Supervisor events (service
failures, backoff, shutdown timeouts) are logged through sutureslog, with
main passing logging.NewSlogLogger() so they land in the zerolog output.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddRefreshService(services.NewRefreshSchedulerService(scheduler))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    // handle
	}
*/
package supervisor
