// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

/*
Package services adapts long-running components to suture.Service.

  - HTTPServerService: ListenAndServe/Shutdown to Serve, with a bounded
    graceful drain.
  - RefreshSchedulerService: Start/Stop of the cron refresh scheduler to
    Serve.

Each wrapper returns ctx.Err() after a clean shutdown and a wrapped error on
failure, which suture uses to decide on a restart. String() names the
service in supervisor log events.
*/
package services
