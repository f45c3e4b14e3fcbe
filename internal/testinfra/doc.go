// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

// Package testinfra provides container helpers for integration tests.
//
// It uses testcontainers-go to start a throwaway PostgreSQL instance seeded
// with the analytical functions the service queries:
//
//	func TestStoreKpiAgainstPostgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithSeedSQL(seed))
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    src, err := database.New(&config.DatabaseConfig{Driver: "pgx", DSN: pg.DSN, ...})
//	    // ...
//	}
//
// The helpers are behind the "integration" build tag and skip when Docker
// is unavailable. The first run pulls the image.
package testinfra
