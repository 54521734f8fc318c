// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package main is the entry point for the valis server.
//
// Valis is the SDSS remote data access API. It serves spectral data
// extracted from SAS (Science Archive Server) FITS files, catalog target
// metadata, cone searches, and maskbit decoding over a REST API.
//
// # Application Architecture
//
// The server initializes components in this order:
//
//  1. Configuration: environment variables, config file, built-in
//     defaults (koanf v2, highest priority wins)
//  2. Format registry: embedded product descriptors; a load failure
//     aborts startup since no spectral endpoint can work without it
//  3. Maskbit schema: embedded sdssMaskbits.par
//  4. Database: Postgres (sdss5db) or an embedded duckdb snapshot
//  5. Name resolver: Sesame lookups behind a circuit breaker
//  6. Authentication: JWT or no-auth mode
//  7. HTTP server: chi route tree under a suture supervisor
//
// # Configuration
//
// For JWT authentication (default):
//   - VALIS_SECURITY_JWT_SECRET: 32+ character secret for token signing
//   - VALIS_SECURITY_ADMIN_USERNAME / VALIS_SECURITY_ADMIN_PASSWORD
//
// For development:
//   - VALIS_SECURITY_AUTH_MODE=none
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests (10s timeout),
// then closes the resolver cache and database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sdss/valis/internal/api"
	"github.com/sdss/valis/internal/auth"
	"github.com/sdss/valis/internal/cache"
	"github.com/sdss/valis/internal/config"
	"github.com/sdss/valis/internal/database"
	"github.com/sdss/valis/internal/logging"
	"github.com/sdss/valis/internal/lookup"
	"github.com/sdss/valis/internal/maskbits"
	"github.com/sdss/valis/internal/spectra"
	"github.com/sdss/valis/internal/supervisor"
	"github.com/sdss/valis/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet, use the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("release", cfg.Paths.Release).
		Str("sas_base", cfg.Paths.SASBase).
		Str("db_driver", cfg.Database.Driver).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting valis")

	// The format registry and maskbit schema are embedded; a failure here
	// is a build artifact problem and fatal.
	registry, err := spectra.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load format registry")
	}
	logging.Info().Int("products", len(registry.Products())).Msg("Format registry loaded")

	var schema *maskbits.Schema
	if cfg.Paths.MaskbitsFile != "" {
		schema, err = maskbits.LoadFile(cfg.Paths.MaskbitsFile)
	} else {
		schema, err = maskbits.Load()
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load maskbit schema")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if err := db.InitSnapshotSchema(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize snapshot schema")
	}

	// Separate caches so query responses and Sesame lookups report
	// metrics independently.
	queryCache := cache.New("query", cfg.Cache)
	defer queryCache.Stop()
	lookupCache := cache.New("lookup", cfg.Cache)
	defer lookupCache.Stop()

	resolver := lookup.NewResolver(cfg.Lookup, lookupCache)

	var jwtManager *auth.JWTManager
	var authn *auth.Authenticator
	var authMW *auth.Middleware

	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		authn, err = auth.NewAuthenticator(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize authenticator")
		}
		authMW = auth.NewMiddleware(jwtManager)
		logging.Info().Msg("JWT authentication enabled")
	case "none":
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("All endpoints are publicly accessible. Use this only for development or read-only public deployments")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	handler := api.NewHandler(cfg, db, registry, schema, resolver, jwtManager, authn, queryCache)
	router := api.NewRouter(handler, authMW, api.NewChiMiddleware(&cfg.Security))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddWorkerService(services.NewDBPingService(db, 30*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

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

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Valis stopped gracefully")
}
