// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package database provides access to the SDSS target metadata catalog.
// Production deployments talk to the shared sdss5db Postgres cluster; the
// duckdb driver serves an embedded snapshot for development and tests.
// Both backends are reached through database/sql with numbered
// placeholders, so query text is shared.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"

	"github.com/sdss/valis/internal/config"
	"github.com/sdss/valis/internal/logging"
	"github.com/sdss/valis/internal/metrics"
)

// DB wraps the metadata database connection.
type DB struct {
	conn   *sql.DB
	driver string
}

// New opens the metadata database selected by the configuration and
// verifies connectivity.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	var conn *sql.DB
	var err error

	switch cfg.Driver {
	case "postgres":
		conn, err = sql.Open("postgres", cfg.DSN)
	case "duckdb":
		path := cfg.Path
		if path != "" {
			if dir := filepath.Dir(path); dir != "" && dir != "." {
				if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
					return nil, fmt.Errorf("failed to create database directory %s: %w", dir, mkErr)
				}
			}
		}
		conn, err = sql.Open("duckdb", path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	logging.Info().
		Str("driver", cfg.Driver).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("metadata database connected")

	return &DB{conn: conn, driver: cfg.Driver}, nil
}

// Driver returns the active driver name ("postgres" or "duckdb").
func (db *DB) Driver() string {
	return db.driver
}

// Ping verifies the connection is alive; used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// timedQuery wraps QueryContext with Prometheus instrumentation.
func (db *DB) timedQuery(ctx context.Context, operation, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery(operation, time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("operation", operation).Msg("database query failed")
	}
	return rows, err
}

// timedQueryRow wraps QueryRowContext with Prometheus instrumentation.
// Row errors surface at Scan time and are recorded by the caller.
func (db *DB) timedQueryRow(ctx context.Context, operation, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, query, args...)
	metrics.RecordDBQuery(operation, time.Since(start), nil)
	return row
}

// Exec runs a statement, for schema setup and snapshot loading.
func (db *DB) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := db.conn.ExecContext(ctx, query, args...)
	return err
}
