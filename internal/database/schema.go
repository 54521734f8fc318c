// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package database

import (
	"context"
	"fmt"

	"github.com/sdss/valis/internal/logging"
)

// snapshotSchema mirrors the slice of sdss5db that valis queries, for the
// embedded duckdb backend. Schema and table names match the Postgres
// cluster so query text is identical across backends.
var snapshotSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS vizdb`,
	`CREATE SCHEMA IF NOT EXISTS targetdb`,
	`CREATE TABLE IF NOT EXISTS vizdb.sdss_id_stacked (
		sdss_id      BIGINT PRIMARY KEY,
		ra_sdss_id   DOUBLE NOT NULL,
		dec_sdss_id  DOUBLE NOT NULL,
		catalogid21  BIGINT,
		catalogid25  BIGINT,
		catalogid31  BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS vizdb.sdss_id_to_pipes (
		sdss_id    BIGINT PRIMARY KEY,
		in_boss    BOOLEAN NOT NULL DEFAULT FALSE,
		in_apogee  BOOLEAN NOT NULL DEFAULT FALSE,
		in_astra   BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS targetdb.target_cartons (
		sdss_id    BIGINT NOT NULL,
		carton     VARCHAR NOT NULL,
		carton_pk  BIGINT NOT NULL,
		program    VARCHAR NOT NULL,
		category   VARCHAR NOT NULL,
		mapper     VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS vizdb.spectrum_files (
		sdss_id   BIGINT NOT NULL,
		product   VARCHAR NOT NULL,
		pipeline  VARCHAR NOT NULL,
		release   VARCHAR NOT NULL,
		filepath  VARCHAR NOT NULL
	)`,
}

// InitSnapshotSchema creates the snapshot tables on the embedded duckdb
// backend. It is a no-op for Postgres, where sdss5db already exists and
// valis has read-only access.
func (db *DB) InitSnapshotSchema(ctx context.Context) error {
	if db.driver != "duckdb" {
		return nil
	}
	for _, stmt := range snapshotSchema {
		if err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating snapshot schema: %w", err)
		}
	}
	logging.Debug().Msg("duckdb snapshot schema ready")
	return nil
}
