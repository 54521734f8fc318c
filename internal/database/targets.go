// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sdss/valis/internal/models"
)

// ErrTargetNotFound indicates no catalog row matched the requested
// identifier.
var ErrTargetNotFound = errors.New("target not found")

const targetColumns = "sdss_id, ra_sdss_id, dec_sdss_id, catalogid21, catalogid25, catalogid31"

// GetTargetBySdssID fetches the core metadata row for one sdss_id.
func (db *DB) GetTargetBySdssID(ctx context.Context, sdssID int64) (*models.Target, error) {
	query := "SELECT " + targetColumns + " FROM vizdb.sdss_id_stacked WHERE sdss_id = $1"
	row := db.timedQueryRow(ctx, "target_by_sdss_id", query, sdssID)
	return scanTarget(row)
}

// GetTargetsByCatalogID fetches all sdss_id rows carrying the given
// catalogid in any crossmatch run. One catalogid can map to several
// sdss_ids across runs.
func (db *DB) GetTargetsByCatalogID(ctx context.Context, catalogID int64) ([]models.Target, error) {
	query := "SELECT " + targetColumns + ` FROM vizdb.sdss_id_stacked
		WHERE catalogid21 = $1 OR catalogid25 = $1 OR catalogid31 = $1
		ORDER BY sdss_id`
	rows, err := db.timedQuery(ctx, "targets_by_catalogid", query, catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []models.Target
	for rows.Next() {
		t, err := scanTargetRow(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *t)
	}
	return targets, rows.Err()
}

// ConeSearch returns targets within radius degrees of (ra, dec), ordered
// by angular distance. The distance is computed with the haversine
// formula, which both backends evaluate with their built-in math
// functions.
func (db *DB) ConeSearch(ctx context.Context, ra, dec, radius float64, limit int) ([]models.ConeResult, error) {
	query := `SELECT sdss_id, ra_sdss_id, dec_sdss_id, distance FROM (
		SELECT sdss_id, ra_sdss_id, dec_sdss_id,
			degrees(2 * asin(sqrt(
				power(sin(radians((dec_sdss_id - $2) / 2)), 2) +
				cos(radians($2)) * cos(radians(dec_sdss_id)) *
				power(sin(radians((ra_sdss_id - $1) / 2)), 2)
			))) AS distance
		FROM vizdb.sdss_id_stacked
	) AS cone
	WHERE distance <= $3
	ORDER BY distance
	LIMIT $4`

	rows, err := db.timedQuery(ctx, "cone_search", query, ra, dec, radius, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.ConeResult
	for rows.Next() {
		var r models.ConeResult
		if err := rows.Scan(&r.SdssID, &r.RA, &r.Dec, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning cone search row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetTargetCartons lists the carton assignments of a target.
func (db *DB) GetTargetCartons(ctx context.Context, sdssID int64) ([]models.Carton, error) {
	query := `SELECT carton, carton_pk, program, category, mapper
		FROM targetdb.target_cartons
		WHERE sdss_id = $1
		ORDER BY carton_pk`
	rows, err := db.timedQuery(ctx, "target_cartons", query, sdssID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cartons []models.Carton
	for rows.Next() {
		var c models.Carton
		var mapper sql.NullString
		if err := rows.Scan(&c.Carton, &c.CartonPK, &c.Program, &c.Category, &mapper); err != nil {
			return nil, fmt.Errorf("scanning carton row: %w", err)
		}
		c.Mapper = mapper.String
		cartons = append(cartons, c)
	}
	return cartons, rows.Err()
}

// ListCartons lists the distinct cartons known to targetdb, optionally
// filtered by a substring match on the carton or program name.
func (db *DB) ListCartons(ctx context.Context, search string, limit int) ([]models.Carton, error) {
	query := `SELECT DISTINCT carton, carton_pk, program, category, mapper
		FROM targetdb.target_cartons`
	var args []interface{}
	if search != "" {
		query += ` WHERE carton LIKE $1 OR program LIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY carton_pk LIMIT %d`, limit)

	rows, err := db.timedQuery(ctx, "cartons_list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cartons []models.Carton
	for rows.Next() {
		var c models.Carton
		var mapper sql.NullString
		if err := rows.Scan(&c.Carton, &c.CartonPK, &c.Program, &c.Category, &mapper); err != nil {
			return nil, fmt.Errorf("scanning carton row: %w", err)
		}
		c.Mapper = mapper.String
		cartons = append(cartons, c)
	}
	return cartons, rows.Err()
}

// GetTargetPipes reports which reduction pipelines have results for a
// target. A target missing from the pipes table has no spectra at all.
func (db *DB) GetTargetPipes(ctx context.Context, sdssID int64) (*models.Pipes, error) {
	query := `SELECT sdss_id, in_boss, in_apogee, in_astra
		FROM vizdb.sdss_id_to_pipes
		WHERE sdss_id = $1`
	row := db.timedQueryRow(ctx, "target_pipes", query, sdssID)

	var p models.Pipes
	if err := row.Scan(&p.SdssID, &p.Boss, &p.Apogee, &p.Astra); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: sdss_id %d", ErrTargetNotFound, sdssID)
		}
		return nil, fmt.Errorf("scanning pipes row: %w", err)
	}
	return &p, nil
}

// GetSpectrumFiles lists the spectral data files registered for a target,
// optionally filtered by release.
func (db *DB) GetSpectrumFiles(ctx context.Context, sdssID int64, release string) ([]models.SpectrumFile, error) {
	query := `SELECT product, pipeline, release, filepath
		FROM vizdb.spectrum_files
		WHERE sdss_id = $1 AND ($2 = '' OR release = $2)
		ORDER BY product, release`
	rows, err := db.timedQuery(ctx, "spectrum_files", query, sdssID, release)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.SpectrumFile
	for rows.Next() {
		var f models.SpectrumFile
		if err := rows.Scan(&f.Product, &f.Pipeline, &f.Release, &f.Filepath); err != nil {
			return nil, fmt.Errorf("scanning spectrum file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTarget(row *sql.Row) (*models.Target, error) {
	t, err := scanTargetRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTargetRow(s rowScanner) (*models.Target, error) {
	var t models.Target
	var c21, c25, c31 sql.NullInt64
	if err := s.Scan(&t.SdssID, &t.RA, &t.Dec, &c21, &c25, &c31); err != nil {
		return nil, err
	}
	if c21.Valid {
		t.Catalogid21 = &c21.Int64
	}
	if c25.Valid {
		t.Catalogid25 = &c25.Int64
	}
	if c31.Valid {
		t.Catalogid31 = &c31.Int64
	}
	return &t, nil
}
