// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package models

// Target is the core metadata record for one SDSS target, keyed by its
// unified sdss_id. The per-crossmatch catalogids are nullable because not
// every target appears in every crossmatch run.
type Target struct {
	SdssID      int64   `json:"sdss_id"`
	RA          float64 `json:"ra_sdss_id"`
	Dec         float64 `json:"dec_sdss_id"`
	Catalogid21 *int64  `json:"catalogid21,omitempty"`
	Catalogid25 *int64  `json:"catalogid25,omitempty"`
	Catalogid31 *int64  `json:"catalogid31,omitempty"`
}

// ConeResult is one row of a cone search: a target plus its angular
// distance from the search center in degrees.
type ConeResult struct {
	SdssID   int64   `json:"sdss_id"`
	RA       float64 `json:"ra_sdss_id"`
	Dec      float64 `json:"dec_sdss_id"`
	Distance float64 `json:"distance"`
}

// Carton is one targeting carton assignment for a target.
type Carton struct {
	Carton   string `json:"carton"`
	CartonPK int64  `json:"carton_pk"`
	Program  string `json:"program"`
	Category string `json:"category"`
	Mapper   string `json:"mapper,omitempty"`
}

// Pipes reports which reduction pipelines have results for a target.
// Handlers use it to decide which spectral products can be served.
type Pipes struct {
	SdssID int64 `json:"sdss_id"`
	Boss   bool  `json:"boss"`
	Apogee bool  `json:"apogee"`
	Astra  bool  `json:"astra"`
}

// SpectrumFile describes one spectral data file available for a target.
type SpectrumFile struct {
	Product  string `json:"product"`
	Pipeline string `json:"pipeline"`
	Release  string `json:"release"`
	Filepath string `json:"filepath"`
}
