// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sdss/valis/internal/fitsio"
	"github.com/sdss/valis/internal/logging"
	"github.com/sdss/valis/internal/metrics"
	"github.com/sdss/valis/internal/models"
	"github.com/sdss/valis/internal/spectra"
)

// TargetBySdssID returns the catalog record for one sdss_id.
func (h *Handler) TargetBySdssID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	target, err := h.db.GetTargetBySdssID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.respondSuccess(w, target, start, false)
}

// TargetsByCatalogID returns all targets carrying a catalogid in any of
// the tracked catalog versions.
func (h *Handler) TargetsByCatalogID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := pathInt64(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	targets, err := h.db.GetTargetsByCatalogID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Catalog lookup failed", err)
		return
	}
	h.respondSuccess(w, targets, start, false)
}

// TargetCartons returns the carton and program memberships of a target.
func (h *Handler) TargetCartons(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := pathInt64(chi.URLParam(r, "sdss_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	cartons, err := h.db.GetTargetCartons(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Carton lookup failed", err)
		return
	}
	h.respondSuccess(w, cartons, start, false)
}

// CartonsList lists the cartons known to the catalog. The optional search
// parameter filters by substring on the carton or program name.
func (h *Handler) CartonsList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	cartons, err := h.db.ListCartons(r.Context(), r.URL.Query().Get("search"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Carton listing failed", err)
		return
	}
	h.respondSuccess(w, cartons, start, false)
}

// TargetPipes reports which reduction pipelines have output for a target.
func (h *Handler) TargetPipes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := pathInt64(chi.URLParam(r, "sdss_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	pipes, err := h.db.GetTargetPipes(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.respondSuccess(w, pipes, start, false)
}

// TargetSpectra extracts spectra for a target. The product query parameter
// names the file format; ext selects a sub-spectrum for multi-spectra
// products. Files come from the spectrum_files catalog, rooted at the SAS
// base directory.
func (h *Handler) TargetSpectra(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := pathInt64(chi.URLParam(r, "sdss_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	product := r.URL.Query().Get("product")
	if product == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "product is required", nil)
		return
	}
	descriptor, err := h.registry.Lookup(product)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	release := r.URL.Query().Get("release")
	if release == "" {
		release = h.config.Paths.Release
	}

	files, err := h.db.GetSpectrumFiles(r.Context(), id, release)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Spectrum file lookup failed", err)
		return
	}

	subSpectrum := r.URL.Query().Get("ext")
	records := make([]*spectra.Spectrum, 0, len(files))
	for _, file := range files {
		if !strings.EqualFold(file.Product, descriptor.Product) {
			continue
		}
		spectrum, err := h.extractFile(file, descriptor.Product, subSpectrum)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		records = append(records, spectrum)
	}

	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No spectrum files for target", nil)
		return
	}

	logging.Info().
		Int64("sdss_id", id).
		Str("product", descriptor.Product).
		Int("files", len(records)).
		Msg("Extracted target spectra")

	h.respondSuccess(w, records, start, false)
}

// extractFile opens one catalogued spectrum file and runs the extractor
// over it, recording extraction metrics.
func (h *Handler) extractFile(file models.SpectrumFile, product, subSpectrum string) (*spectra.Spectrum, error) {
	extractStart := time.Now()

	f, err := fitsio.OpenPath(filepath.Join(h.config.Paths.SASBase, file.Filepath))
	if err != nil {
		metrics.RecordExtraction(product, time.Since(extractStart), err)
		return nil, err
	}

	spectrum, err := h.extractor.Extract(product, subSpectrum, f)
	metrics.RecordExtraction(product, time.Since(extractStart), err)
	if err != nil {
		return nil, err
	}
	return spectrum, nil
}
