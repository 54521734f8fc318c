// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sdss/valis/internal/cache"
	"github.com/sdss/valis/internal/logging"
)

// coneRequest carries a validated cone search. RA/Dec are decimal degrees,
// radius is degrees.
type coneRequest struct {
	RA     float64 `json:"ra" validate:"gte=0,lt=360"`
	Dec    float64 `json:"dec" validate:"gte=-90,lte=90"`
	Radius float64 `json:"radius" validate:"gt=0"`
	Limit  int     `json:"limit" validate:"gt=0"`
}

// ConeSearch finds targets within a radius of a sky position. The position
// comes from ra/dec query parameters, or from a "name" parameter resolved
// through Sesame. The radius unit defaults to degrees; "arcmin" and
// "arcsec" are accepted.
func (h *Handler) ConeSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	radius, ok := getFloatParam(r, "radius")
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "radius is required", nil)
		return
	}
	switch r.URL.Query().Get("units") {
	case "", "degree", "deg":
	case "arcmin":
		radius /= 60
	case "arcsec":
		radius /= 3600
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "units must be degree, arcmin, or arcsec", nil)
		return
	}

	ra, haveRA := getFloatParam(r, "ra")
	dec, haveDec := getFloatParam(r, "dec")
	if name := r.URL.Query().Get("name"); name != "" {
		if haveRA || haveDec {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name and ra/dec are mutually exclusive", nil)
			return
		}
		if h.resolver == nil {
			respondError(w, http.StatusNotImplemented, "UPSTREAM_ERROR", "Name resolution is not configured", nil)
			return
		}
		coords, err := h.resolver.Resolve(r.Context(), name)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		ra, dec = coords.RA, coords.Dec
	} else if !haveRA || !haveDec {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "ra and dec (or name) are required", nil)
		return
	}

	limit := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	req := coneRequest{RA: ra, Dec: dec, Radius: radius, Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if req.Radius > h.config.API.MaxConeRadius {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("radius %g deg exceeds the maximum of %g deg", req.Radius, h.config.API.MaxConeRadius), nil)
		return
	}

	key := cache.GenerateKey("cone", req)
	if cached, ok := h.cacheGet(key); ok {
		h.respondSuccess(w, cached, start, true)
		return
	}

	results, err := h.db.ConeSearch(r.Context(), req.RA, req.Dec, req.Radius, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Cone search failed", err)
		return
	}

	logging.Debug().
		Float64("ra", req.RA).
		Float64("dec", req.Dec).
		Float64("radius", req.Radius).
		Int("results", len(results)).
		Msg("Cone search")

	h.cacheSet(key, results)
	h.respondSuccess(w, results, start, false)
}
