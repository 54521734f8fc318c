// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"errors"
	"net/http"

	"github.com/sdss/valis/internal/database"
	"github.com/sdss/valis/internal/lookup"
	"github.com/sdss/valis/internal/spectra"
)

// respondDomainError maps domain errors to HTTP status codes and error
// codes in the response envelope. Unrecognized errors become a generic 500
// without leaking internals.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spectra.ErrUnknownProduct):
		respondError(w, http.StatusBadRequest, "UNKNOWN_PRODUCT", err.Error(), nil)
	case errors.Is(err, spectra.ErrInvalidSubSpectrum):
		respondError(w, http.StatusUnprocessableEntity, "INVALID_SUB_SPECTRUM", err.Error(), nil)
	case errors.Is(err, spectra.ErrUnsupportedAxisType):
		respondError(w, http.StatusInternalServerError, "UNSUPPORTED_AXIS_TYPE", err.Error(), err)
	case errors.Is(err, spectra.ErrMalformedSourceFile):
		respondError(w, http.StatusInternalServerError, "MALFORMED_SOURCE_FILE", err.Error(), err)
	case errors.Is(err, database.ErrTargetNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Target not found", nil)
	case errors.Is(err, lookup.ErrNameNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case lookup.IsUnavailable(err):
		respondError(w, http.StatusServiceUnavailable, "UPSTREAM_ERROR", "Name resolver unavailable", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
	}
}
