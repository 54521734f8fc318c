// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sdss/valis/internal/cache"
)

// MaskbitsFlags lists the known maskbit flag groups.
func (h *Handler) MaskbitsFlags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.respondSuccess(w, h.maskbits.Flags(), start, false)
}

// MaskbitsBits returns the bit definitions of one flag group.
func (h *Handler) MaskbitsBits(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	flag := chi.URLParam(r, "flag")
	bits, err := h.maskbits.Bits(flag)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}
	h.respondSuccess(w, bits, start, false)
}

// MaskbitsDecode converts a bitmask value into its set labels.
func (h *Handler) MaskbitsDecode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	flag := r.URL.Query().Get("flag")
	if flag == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "flag is required", nil)
		return
	}
	value, err := strconv.ParseInt(r.URL.Query().Get("value"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "value must be an integer", nil)
		return
	}

	type decodeParams struct {
		Flag  string
		Value int64
	}
	key := cache.GenerateKey("maskbits_decode", decodeParams{flag, value})
	if cached, ok := h.cacheGet(key); ok {
		h.respondSuccess(w, cached, start, true)
		return
	}

	labels, err := h.maskbits.Labels(flag, value)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	result := map[string]interface{}{
		"flag":   flag,
		"value":  value,
		"labels": labels,
	}
	h.cacheSet(key, result)
	h.respondSuccess(w, result, start, false)
}

// MaskbitsEncode converts a comma-separated list of labels into a bitmask
// value.
func (h *Handler) MaskbitsEncode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	flag := r.URL.Query().Get("flag")
	if flag == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "flag is required", nil)
		return
	}
	labels := parseCommaSeparated(r.URL.Query().Get("labels"))
	if len(labels) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "labels is required", nil)
		return
	}

	value, err := h.maskbits.Value(flag, labels)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	h.respondSuccess(w, map[string]interface{}{
		"flag":   flag,
		"labels": labels,
		"value":  value,
	}, start, false)
}
