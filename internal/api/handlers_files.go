// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"net/http"
	"os"
	"time"

	"github.com/sdss/valis/internal/fitsio"
	"github.com/sdss/valis/internal/metrics"
	"github.com/sdss/valis/internal/paths"
)

// FilesProducts lists the registered products with their path templates
// and the template variables each requires.
func (h *Handler) FilesProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	type productInfo struct {
		Product      string   `json:"product"`
		Template     string   `json:"template"`
		Placeholders []string `json:"placeholders"`
	}

	products := h.registry.Products()
	infos := make([]productInfo, 0, len(products))
	for _, product := range products {
		template, ok := paths.Template(product)
		if !ok {
			continue
		}
		placeholders, err := paths.Placeholders(product)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Template inspection failed", err)
			return
		}
		infos = append(infos, productInfo{
			Product:      product,
			Template:     template,
			Placeholders: placeholders,
		})
	}

	h.respondSuccess(w, infos, start, false)
}

// resolveFilePath builds the physical SAS path for a product from the
// template variables passed as query parameters. Returns the canonical
// product name alongside the path.
func (h *Handler) resolveFilePath(r *http.Request) (string, string, *pathError) {
	product := r.URL.Query().Get("product")
	if product == "" {
		return "", "", &pathError{http.StatusBadRequest, "VALIDATION_ERROR", "product is required", nil}
	}

	descriptor, err := h.registry.Lookup(product)
	if err != nil {
		return "", "", &pathError{0, "", "", err}
	}

	placeholders, err := paths.Placeholders(descriptor.Product)
	if err != nil {
		return "", "", &pathError{http.StatusInternalServerError, "INTERNAL_ERROR", "No path template for product", err}
	}

	vars := make(map[string]string, len(placeholders))
	for _, name := range placeholders {
		if value := r.URL.Query().Get(name); value != "" {
			vars[name] = value
		}
	}

	path, err := h.paths.Build(descriptor.Product, vars)
	if err != nil {
		return "", "", &pathError{http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil}
	}
	return path, descriptor.Product, nil
}

// pathError carries either a direct HTTP error or a domain error to be
// mapped by respondDomainError.
type pathError struct {
	status  int
	code    string
	message string
	domain  error
}

func (h *Handler) respondPathError(w http.ResponseWriter, pe *pathError) {
	if pe.domain != nil && pe.status == 0 {
		respondDomainError(w, pe.domain)
		return
	}
	respondError(w, pe.status, pe.code, pe.message, pe.domain)
}

// FilesSpectrum extracts a spectrum directly from a product name and path
// template variables. The optional ext parameter selects a sub-spectrum.
func (h *Handler) FilesSpectrum(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	path, product, pe := h.resolveFilePath(r)
	if pe != nil {
		h.respondPathError(w, pe)
		return
	}

	extractStart := time.Now()
	f, err := fitsio.OpenPath(path)
	if err != nil {
		metrics.RecordExtraction(product, time.Since(extractStart), err)
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Spectrum file not found", err)
		return
	}
	recordFileRead(path)

	spectrum, err := h.extractor.Extract(product, r.URL.Query().Get("ext"), f)
	metrics.RecordExtraction(product, time.Since(extractStart), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.respondSuccess(w, spectrum, start, false)
}

// FilesHeader returns the FITS header of one HDU of a resolved file.
func (h *Handler) FilesHeader(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	path, _, pe := h.resolveFilePath(r)
	if pe != nil {
		h.respondPathError(w, pe)
		return
	}

	f, err := fitsio.OpenPath(path)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "File not found", err)
		return
	}
	recordFileRead(path)

	ext := getIntParam(r, "ext", 0)
	unit, err := f.Ext(ext)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	h.respondSuccess(w, map[string]interface{}{
		"path":   path,
		"ext":    ext,
		"header": fitsio.Header(unit),
	}, start, false)
}

// FilesDownload streams a resolved file to the client.
func (h *Handler) FilesDownload(w http.ResponseWriter, r *http.Request) {
	path, _, pe := h.resolveFilePath(r)
	if pe != nil {
		h.respondPathError(w, pe)
		return
	}

	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "File not found", nil)
		return
	}
	recordFileRead(path)

	w.Header().Set("Content-Type", "application/fits")
	http.ServeFile(w, r, path)
}

// recordFileRead adds the file size to the bytes-read counter. Best
// effort, a stat failure is ignored.
func recordFileRead(path string) {
	if info, err := os.Stat(path); err == nil {
		metrics.FileBytesRead.Add(float64(info.Size()))
	}
}
