// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"net/http"
	"time"

	"github.com/sdss/valis/internal/models"
)

// HealthLive is the liveness probe. Returns 200 whenever the process is
// up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady is the readiness probe. Ready means the catalog database
// answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	statusCode := http.StatusOK
	status := "ready"
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Info reports API identity, default release, and the registered products.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	h.respondSuccess(w, map[string]interface{}{
		"name":        "valis",
		"description": "SDSS remote data access API",
		"version":     Version,
		"release":     h.config.Paths.Release,
		"products":    h.registry.Products(),
		"uptime":      time.Since(h.startTime).Seconds(),
	}, start, false)
}
