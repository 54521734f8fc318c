// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/sdss/valis/internal/logging"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Login verifies the configured credentials and issues a token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.jwt == nil || h.authn == nil {
		respondError(w, http.StatusNotImplemented, "AUTHENTICATION_ERROR", "Authentication is not configured", nil)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if !h.authn.Verify(req.Username, req.Password) {
		logging.Warn().Str("username", req.Username).Msg("Failed login attempt")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid credentials", nil)
		return
	}

	pair, err := h.jwt.GenerateTokenPair(req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "AUTHENTICATION_ERROR", "Failed to issue tokens", err)
		return
	}

	h.respondSuccess(w, pair, start, false)
}

// Verify validates the bearer token in the Authorization header and
// reports its claims.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.jwt == nil {
		respondError(w, http.StatusNotImplemented, "AUTHENTICATION_ERROR", "Authentication is not configured", nil)
		return
	}

	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Missing bearer token", nil)
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid or expired token", nil)
		return
	}

	h.respondSuccess(w, map[string]interface{}{
		"username":   claims.Username,
		"token_type": claims.TokenType,
		"expires_at": claims.ExpiresAt.Time,
	}, start, false)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.jwt == nil {
		respondError(w, http.StatusNotImplemented, "AUTHENTICATION_ERROR", "Authentication is not configured", nil)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	pair, err := h.jwt.Refresh(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid refresh token", nil)
		return
	}

	h.respondSuccess(w, pair, start, false)
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
