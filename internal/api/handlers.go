// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package api implements the valis HTTP surface: routing, request
// validation, and the translation between domain errors and the JSON
// response envelope. Handler methods are split across files by endpoint
// group (health, auth, query, target, files, maskbits).
package api

import (
	"time"

	"github.com/sdss/valis/internal/auth"
	"github.com/sdss/valis/internal/cache"
	"github.com/sdss/valis/internal/config"
	"github.com/sdss/valis/internal/database"
	"github.com/sdss/valis/internal/lookup"
	"github.com/sdss/valis/internal/maskbits"
	"github.com/sdss/valis/internal/paths"
	"github.com/sdss/valis/internal/spectra"
)

// Version is the API version reported by /valis/info.
const Version = "1.0.0"

// Handler holds the dependencies shared by all endpoint handlers.
type Handler struct {
	config    *config.Config
	db        *database.DB
	registry  *spectra.Registry
	extractor *spectra.Extractor
	paths     *paths.Builder
	maskbits  *maskbits.Schema
	resolver  *lookup.Resolver
	jwt       *auth.JWTManager
	authn     *auth.Authenticator
	cache     *cache.Cache
	startTime time.Time
}

// NewHandler wires the API handler. The cache and resolver may be nil, in
// which case responses are uncached and name resolution is unavailable.
func NewHandler(
	cfg *config.Config,
	db *database.DB,
	registry *spectra.Registry,
	schema *maskbits.Schema,
	resolver *lookup.Resolver,
	jwt *auth.JWTManager,
	authn *auth.Authenticator,
	c *cache.Cache,
) *Handler {
	return &Handler{
		config:    cfg,
		db:        db,
		registry:  registry,
		extractor: spectra.NewExtractor(registry),
		paths:     paths.NewBuilder(cfg.Paths.SASBase),
		maskbits:  schema,
		resolver:  resolver,
		jwt:       jwt,
		authn:     authn,
		cache:     c,
		startTime: time.Now(),
	}
}

// cacheGet looks up a cached payload. Returns false when caching is
// disabled.
func (h *Handler) cacheGet(key string) (interface{}, bool) {
	if h.cache == nil {
		return nil, false
	}
	return h.cache.Get(key)
}

func (h *Handler) cacheSet(key string, value interface{}) {
	if h.cache != nil {
		h.cache.Set(key, value)
	}
}
