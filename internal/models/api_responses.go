// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package models defines the wire types shared by the valis HTTP API: the
// response envelope and the target, carton, and file metadata records.
package models

import (
	"time"
)

// APIResponse is the standardized wrapper for every HTTP endpoint.
//
// Status is "success" or "error". Data carries the payload on success;
// Error carries structured details on failure. Metadata is always present
// for observability.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability: the server
// timestamp, query execution time, and whether the response came from
// cache (QueryTimeMS is 0 for cache hits).
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Release     string    `json:"release,omitempty"`
}

// APIError is the structured error payload.
//
// Common codes: VALIDATION_ERROR, UNKNOWN_PRODUCT, INVALID_SUB_SPECTRUM,
// MALFORMED_SOURCE_FILE, NOT_FOUND, DATABASE_ERROR, AUTHENTICATION_ERROR,
// RATE_LIMIT_EXCEEDED, UPSTREAM_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
