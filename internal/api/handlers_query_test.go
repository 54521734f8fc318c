// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/sdss/valis/internal/config"
	"github.com/sdss/valis/internal/lookup"
	"github.com/sdss/valis/internal/models"
)

func TestConeSearchHandler(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec, env := doRequest(t, h, http.MethodGet,
		"/valis/query/cone?ra=230.508&dec=43.532&radius=0.05", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var results []models.ConeResult
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].SdssID != 23326 {
		t.Errorf("nearest sdss_id = %d, want 23326", results[0].SdssID)
	}
}

func TestConeSearchArcminUnits(t *testing.T) {
	h, _ := newTestServer(t, nil)

	// 3 arcmin = 0.05 deg, same circle as the degree test.
	rec, env := doRequest(t, h, http.MethodGet,
		"/valis/query/cone?ra=230.508&dec=43.532&radius=3&units=arcmin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var results []models.ConeResult
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestConeSearchValidation(t *testing.T) {
	h, _ := newTestServer(t, nil)

	cases := []struct {
		name string
		url  string
	}{
		{"missing radius", "/valis/query/cone?ra=230&dec=43"},
		{"missing position", "/valis/query/cone?radius=0.1"},
		{"ra out of range", "/valis/query/cone?ra=400&dec=43&radius=0.1"},
		{"dec out of range", "/valis/query/cone?ra=230&dec=91&radius=0.1"},
		{"radius above maximum", "/valis/query/cone?ra=230&dec=43&radius=10"},
		{"bad units", "/valis/query/cone?ra=230&dec=43&radius=0.1&units=parsec"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodGet, tc.url, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
		})
	}
}

func TestConeSearchByName(t *testing.T) {
	sesame := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%J 230.50745896 43.53232817 = 15 22 01.79 +43 31 56.3\n"))
	}))
	defer sesame.Close()

	resolver := lookup.NewResolver(config.LookupConfig{
		SesameURL:       sesame.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 3,
		BreakerCooldown: time.Minute,
	}, nil)

	h, _ := newTestServer(t, resolver)

	rec, env := doRequest(t, h, http.MethodGet,
		"/valis/query/cone?name=TIC101&radius=0.05", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var results []models.ConeResult
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if len(results) == 0 || results[0].SdssID != 23326 {
		t.Errorf("results = %+v, want sdss_id 23326 first", results)
	}
}

func TestConeSearchNameConflict(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec, env := doRequest(t, h, http.MethodGet,
		"/valis/query/cone?name=M51&ra=230&dec=43&radius=0.1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}
