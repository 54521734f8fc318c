// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/sdss/valis/internal/config"
	"github.com/sdss/valis/internal/database"
	"github.com/sdss/valis/internal/fitsio/fitstest"
	"github.com/sdss/valis/internal/lookup"
	"github.com/sdss/valis/internal/maskbits"
	"github.com/sdss/valis/internal/models"
	"github.com/sdss/valis/internal/spectra"
)

// envelope mirrors models.APIResponse with a raw payload for per-test
// decoding.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8000,
			Timeout:     10 * time.Second,
			Environment: "development",
		},
		Database: config.DatabaseConfig{
			Driver:       "duckdb",
			Path:         "",
			MaxOpenConns: 2,
			MaxIdleConns: 1,
			ConnLifetime: time.Minute,
		},
		Paths: config.PathsConfig{
			SASBase: t.TempDir(),
			Release: "IPL3",
		},
		Security: config.SecurityConfig{
			AuthMode:          "none",
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		API: config.APIConfig{
			DefaultPageSize: 100,
			MaxPageSize:     1000,
			MaxConeRadius:   5.0,
		},
	}
}

func newTestDB(t *testing.T, cfg *config.Config) *database.DB {
	t.Helper()
	db, err := database.New(context.Background(), &cfg.Database)
	if err != nil {
		t.Fatalf("database.New error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := db.InitSnapshotSchema(ctx); err != nil {
		t.Fatalf("InitSnapshotSchema error = %v", err)
	}

	stmts := []string{
		`INSERT INTO vizdb.sdss_id_stacked VALUES (23326, 230.50745896, 43.53232817, 4544336, NULL, 63050396587)`,
		`INSERT INTO vizdb.sdss_id_stacked VALUES (54321, 230.51, 43.54, NULL, 27021597764, NULL)`,
		`INSERT INTO vizdb.sdss_id_to_pipes VALUES (23326, TRUE, FALSE, TRUE)`,
		`INSERT INTO targetdb.target_cartons VALUES (23326, 'mwm_snc_100pc', 1234, 'mwm_snc', 'science', 'MWM')`,
		`INSERT INTO targetdb.target_cartons VALUES (54321, 'bhm_spiders_agn', 2345, 'bhm_spiders', 'science', 'BHM')`,
		`INSERT INTO vizdb.spectrum_files VALUES (23326, 'specLite', 'boss', 'IPL3',
			'sdsswork/bhm/boss/spectro/redux/v6_1_3/spectra/lite/015078/59187/spec-015078-59187-4544336.fits')`,
	}
	for _, s := range stmts {
		if err := db.Exec(ctx, s); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	return db
}

// newTestServer builds the full route tree over an in-memory catalog and a
// temporary SAS directory. Auth is off and the cache is nil unless a test
// installs them itself.
func newTestServer(t *testing.T, resolver *lookup.Resolver) (http.Handler, *config.Config) {
	t.Helper()

	cfg := testConfig(t)
	db := newTestDB(t, cfg)

	registry, err := spectra.Load()
	if err != nil {
		t.Fatalf("spectra.Load error = %v", err)
	}
	schema, err := maskbits.Load()
	if err != nil {
		t.Fatalf("maskbits.Load error = %v", err)
	}

	handler := NewHandler(cfg, db, registry, schema, resolver, nil, nil, nil)
	router := NewRouter(handler, nil, NewChiMiddleware(&cfg.Security))
	return router.SetupChi(), cfg
}

func doRequest(t *testing.T, h http.Handler, method, path string, body *string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(*body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return rec, &env
}

// writeSASFile writes FITS bytes at a SAS-relative path under the test SAS
// base.
func writeSASFile(t *testing.T, cfg *config.Config, relPath string, b *fitstest.File) {
	t.Helper()

	full := filepath.Join(cfg.Paths.SASBase, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("creating SAS directory: %v", err)
	}
	if err := os.WriteFile(full, b.Bytes(), 0o600); err != nil {
		t.Fatalf("writing SAS file: %v", err)
	}
}

// bossLiteFile builds a minimal specLite coadd table, one pixel per row.
func bossLiteFile(loglam []float64) *fitstest.File {
	scalar := func(v float64) []float64 { return []float64{v} }
	cols := []fitstest.Col{
		{Name: "FLUX", Form: "E"},
		{Name: "LOGLAM", Form: "D"},
		{Name: "IVAR", Form: "E"},
		{Name: "OR_MASK", Form: "J"},
	}
	for i, l := range loglam {
		cols[0].Rows = append(cols[0].Rows, scalar(float64(i)+0.5))
		cols[1].Rows = append(cols[1].Rows, scalar(l))
		cols[2].Rows = append(cols[2].Rows, scalar(2.0))
		cols[3].Rows = append(cols[3].Rows, scalar(0))
	}
	return fitstest.New().AddBinTable("COADD", cols)
}

// mwmVisitFile builds an astra multi-spectrum file with one table per
// instrument/site key.
func mwmVisitFile(extnames ...string) *fitstest.File {
	b := fitstest.New()
	for _, name := range extnames {
		b.AddBinTable(name, []fitstest.Col{
			{Name: "flux", Form: "4E", Rows: [][]float64{{1, 2, 3, 4}}},
			{Name: "ivar", Form: "4E", Rows: [][]float64{{0.1, 0.2, 0.3, 0.4}}},
			{Name: "pixel_flags", Form: "4J", Rows: [][]float64{{0, 0, 1, 0}}},
			{Name: "npixels", Form: "J", Rows: [][]float64{{4}}},
			{Name: "crval", Form: "D", Rows: [][]float64{{4.0}}},
			{Name: "cdelt", Form: "D", Rows: [][]float64{{0.5}}},
		})
	}
	return b
}
