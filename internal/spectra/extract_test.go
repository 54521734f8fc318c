// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package spectra

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/sdss/valis/internal/fitsio/fitstest"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	r, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return NewExtractor(r)
}

// bossLiteFile builds a minimal specLite layout: a coadd binary table at
// extension 1 with one pixel per row.
func bossLiteFile(loglam []float64) *fitstest.File {
	n := len(loglam)
	scalar := func(v float64) []float64 { return []float64{v} }
	cols := []fitstest.Col{
		{Name: "FLUX", Form: "E"},
		{Name: "LOGLAM", Form: "D"},
		{Name: "IVAR", Form: "E"},
		{Name: "OR_MASK", Form: "J"},
	}
	for i := 0; i < n; i++ {
		cols[0].Rows = append(cols[0].Rows, scalar(float64(i)+0.5))
		cols[1].Rows = append(cols[1].Rows, scalar(loglam[i]))
		cols[2].Rows = append(cols[2].Rows, scalar(2.0))
		cols[3].Rows = append(cols[3].Rows, scalar(0))
	}
	return fitstest.New().AddBinTable("COADD", cols)
}

// mwmFile builds a minimal astra multi-spectrum layout: one binary table
// per instrument/site pair, one spectrum per row with array cells.
func mwmFile(extnames ...string) *fitstest.File {
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

func TestExtractSpecLite(t *testing.T) {
	ex := newTestExtractor(t)
	loglam := []float64{3.55, 3.5501, 3.5502}
	f := openTestFile(t, bossLiteFile(loglam))

	spec, err := ex.Extract("specLite", "", f)
	if err != nil {
		t.Fatalf("Extract error = %v", err)
	}
	if spec.Product != "specLite" {
		t.Errorf("Product = %q, want specLite", spec.Product)
	}

	order := []string{"flux", "wavelength", "error", "mask"}
	if len(spec.Arrays) != len(order) {
		t.Fatalf("got %d arrays, want %d", len(spec.Arrays), len(order))
	}
	for i, name := range order {
		a := spec.Arrays[i]
		if a.Parameter != name {
			t.Errorf("Arrays[%d].Parameter = %q, want %q", i, a.Parameter, name)
		}
		if len(a.Values) != len(loglam) {
			t.Errorf("%s length = %d, want %d", name, len(a.Values), len(loglam))
		}
	}

	wave := spec.Arrays[1].Values
	for i, lg := range loglam {
		if want := math.Pow(10, lg); wave[i] != want {
			t.Errorf("wavelength[%d] = %v, want %v", i, wave[i], want)
		}
	}
	if got, want := spec.Arrays[0].Units, "1e-17 * erg / (s * cm**2 * Angstrom)"; got != want {
		t.Errorf("flux units = %q, want %q", got, want)
	}
	if spec.Arrays[3].Units != "" {
		t.Errorf("mask units = %q, want empty", spec.Arrays[3].Units)
	}
}

func TestExtractAliasEquivalence(t *testing.T) {
	ex := newTestExtractor(t)
	loglam := []float64{3.6, 3.6001}

	byCanonical, err := ex.Extract("specLite", "", openTestFile(t, bossLiteFile(loglam)))
	if err != nil {
		t.Fatalf("Extract(specLite) error = %v", err)
	}
	byAlias, err := ex.Extract("spec", "", openTestFile(t, bossLiteFile(loglam)))
	if err != nil {
		t.Fatalf("Extract(spec) error = %v", err)
	}
	if !reflect.DeepEqual(byCanonical, byAlias) {
		t.Errorf("alias extraction differs from canonical: %+v vs %+v", byAlias, byCanonical)
	}
}

func TestExtractApStar(t *testing.T) {
	const nwave = 8575
	pixels := make([]float64, nwave)
	for i := range pixels {
		pixels[i] = float64(i % 7)
	}
	b := fitstest.New(
		fitstest.Card{Key: "CRVAL1", Value: 4.179},
		fitstest.Card{Key: "CDELT1", Value: 6e-06},
	)
	b.AddImage("FLUX", pixels)
	b.AddImage("ERROR", pixels)
	b.AddImage("MASK", pixels)

	ex := newTestExtractor(t)
	spec, err := ex.Extract("apstar", "", openTestFile(t, b))
	if err != nil {
		t.Fatalf("Extract(apstar) error = %v", err)
	}
	wave := spec.Arrays[1]
	if len(wave.Values) != nwave {
		t.Fatalf("wavelength length = %d, want %d", len(wave.Values), nwave)
	}
	if want := math.Pow(10, 4.179); wave.Values[0] != want {
		t.Errorf("wavelength[0] = %v, want %v", wave.Values[0], want)
	}
	if got, want := spec.Arrays[0].Units, "1e-17 * erg / (s * cm**2 * Angstrom)"; got != want {
		t.Errorf("flux units = %q, want %q", got, want)
	}
	for _, a := range spec.Arrays {
		if len(a.Values) != nwave {
			t.Errorf("%s length = %d, want %d", a.Parameter, len(a.Values), nwave)
		}
	}
}

func TestExtractMwmVisit(t *testing.T) {
	ex := newTestExtractor(t)
	f := openTestFile(t, mwmFile("BOSS/APO", "BOSS/LCO"))

	spec, err := ex.Extract("mwmvisit", "BOSS/APO", f)
	if err != nil {
		t.Fatalf("Extract(mwmvisit, BOSS/APO) error = %v", err)
	}
	wave := spec.Arrays[1].Values
	want := []float64{4.0, 4.5, 5.0, 5.5}
	if !reflect.DeepEqual(wave, want) {
		t.Errorf("wavelength = %v, want %v", wave, want)
	}
	for _, a := range spec.Arrays {
		if len(a.Values) != 4 {
			t.Errorf("%s length = %d, want 4", a.Parameter, len(a.Values))
		}
	}
	if spec.SubSpectrum != "BOSS/APO" {
		t.Errorf("SubSpectrum = %q, want BOSS/APO", spec.SubSpectrum)
	}
}

func TestExtractMwmVisitBadKey(t *testing.T) {
	ex := newTestExtractor(t)
	f := openTestFile(t, mwmFile("BOSS/APO"))

	_, err := ex.Extract("mwmvisit", "XYZ/FOO", f)
	if !errors.Is(err, ErrInvalidSubSpectrum) {
		t.Fatalf("Extract error = %v, want ErrInvalidSubSpectrum", err)
	}
	for _, key := range []string{"BOSS/APO", "BOSS/LCO", "APOGEE/APO", "APOGEE/LCO"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not list valid key %q", err, key)
		}
	}
}

func TestExtractSubSpectrumOnSingleProduct(t *testing.T) {
	ex := newTestExtractor(t)
	f := openTestFile(t, bossLiteFile([]float64{3.55}))

	if _, err := ex.Extract("spec", "BOSS/APO", f); !errors.Is(err, ErrInvalidSubSpectrum) {
		t.Fatalf("Extract error = %v, want ErrInvalidSubSpectrum", err)
	}
}

func TestExtractMissingColumn(t *testing.T) {
	cols := []fitstest.Col{
		{Name: "FLUX", Form: "E", Rows: [][]float64{{1}}},
		{Name: "LOGLAM", Form: "D", Rows: [][]float64{{3.55}}},
		{Name: "OR_MASK", Form: "J", Rows: [][]float64{{0}}},
	}
	f := openTestFile(t, fitstest.New().AddBinTable("COADD", cols))

	ex := newTestExtractor(t)
	_, err := ex.Extract("spec", "", f)
	if !errors.Is(err, ErrMalformedSourceFile) {
		t.Fatalf("Extract error = %v, want ErrMalformedSourceFile", err)
	}
	if !strings.Contains(err.Error(), "IVAR") {
		t.Errorf("error %q does not name the missing column", err)
	}
}

func TestExtractMissingExtension(t *testing.T) {
	ex := newTestExtractor(t)
	f := openTestFile(t, fitstest.New().AddImage("FLUX", []float64{1, 2}))

	if _, err := ex.Extract("apstar", "", f); !errors.Is(err, ErrMalformedSourceFile) {
		t.Fatalf("Extract error = %v, want ErrMalformedSourceFile", err)
	}
}

func TestExtractLengthMismatch(t *testing.T) {
	b := fitstest.New().AddBinTable("BOSS/APO", []fitstest.Col{
		{Name: "flux", Form: "4E", Rows: [][]float64{{1, 2, 3, 4}}},
		{Name: "ivar", Form: "4E", Rows: [][]float64{{1, 1, 1, 1}}},
		{Name: "pixel_flags", Form: "4J", Rows: [][]float64{{0, 0, 0, 0}}},
		{Name: "npixels", Form: "J", Rows: [][]float64{{5}}},
		{Name: "crval", Form: "D", Rows: [][]float64{{4.0}}},
		{Name: "cdelt", Form: "D", Rows: [][]float64{{0.5}}},
	})
	ex := newTestExtractor(t)

	_, err := ex.Extract("mwmvisit", "BOSS/APO", openTestFile(t, b))
	if !errors.Is(err, ErrMalformedSourceFile) {
		t.Fatalf("Extract error = %v, want ErrMalformedSourceFile", err)
	}
}
