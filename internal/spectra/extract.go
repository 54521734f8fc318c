// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package spectra

import (
	"fmt"
	"math"
	"strings"

	"github.com/siravan/fits"

	"github.com/sdss/valis/internal/fitsio"
)

// Array is one extracted semantic array with its attached physical units.
// The JSON shape matches what the spectrum endpoints return.
type Array struct {
	Parameter string    `json:"parameter"`
	Values    []float64 `json:"value"`
	Units     string    `json:"units,omitempty"`
}

// Spectrum is the canonical extraction result: the four semantic arrays in
// fixed order (flux, wavelength, error, mask), all of equal length.
type Spectrum struct {
	Product     string  `json:"product"`
	SubSpectrum string  `json:"sub_spectrum,omitempty"`
	Arrays      []Array `json:"data"`
}

// Extractor turns an open FITS file into a Spectrum according to the
// format registry. It holds no per-request state and is safe for
// concurrent use.
type Extractor struct {
	registry *Registry
}

// NewExtractor returns an extractor backed by the given registry.
func NewExtractor(r *Registry) *Extractor {
	return &Extractor{registry: r}
}

// Extract resolves product and subSpectrum against the registry and pulls
// the four field arrays out of f.
//
// For multi-spectrum products the sub-spectrum key names the FITS
// extension holding the spectrum, overriding each field's extension index.
// Any mismatch between the descriptor and the file, including a length
// disagreement between the assembled arrays, reports
// ErrMalformedSourceFile.
func (e *Extractor) Extract(product, subSpectrum string, f *fitsio.File) (*Spectrum, error) {
	d, err := e.registry.Resolve(product, subSpectrum)
	if err != nil {
		return nil, err
	}

	out := &Spectrum{
		Product:     d.Product,
		SubSpectrum: subSpectrum,
		Arrays:      make([]Array, 0, len(fieldNames)),
	}
	for _, name := range fieldNames {
		spec := d.Parameters[name]
		u, err := fieldUnit(d, subSpectrum, spec, f)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrMalformedSourceFile, name, err)
		}
		values, err := extractField(f, u, name, spec)
		if err != nil {
			return nil, err
		}
		out.Arrays = append(out.Arrays, annotate(name, spec, values))
	}

	if err := checkLengths(out.Arrays); err != nil {
		return nil, err
	}
	return out, nil
}

// fieldUnit locates the HDU a field reads from: the named extension for
// multi-spectrum products, the declared index otherwise.
func fieldUnit(d *FormatDescriptor, subSpectrum string, spec FieldSpec, f *fitsio.File) (*fits.Unit, error) {
	if d.MultiSpectra {
		return f.ExtByName(subSpectrum)
	}
	return f.Ext(spec.Extension)
}

func extractField(f *fitsio.File, u *fits.Unit, name string, spec FieldSpec) ([]float64, error) {
	switch spec.Type {
	case TypeTable:
		values, err := fitsio.Column(u, spec.Column)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrMalformedSourceFile, name, err)
		}
		if isLogWavelength(spec.Column) {
			values = exp10(values)
		}
		return values, nil
	case TypeImage:
		values, err := fitsio.Image(u)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrMalformedSourceFile, name, err)
		}
		return values, nil
	case TypeWCS, TypeWCSCon:
		return reconstructAxis(f, u, spec)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAxisType, spec.Type)
}

// isLogWavelength reports whether a table column stores wavelength as
// log10 Angstroms. BOSS names the column LOGLAM; the check follows the
// naming convention rather than a registry flag.
func isLogWavelength(column string) bool {
	return strings.Contains(strings.ToLower(column), "loglam")
}

func exp10(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Pow(10, v)
	}
	return out
}

func checkLengths(arrays []Array) error {
	n := len(arrays[0].Values)
	for _, a := range arrays[1:] {
		if len(a.Values) != n {
			return fmt.Errorf("%w: %s has %d values but %s has %d",
				ErrMalformedSourceFile, arrays[0].Parameter, n, a.Parameter, len(a.Values))
		}
	}
	return nil
}
