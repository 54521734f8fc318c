// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package spectra is the spectral extraction core of valis. Given a data
// product name and an open FITS file, it locates, decodes, and normalizes
// flux, wavelength, error, and mask arrays into a canonical SpectralRecord,
// reconstructing wavelength grids that are not stored explicitly in the
// file.
//
// The behavior of the core is driven entirely by a declarative format
// registry (products.json, embedded at build time): each SDSS data product
// maps to a FormatDescriptor saying where each of the four semantic fields
// lives and how its axis is encoded. Adding support for a new product is a
// registry edit, not a code change, unless it introduces a new axis
// encoding.
package spectra

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Field names of the four semantic arrays every spectral record carries.
const (
	FieldFlux       = "flux"
	FieldWavelength = "wavelength"
	FieldError      = "error"
	FieldMask       = "mask"
)

// fieldNames lists the required parameter keys in extraction order.
var fieldNames = []string{FieldFlux, FieldWavelength, FieldError, FieldMask}

// FieldType is the closed set of extraction strategies. It is a sum type
// rather than a free-form string so that a misspelled or novel kind is
// rejected when the registry loads, not when a request arrives.
type FieldType string

const (
	// TypeTable reads the field verbatim from a binary-table column.
	TypeTable FieldType = "table"
	// TypeImage reads the field from an image extension payload.
	TypeImage FieldType = "image"
	// TypeWCS reconstructs a log-linear wavelength axis from file-global
	// header keywords and a literal pixel count.
	TypeWCS FieldType = "wcs"
	// TypeWCSCon reconstructs a linear wavelength axis from per-row WCS
	// columns; the pixel count itself is read from a named column.
	TypeWCSCon FieldType = "wcscon"
)

func (t FieldType) valid() bool {
	switch t {
	case TypeTable, TypeImage, TypeWCS, TypeWCSCon:
		return true
	}
	return false
}

// NWave is the pixel-count attribute of an axis-reconstruction FieldSpec.
// For "wcs" fields it is a literal integer; for "wcscon" fields it names
// the table column holding the per-row pixel count.
type NWave struct {
	Literal int
	Column  string
}

// UnmarshalJSON accepts either an integer or a column-name string.
func (n *NWave) UnmarshalJSON(data []byte) error {
	var lit int
	if err := json.Unmarshal(data, &lit); err == nil {
		n.Literal = lit
		return nil
	}
	var col string
	if err := json.Unmarshal(data, &col); err == nil {
		n.Column = col
		return nil
	}
	return fmt.Errorf("nwave must be an integer or a column name, got %s", data)
}

// IsZero reports whether the attribute was absent from the registry entry.
func (n NWave) IsZero() bool {
	return n.Literal == 0 && n.Column == ""
}

// FieldSpec describes how to extract one of the four fields from a file.
type FieldSpec struct {
	// Extension is the HDU index holding the data. For multi-spectrum
	// products the sub-spectrum key selects a named extension instead and
	// this index is ignored.
	Extension int `json:"extension"`

	// Type selects the extraction strategy.
	Type FieldType `json:"type"`

	// Column is the table column, image label, or WCS keyword the field
	// reads, depending on Type.
	Column string `json:"column"`

	// Units is the physical unit string attached verbatim to the output
	// array; empty means dimensionless or unspecified.
	Units string `json:"units,omitempty"`

	// NWave, CRVal, and CDelt are axis-reconstruction attributes, present
	// only for "wcs" and "wcscon" fields. CRVal and CDelt name the columns
	// holding the per-row reference wavelength and step ("wcscon" only).
	NWave NWave  `json:"nwave,omitempty"`
	CRVal string `json:"crval,omitempty"`
	CDelt string `json:"cdelt,omitempty"`
}

// FormatDescriptor is the immutable description of one data product's file
// layout. Descriptors are created once by Load and never mutated.
type FormatDescriptor struct {
	// Product is the canonical name, the unique registry key.
	Product string `json:"product"`

	// Aliases are alternate names resolving to this descriptor,
	// case-insensitively.
	Aliases []string `json:"aliases"`

	// Pipeline tags the producing pipeline (boss, apogee, astra). The core
	// does not interpret it; callers use it to route file-path building.
	Pipeline string `json:"pipeline"`

	// MultiSpectra marks products whose files bundle several logical
	// spectra selected by a sub-spectrum key.
	MultiSpectra bool `json:"multi_spectra"`

	// SpectralExtensions lists the valid sub-spectrum keys, in file order.
	// Present only when MultiSpectra is true. Each key is an
	// instrument/site pair such as "BOSS/APO" and names the FITS extension
	// holding that spectrum.
	SpectralExtensions []string `json:"spectral_extensions,omitempty"`

	// Parameters maps each of flux, wavelength, error, and mask to its
	// extraction spec.
	Parameters map[string]FieldSpec `json:"parameters"`
}

// HasSubSpectrum reports whether key is one of the descriptor's declared
// sub-spectrum keys.
func (d *FormatDescriptor) HasSubSpectrum(key string) bool {
	for _, k := range d.SpectralExtensions {
		if k == key {
			return true
		}
	}
	return false
}

// validate checks a descriptor at load time. Any failure here is a
// registry configuration error and must abort startup rather than surface
// per request.
func (d *FormatDescriptor) validate() error {
	if d.Product == "" {
		return fmt.Errorf("descriptor missing product name")
	}
	if d.MultiSpectra && len(d.SpectralExtensions) == 0 {
		return fmt.Errorf("product %s: multi_spectra set but no spectral_extensions declared", d.Product)
	}
	if !d.MultiSpectra && len(d.SpectralExtensions) > 0 {
		return fmt.Errorf("product %s: spectral_extensions declared on a single-spectrum product", d.Product)
	}
	for _, name := range fieldNames {
		spec, ok := d.Parameters[name]
		if !ok {
			return fmt.Errorf("product %s: missing parameter %q", d.Product, name)
		}
		if !spec.Type.valid() {
			return fmt.Errorf("product %s, field %s: unknown type %q", d.Product, name, spec.Type)
		}
		if spec.Column == "" {
			return fmt.Errorf("product %s, field %s: missing column", d.Product, name)
		}
		switch spec.Type {
		case TypeWCS:
			if name != FieldWavelength {
				return fmt.Errorf("product %s, field %s: axis type %q only applies to the wavelength field", d.Product, name, spec.Type)
			}
			if spec.NWave.Literal <= 0 {
				return fmt.Errorf("product %s: wcs wavelength needs a literal nwave pixel count", d.Product)
			}
		case TypeWCSCon:
			if name != FieldWavelength {
				return fmt.Errorf("product %s, field %s: axis type %q only applies to the wavelength field", d.Product, name, spec.Type)
			}
			if spec.NWave.Column == "" || spec.CRVal == "" || spec.CDelt == "" {
				return fmt.Errorf("product %s: wcscon wavelength needs nwave, crval, and cdelt column names", d.Product)
			}
		default:
			if !spec.NWave.IsZero() || spec.CRVal != "" || spec.CDelt != "" {
				return fmt.Errorf("product %s, field %s: axis attributes declared on a %q field", d.Product, name, spec.Type)
			}
		}
	}
	for k := range d.Parameters {
		switch k {
		case FieldFlux, FieldWavelength, FieldError, FieldMask:
		default:
			return fmt.Errorf("product %s: unknown parameter %q", d.Product, k)
		}
	}
	return nil
}
