// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package fitsio provides typed access to FITS files for the spectral
// extraction core. It wraps the pure-Go reader from github.com/siravan/fits
// behind a narrow interface: open a file, locate an extension by index or
// EXTNAME, and read table columns, table cells, image payloads, or header
// keywords as native-order float64 values.
//
// FITS stores all binary payloads big-endian; the underlying reader decodes
// them into native Go values at load time, so every array returned by this
// package is already in host byte order. Reading the same column twice
// yields bit-identical results.
package fitsio

import (
	"fmt"
	"io"
	"os"

	"github.com/siravan/fits"
)

// File is an open FITS file: an ordered list of HDUs plus lookup helpers.
// A File is safe for concurrent reads once opened.
type File struct {
	units []*fits.Unit
}

// Open reads all HDUs from r.
func Open(r io.Reader) (*File, error) {
	units, err := fits.Open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FITS stream: %w", err)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("FITS stream contains no HDUs")
	}
	return &File{units: units}, nil
}

// OpenPath opens and fully reads the FITS file at path.
func OpenPath(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Open(f)
}

// NumExt returns the number of HDUs, including the primary.
func (f *File) NumExt() int {
	return len(f.units)
}

// Ext returns the HDU at index i (0 is the primary HDU).
func (f *File) Ext(i int) (*fits.Unit, error) {
	if i < 0 || i >= len(f.units) {
		return nil, fmt.Errorf("extension %d out of range (file has %d HDUs)", i, len(f.units))
	}
	return f.units[i], nil
}

// ExtByName returns the HDU whose EXTNAME header equals name.
func (f *File) ExtByName(name string) (*fits.Unit, error) {
	for _, u := range f.units {
		if en, ok := u.Keys["EXTNAME"].(string); ok && en == name {
			return u, nil
		}
	}
	return nil, fmt.Errorf("no extension named %q", name)
}

// HasColumn reports whether the table HDU declares a column with the
// given TTYPE name.
func HasColumn(u *fits.Unit, name string) bool {
	_, ok := u.Keys["#"+name]
	return ok
}

// Column reads a named table column as a flat float64 array.
//
// Two table layouts appear in SDSS spectral products: one pixel per row
// (scalar cells, e.g. the BOSS coadd table) and one spectrum per row
// (array cells, e.g. the astra mwm tables). For scalar cells the column is
// assembled across all rows; for array cells the array in the first row is
// returned.
func Column(u *fits.Unit, name string) ([]float64, error) {
	if !u.HasTable() {
		return nil, fmt.Errorf("HDU is not a table")
	}
	if !HasColumn(u, name) {
		return nil, fmt.Errorf("table has no column %q", name)
	}
	fn := u.Field(name)
	nrows := u.Naxis[1]
	if nrows == 0 {
		return nil, nil
	}

	first := fn(0)
	if vals, ok := asFloatSlice(first); ok {
		return vals, nil
	}

	out := make([]float64, nrows)
	for row := 0; row < nrows; row++ {
		v, ok := asFloat(fn(row))
		if !ok {
			return nil, fmt.Errorf("column %q row %d holds non-numeric value %T", name, row, fn(row))
		}
		out[row] = v
	}
	return out, nil
}

// CellFloat reads a single numeric table cell.
func CellFloat(u *fits.Unit, name string, row int) (float64, error) {
	if !u.HasTable() {
		return 0, fmt.Errorf("HDU is not a table")
	}
	if !HasColumn(u, name) {
		return 0, fmt.Errorf("table has no column %q", name)
	}
	v, ok := asFloat(u.Field(name)(row))
	if !ok {
		return 0, fmt.Errorf("column %q row %d holds non-numeric value", name, row)
	}
	return v, nil
}

// Image reads an image HDU as a flat float64 array. For a 2-D image the
// first row (NAXIS1 values) is returned; SDSS coadd products store the
// combined spectrum in row zero and per-visit spectra below it.
func Image(u *fits.Unit) ([]float64, error) {
	if !u.HasImage() {
		return nil, fmt.Errorf("HDU is not an image")
	}
	n := u.Naxis[0]
	out := make([]float64, n)
	if len(u.Naxis) == 1 {
		for i := 0; i < n; i++ {
			out[i] = u.FloatAt(i)
		}
		return out, nil
	}
	for i := 0; i < n; i++ {
		out[i] = u.FloatAt(i, 0)
	}
	return out, nil
}

// HeaderFloat reads a numeric header keyword from the HDU.
func HeaderFloat(u *fits.Unit, key string) (float64, error) {
	v, ok := u.Keys[key]
	if !ok {
		return 0, fmt.Errorf("header has no keyword %q", key)
	}
	fv, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("header keyword %q is not numeric (%T)", key, v)
	}
	return fv, nil
}

// Header returns all keyword/value pairs of the HDU, skipping blank and
// structural entries with no value.
func Header(u *fits.Unit) map[string]interface{} {
	out := make(map[string]interface{}, len(u.Keys))
	for k, v := range u.Keys {
		if k == "" || k == "END" || k == "COMMENT" || k == "HISTORY" || v == nil {
			continue
		}
		if len(k) > 0 && k[0] == '#' { // internal column index bookkeeping
			continue
		}
		out[k] = v
	}
	return out
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case byte:
		return float64(x), true
	default:
		return 0, false
	}
}

func asFloatSlice(v interface{}) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		out := make([]float64, len(x))
		copy(out, x)
		return out, true
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []int16:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []int32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []int64:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []uint8:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	default:
		return nil, false
	}
}
