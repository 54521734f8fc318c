// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package spectra

import (
	"fmt"
	"math"

	"github.com/siravan/fits"

	"github.com/sdss/valis/internal/fitsio"
)

// reconstructAxis builds a wavelength array that is not stored explicitly
// in the file. "wcs" fields derive a log-linear grid from header keywords of
// the unit (falling back to the primary header); "wcscon" fields derive a
// linear grid from per-row WCS columns of the unit's table. All arithmetic
// is float64 throughout so grids are reproducible bit for bit.
func reconstructAxis(f *fitsio.File, u *fits.Unit, spec FieldSpec) ([]float64, error) {
	switch spec.Type {
	case TypeWCS:
		return wcsAxis(f, u, spec)
	case TypeWCSCon:
		return wcsconAxis(u, spec)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAxisType, spec.Type)
}

// wcsAxis computes 10^(CRVAL1 + i*CDELT1) for i in [0, nwave). SDSS
// pipelines write the reference value in log10 Angstroms, so the grid is
// exponentiated back to linear wavelength.
func wcsAxis(f *fitsio.File, u *fits.Unit, spec FieldSpec) ([]float64, error) {
	crval, cdelt, err := wcsKeywords(f, u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSourceFile, err)
	}
	return logLinearGrid(crval, cdelt, spec.NWave.Literal), nil
}

// wcsKeywords reads CRVAL1/CDELT1 from the unit's header, then from the
// primary header. apStar files keep the spectral WCS on the primary HDU
// while the data lives in later image extensions.
func wcsKeywords(f *fitsio.File, u *fits.Unit) (crval, cdelt float64, err error) {
	crval, err = fitsio.HeaderFloat(u, "CRVAL1")
	if err == nil {
		cdelt, err = fitsio.HeaderFloat(u, "CDELT1")
		if err == nil {
			return crval, cdelt, nil
		}
	}
	primary, perr := f.Ext(0)
	if perr != nil {
		return 0, 0, perr
	}
	crval, err = fitsio.HeaderFloat(primary, "CRVAL1")
	if err != nil {
		return 0, 0, fmt.Errorf("no spectral WCS keywords in extension or primary header: %v", err)
	}
	cdelt, err = fitsio.HeaderFloat(primary, "CDELT1")
	if err != nil {
		return 0, 0, fmt.Errorf("no spectral WCS keywords in extension or primary header: %v", err)
	}
	return crval, cdelt, nil
}

func logLinearGrid(crval, cdelt float64, nwave int) []float64 {
	out := make([]float64, nwave)
	for i := range out {
		out[i] = math.Pow(10, crval+float64(i)*cdelt)
	}
	return out
}

// wcsconAxis computes crval + i*cdelt for i in [0, nwave), reading all
// three parameters from row zero of the named table columns. Unlike the
// header-keyword form, these grids are already linear in wavelength.
func wcsconAxis(u *fits.Unit, spec FieldSpec) ([]float64, error) {
	nwaveF, err := fitsio.CellFloat(u, spec.NWave.Column, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSourceFile, err)
	}
	crval, err := fitsio.CellFloat(u, spec.CRVal, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSourceFile, err)
	}
	cdelt, err := fitsio.CellFloat(u, spec.CDelt, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSourceFile, err)
	}
	nwave := int(nwaveF)
	if nwave <= 0 {
		return nil, fmt.Errorf("%w: column %q gives non-positive pixel count %d", ErrMalformedSourceFile, spec.NWave.Column, nwave)
	}
	out := make([]float64, nwave)
	for i := range out {
		out[i] = crval + float64(i)*cdelt
	}
	return out, nil
}
