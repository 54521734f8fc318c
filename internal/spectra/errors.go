// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package spectra

import "errors"

// Error kinds for the extraction core. Registry load failures are returned
// as plain errors from Load and abort startup; everything below is caught
// at the request boundary and mapped to a structured error response.
var (
	// ErrUnknownProduct indicates the requested product name matches no
	// registry entry or alias.
	ErrUnknownProduct = errors.New("unknown data product")

	// ErrInvalidSubSpectrum indicates a sub-spectrum key was supplied for a
	// single-spectrum product, omitted for a multi-spectrum product, or is
	// not one of the product's declared keys.
	ErrInvalidSubSpectrum = errors.New("invalid sub-spectrum")

	// ErrUnsupportedAxisType indicates the registry and the extraction code
	// have drifted: a field type reached the axis reconstructor that it does
	// not implement. This is a configuration error, not a data error.
	ErrUnsupportedAxisType = errors.New("unsupported axis type")

	// ErrMalformedSourceFile indicates the file on disk does not match its
	// descriptor: a declared extension or column is absent, or the four
	// field arrays disagree on length after assembly.
	ErrMalformedSourceFile = errors.New("malformed source file")
)
