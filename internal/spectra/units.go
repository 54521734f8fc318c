// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package spectra

// annotate attaches the registry's unit string to an extracted array. The
// string is carried verbatim from the registry; the core performs no unit
// conversion or validation.
func annotate(name string, spec FieldSpec, values []float64) Array {
	return Array{
		Parameter: name,
		Values:    values,
		Units:     spec.Units,
	}
}

// Units returns the unit string of each field of a product, keyed by field
// name. Unknown products report ErrUnknownProduct. Fields without units
// (typically the mask) map to the empty string.
func (r *Registry) Units(product string) (map[string]string, error) {
	d, err := r.Lookup(product)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		out[name] = d.Parameters[name].Units
	}
	return out, nil
}
