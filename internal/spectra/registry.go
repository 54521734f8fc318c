// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package spectra

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

//go:embed products.json
var productsJSON []byte

// Registry holds the loaded format descriptors, indexed case-insensitively
// by canonical product name and every alias. It is immutable after Load.
type Registry struct {
	descriptors []*FormatDescriptor
	index       map[string]*FormatDescriptor
}

// Load parses and validates the embedded registry. Any parse or validation
// failure is fatal: callers must treat a non-nil error as a startup abort,
// since a partially loaded registry would fail unpredictably per request.
func Load() (*Registry, error) {
	return loadFrom(productsJSON)
}

func loadFrom(data []byte) (*Registry, error) {
	var descriptors []*FormatDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("parsing format registry: %w", err)
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("format registry is empty")
	}

	r := &Registry{
		descriptors: descriptors,
		index:       make(map[string]*FormatDescriptor, len(descriptors)*2),
	}
	for _, d := range descriptors {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("format registry: %w", err)
		}
		if err := r.addName(d.Product, d); err != nil {
			return nil, err
		}
		for _, alias := range d.Aliases {
			if err := r.addName(alias, d); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Registry) addName(name string, d *FormatDescriptor) error {
	key := strings.ToLower(name)
	if key == "" {
		return fmt.Errorf("format registry: product %s has an empty alias", d.Product)
	}
	if prev, ok := r.index[key]; ok && prev != d {
		return fmt.Errorf("format registry: name %q claimed by both %s and %s", name, prev.Product, d.Product)
	}
	r.index[key] = d
	return nil
}

// Lookup returns the descriptor for a product name or alias. Matching is
// case-insensitive. A miss returns ErrUnknownProduct wrapped with the
// requested name.
func (r *Registry) Lookup(product string) (*FormatDescriptor, error) {
	d, ok := r.index[strings.ToLower(product)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, product)
	}
	return d, nil
}

// Products returns the canonical product names in sorted order.
func (r *Registry) Products() []string {
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Product)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up a product and validates the sub-spectrum key against
// it. For single-spectrum products the key must be empty; for
// multi-spectrum products it must be one of the declared keys. The error
// for a bad key names the valid choices so clients can self-correct.
func (r *Registry) Resolve(product, subSpectrum string) (*FormatDescriptor, error) {
	d, err := r.Lookup(product)
	if err != nil {
		return nil, err
	}
	if !d.MultiSpectra {
		if subSpectrum != "" {
			return nil, fmt.Errorf("%w: product %s is single-spectrum, no sub-spectrum key applies", ErrInvalidSubSpectrum, d.Product)
		}
		return d, nil
	}
	if subSpectrum == "" {
		return nil, fmt.Errorf("%w: product %s requires a sub-spectrum key, one of %s",
			ErrInvalidSubSpectrum, d.Product, strings.Join(d.SpectralExtensions, ", "))
	}
	if !d.HasSubSpectrum(subSpectrum) {
		return nil, fmt.Errorf("%w: %q is not a spectrum of %s, valid keys are %s",
			ErrInvalidSubSpectrum, subSpectrum, d.Product, strings.Join(d.SpectralExtensions, ", "))
	}
	return d, nil
}
