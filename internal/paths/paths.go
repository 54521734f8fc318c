// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package paths builds Science Archive Server file paths from per-product
// templates, the Go counterpart of the sdss_access template tree. A
// template is a relative path with {placeholder} fields filled from
// request parameters.
package paths

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// templates maps product names to their SAS-relative path templates.
// Placeholder names follow the sdss_access convention.
var templates = map[string]string{
	"specLite": "sdsswork/bhm/boss/spectro/redux/{run2d}/spectra/lite/{fieldid}/{mjd}/spec-{fieldid}-{mjd}-{catalogid}.fits",
	"specFull": "sdsswork/bhm/boss/spectro/redux/{run2d}/spectra/full/{fieldid}/{mjd}/spec-{fieldid}-{mjd}-{catalogid}.fits",
	"apStar":   "sdsswork/mwm/apogee/spectro/redux/{apred}/stars/{telescope}/{healpixgrp}/{healpix}/apStar-{apred}-{telescope}-{obj}.fits",
	"apVisit":  "sdsswork/mwm/apogee/spectro/redux/{apred}/visit/{telescope}/{field}/{plate}/{mjd}/apVisit-{apred}-{plate}-{mjd}-{fiber}.fits",
	"mwmVisit": "sdsswork/mwm/spectro/astra/{v_astra}/spectra/visit/{sdssid_group}/mwmVisit-{v_astra}-{sdss_id}.fits",
	"mwmStar":  "sdsswork/mwm/spectro/astra/{v_astra}/spectra/star/{sdssid_group}/mwmStar-{v_astra}-{sdss_id}.fits",
}

var placeholderRe = regexp.MustCompile(`\{([a-z_0-9]+)\}`)

// Builder resolves product file paths under a SAS root.
type Builder struct {
	base string
}

// NewBuilder creates a path builder rooted at the local SAS mirror.
func NewBuilder(base string) *Builder {
	return &Builder{base: base}
}

// Products returns the product names with registered templates, sorted.
func Products() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns the raw template for a product.
func Template(product string) (string, bool) {
	t, ok := templates[product]
	return t, ok
}

// Placeholders returns the placeholder names a product's template
// requires, in template order.
func Placeholders(product string) ([]string, error) {
	t, ok := templates[product]
	if !ok {
		return nil, fmt.Errorf("no path template for product %q", product)
	}
	matches := placeholderRe.FindAllStringSubmatch(t, -1)
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names, nil
}

// Build fills a product's template with the given variables and joins it
// under the SAS base. Every placeholder must be supplied, and no value may
// escape the tree with path separators or parent references.
func (b *Builder) Build(product string, vars map[string]string) (string, error) {
	t, ok := templates[product]
	if !ok {
		return "", fmt.Errorf("no path template for product %q", product)
	}

	var missing []string
	filled := placeholderRe.ReplaceAllStringFunc(t, func(m string) string {
		name := m[1 : len(m)-1]
		val, ok := vars[name]
		if !ok || val == "" {
			missing = append(missing, name)
			return m
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("product %s: missing path variables: %s", product, strings.Join(missing, ", "))
	}

	for name, val := range vars {
		if strings.ContainsAny(val, `/\`) || strings.Contains(val, "..") {
			return "", fmt.Errorf("path variable %s contains path separators", name)
		}
	}

	return filepath.Join(b.base, filepath.FromSlash(filled)), nil
}
