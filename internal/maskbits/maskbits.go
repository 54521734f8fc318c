// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package maskbits

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
)

//go:embed sdssMaskbits.par
var maskbitsPar []byte

// Schema holds the loaded flag groups. Immutable after Load.
type Schema struct {
	groups map[string][]Bit
}

// Load parses the embedded maskbits parameter file. A parse failure is a
// build artifact problem and aborts startup.
func Load() (*Schema, error) {
	s, err := load(bytes.NewReader(maskbitsPar))
	if err != nil {
		return nil, fmt.Errorf("embedded maskbits file: %w", err)
	}
	return s, nil
}

// LoadFile parses a maskbits parameter file from disk, for deployments
// that track a newer targeting schema than the embedded copy.
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening maskbits file: %w", err)
	}
	defer f.Close()

	s, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("maskbits file %s: %w", path, err)
	}
	return s, nil
}

func load(r io.Reader) (*Schema, error) {
	groups, err := parseYanny(r)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no flags defined")
	}
	for _, bits := range groups {
		sort.Slice(bits, func(i, j int) bool { return bits[i].Bit < bits[j].Bit })
	}
	return &Schema{groups: groups}, nil
}

// Flags returns the known flag group names, sorted.
func (s *Schema) Flags() []string {
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bits returns the bit definitions of a flag group.
func (s *Schema) Bits(flag string) ([]Bit, error) {
	bits, ok := s.groups[flag]
	if !ok {
		return nil, fmt.Errorf("unknown maskbits flag %q", flag)
	}
	return bits, nil
}

// Labels decodes a bitmask value into the labels of its set bits, in bit
// order. Set bits with no definition in the flag group are reported as an
// error rather than silently dropped.
func (s *Schema) Labels(flag string, value int64) ([]string, error) {
	bits, err := s.Bits(flag)
	if err != nil {
		return nil, err
	}

	defined := make(map[int]string, len(bits))
	for _, b := range bits {
		defined[b.Bit] = b.Label
	}

	var labels []string
	for bit := 0; bit < 64; bit++ {
		if value&(1<<bit) == 0 {
			continue
		}
		label, ok := defined[bit]
		if !ok {
			return nil, fmt.Errorf("flag %s: bit %d is set but undefined", flag, bit)
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// Value encodes a list of labels into a bitmask value.
func (s *Schema) Value(flag string, labels []string) (int64, error) {
	bits, err := s.Bits(flag)
	if err != nil {
		return 0, err
	}

	byLabel := make(map[string]int, len(bits))
	for _, b := range bits {
		byLabel[b.Label] = b.Bit
	}

	var value int64
	for _, label := range labels {
		bit, ok := byLabel[label]
		if !ok {
			return 0, fmt.Errorf("flag %s has no label %q", flag, label)
		}
		value |= 1 << bit
	}
	return value, nil
}
