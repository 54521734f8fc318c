// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package maskbits decodes SDSS bitmask values into named flags and back,
// driven by the sdssMaskbits parameter file embedded at build time. The
// parameter file is in yanny format; only the maskbits struct rows are
// read.
package maskbits

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Bit is one named bit of a flag group.
type Bit struct {
	Bit         int    `json:"bit"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// parseYanny reads maskbits rows from a yanny parameter stream. Rows look
// like:
//
//	maskbits SDSSV_BOSS_TARGET0 0 LRG "Luminous red galaxy"
//
// Typedef blocks, comments, and key-value pairs are skipped.
func parseYanny(r io.Reader) (map[string][]Bit, error) {
	groups := make(map[string][]Bit)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "maskbits") {
			continue
		}

		fields, err := splitYannyRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: maskbits row has %d fields, want 4", lineNo, len(fields))
		}

		bit, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad bit number %q", lineNo, fields[2])
		}

		flag := fields[1]
		groups[flag] = append(groups[flag], Bit{
			Bit:         bit,
			Label:       fields[3],
			Description: strings.Join(fields[4:], " "),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading maskbits file: %w", err)
	}
	return groups, nil
}

// splitYannyRow splits a row on whitespace, keeping double-quoted strings
// as single fields with the quotes stripped.
func splitYannyRow(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case (r == ' ' || r == '\t') && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in row %q", line)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
