// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package fitstest builds minimal, standard-conforming FITS byte streams
// for tests. It supports primary HDUs, 1-D and 2-D float32 image
// extensions, and binary tables with scalar or fixed-array columns, which
// covers every layout the SDSS spectral products use.
package fitstest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

const blockSize = 2880

// Card is a single FITS header keyword/value pair.
type Card struct {
	Key   string
	Value interface{}
}

// Col describes one binary-table column. Form is a FITS TFORM code:
// "E" (float32), "D" (float64), "J" (int32), or "<n>E"/"<n>D" for
// fixed-size array cells. Rows holds one entry per table row; for scalar
// forms each row must have exactly one value.
type Col struct {
	Name string
	Form string
	Rows [][]float64
}

// File assembles complete FITS files HDU by HDU.
type File struct {
	buf bytes.Buffer
}

// New returns a builder seeded with an empty primary HDU carrying the
// given extra header cards.
func New(cards ...Card) *File {
	f := &File{}
	hdr := []Card{
		{"SIMPLE", true},
		{"BITPIX", 8},
		{"NAXIS", 0},
	}
	hdr = append(hdr, cards...)
	f.writeHeader(hdr)
	return f
}

// Bytes returns the assembled FITS stream.
func (f *File) Bytes() []byte {
	return f.buf.Bytes()
}

// AddImage appends a 1-D float32 image extension.
func (f *File) AddImage(extname string, data []float64, cards ...Card) *File {
	hdr := []Card{
		{"XTENSION", "IMAGE"},
		{"BITPIX", -32},
		{"NAXIS", 1},
		{"NAXIS1", len(data)},
		{"PCOUNT", 0},
		{"GCOUNT", 1},
		{"EXTNAME", extname},
	}
	hdr = append(hdr, cards...)
	f.writeHeader(hdr)

	var payload bytes.Buffer
	for _, v := range data {
		writeFloat32(&payload, v)
	}
	f.writeData(payload.Bytes())
	return f
}

// AddImage2D appends a 2-D float32 image extension with the given rows.
// All rows must have equal length.
func (f *File) AddImage2D(extname string, rows [][]float64, cards ...Card) *File {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	hdr := []Card{
		{"XTENSION", "IMAGE"},
		{"BITPIX", -32},
		{"NAXIS", 2},
		{"NAXIS1", width},
		{"NAXIS2", len(rows)},
		{"PCOUNT", 0},
		{"GCOUNT", 1},
		{"EXTNAME", extname},
	}
	hdr = append(hdr, cards...)
	f.writeHeader(hdr)

	var payload bytes.Buffer
	for _, row := range rows {
		for _, v := range row {
			writeFloat32(&payload, v)
		}
	}
	f.writeData(payload.Bytes())
	return f
}

// AddBinTable appends a binary table extension. All columns must agree on
// the number of rows.
func (f *File) AddBinTable(extname string, cols []Col, cards ...Card) *File {
	nrows := 0
	if len(cols) > 0 {
		nrows = len(cols[0].Rows)
	}

	rowBytes := 0
	for _, c := range cols {
		repeat, size := parseForm(c.Form)
		rowBytes += repeat * size
	}

	hdr := []Card{
		{"XTENSION", "BINTABLE"},
		{"BITPIX", 8},
		{"NAXIS", 2},
		{"NAXIS1", rowBytes},
		{"NAXIS2", nrows},
		{"PCOUNT", 0},
		{"GCOUNT", 1},
		{"TFIELDS", len(cols)},
		{"EXTNAME", extname},
	}
	for i, c := range cols {
		hdr = append(hdr,
			Card{fmt.Sprintf("TFORM%d", i+1), c.Form},
			Card{fmt.Sprintf("TTYPE%d", i+1), c.Name},
		)
	}
	hdr = append(hdr, cards...)
	f.writeHeader(hdr)

	var payload bytes.Buffer
	for row := 0; row < nrows; row++ {
		for _, c := range cols {
			repeat, _ := parseForm(c.Form)
			vals := c.Rows[row]
			if len(vals) != repeat {
				panic(fmt.Sprintf("fitstest: column %s row %d has %d values, form %s wants %d",
					c.Name, row, len(vals), c.Form, repeat))
			}
			for _, v := range vals {
				writeFormValue(&payload, c.Form, v)
			}
		}
	}
	f.writeData(payload.Bytes())
	return f
}

func parseForm(form string) (repeat, size int) {
	repeat = 1
	code := form
	if len(form) > 1 {
		fmt.Sscanf(form[:len(form)-1], "%d", &repeat)
		code = form[len(form)-1:]
	}
	switch code {
	case "E", "J":
		size = 4
	case "D":
		size = 8
	default:
		panic("fitstest: unsupported TFORM " + form)
	}
	return repeat, size
}

func writeFormValue(w *bytes.Buffer, form string, v float64) {
	switch form[len(form)-1] {
	case 'E':
		writeFloat32(w, v)
	case 'D':
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
		w.Write(b[:])
	case 'J':
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
		w.Write(b[:])
	}
}

func writeFloat32(w *bytes.Buffer, v float64) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(v)))
	w.Write(b[:])
}

func (f *File) writeHeader(cards []Card) {
	var hdr bytes.Buffer
	for _, c := range cards {
		hdr.WriteString(formatCard(c))
	}
	hdr.WriteString(padRight("END", 80))
	for hdr.Len()%blockSize != 0 {
		hdr.WriteString(padRight("", 80))
	}
	f.buf.Write(hdr.Bytes())
}

func (f *File) writeData(data []byte) {
	f.buf.Write(data)
	if rem := len(data) % blockSize; rem != 0 {
		f.buf.Write(make([]byte, blockSize-rem))
	}
}

func formatCard(c Card) string {
	var val string
	switch v := c.Value.(type) {
	case string:
		// Fixed-format strings pad to 8 characters inside the quotes. The
		// trailing comment marker matters: the reader only accepts a
		// string value when a character follows the closing quote.
		val = fmt.Sprintf("'%-8s' /", v)
	case bool:
		if v {
			val = fmt.Sprintf("%20s", "T")
		} else {
			val = fmt.Sprintf("%20s", "F")
		}
	case int:
		val = fmt.Sprintf("%20d", v)
	case float64:
		val = fmt.Sprintf("%20s", formatFloat(v))
	default:
		panic(fmt.Sprintf("fitstest: unsupported card value %T", c.Value))
	}
	return padRight(fmt.Sprintf("%-8s= %s", c.Key, val), 80)
}

// formatFloat renders a float so the reader always parses it as a float
// (a bare "3" would be read back as an int).
func formatFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".eE") {
		s += "."
	}
	return strings.Replace(s, "e", "E", 1)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}
