// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out plain-text tables.
package texttab

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Row and Cell return the Table so callers can chain them.
type Table struct {
	rows [][]cell
	cols int
}

type cell struct {
	value string
	align Align
}

// Align is the alignment of a cell within its column.
type Align int

const (
	Left Align = iota
	Right
)

// Gap separates adjacent columns.
const Gap = "  "

// Row starts a new row in t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell adds a cell to the current row.
func (t *Table) Cell(value string, a Align) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	row := &t.rows[len(t.rows)-1]
	*row = append(*row, cell{value, a})
	t.cols = max(t.cols, len(*row))
	return t
}

// Format lays out t and writes it to w. Trailing spaces are trimmed
// from every line.
func (t *Table) Format(w io.Writer) error {
	widths := make([]int, t.cols)
	for _, row := range t.rows {
		for i, c := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(c.value))
		}
	}

	bw := bufio.NewWriter(w)
	var line strings.Builder
	for _, row := range t.rows {
		line.Reset()
		for i, c := range row {
			if i > 0 {
				line.WriteString(Gap)
			}
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c.value))
			if c.align == Right {
				line.WriteString(pad)
				line.WriteString(c.value)
			} else {
				line.WriteString(c.value)
				line.WriteString(pad)
			}
		}
		bw.WriteString(strings.TrimRight(line.String(), " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
