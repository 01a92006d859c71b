// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// A Writer writes the Go benchmark format.
type Writer struct {
	w   io.Writer
	buf bytes.Buffer

	first bool
	// config is the configuration last written, in order.
	config []Config
}

// NewWriter returns a Writer that writes Go benchmark results to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, first: true}
}

// Write writes rec to w. If rec is a *Result whose file configuration
// differs from the configuration last written, Write first emits the
// changed configuration lines. Values with an OrigUnit are written in
// their original form. Syntax errors are skipped.
func (w *Writer) Write(rec Record) error {
	switch rec := rec.(type) {
	case *Result:
		w.writeResult(rec)
	case *SyntaxError:
		return nil
	default:
		return fmt.Errorf("unknown Record type %T", rec)
	}
	_, err := w.w.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

func (w *Writer) writeResult(res *Result) {
	if !slices.Equal(w.config, res.Config) {
		w.writeConfig(res)
	}
	fmt.Fprintf(&w.buf, "Benchmark%s %d", res.Name, res.Iters)
	for _, val := range res.Values {
		v, unit := val.Value, val.Unit
		if val.OrigUnit != "" {
			v, unit = val.OrigValue, val.OrigUnit
		}
		w.buf.WriteByte(' ')
		w.buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		w.buf.WriteByte(' ')
		w.buf.WriteString(unit)
	}
	w.buf.WriteByte('\n')
	w.first = false
}

func (w *Writer) writeConfig(res *Result) {
	if !w.first {
		// Configuration blocks after results get an extra blank.
		w.buf.WriteByte('\n')
	}
	have := make(map[string]Config, len(w.config))
	for _, c := range w.config {
		have[c.Key] = c
	}
	want := make(map[string]bool, len(res.Config))
	for _, c := range res.Config {
		want[c.Key] = true
	}
	// Deletions first, in the order they were written.
	for _, c := range w.config {
		if !want[c.Key] && c.File {
			fmt.Fprintf(&w.buf, "%s:\n", c.Key)
		}
	}
	for _, c := range res.Config {
		if old, ok := have[c.Key]; ok && old == c {
			continue
		}
		if c.File {
			fmt.Fprintf(&w.buf, "%s: %s\n", c.Key, c.Value)
		}
	}
	w.buf.WriteByte('\n')
	w.config = slices.Clone(res.Config)
}
