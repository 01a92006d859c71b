// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders a regress.Report as a text table, as HTML, or
// in the Go benchmark format.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/benchwatch/benchwatch/benchunit"
	"github.com/benchwatch/benchwatch/regress"
)

// A Format is an output format.
type Format string

const (
	Text     Format = "text"
	HTML     Format = "html"
	Benchfmt Format = "benchfmt"
)

// Formats lists the supported formats.
var Formats = []Format{Text, HTML, Benchfmt}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (want one of %v)", s, Formats)
}

// Write renders rep to w in format f, with the regions sorted by
// order. The benchfmt format is always sorted by name.
func Write(w io.Writer, f Format, rep *regress.Report, order Order) error {
	switch f {
	case Text:
		return writeText(w, rep, order)
	case HTML:
		return writeHTML(w, rep, order)
	case Benchfmt:
		return WriteBenchfmt(w, rep)
	}
	return fmt.Errorf("unknown report format %q", f)
}

// A row is the rendered form of one verdict.
type row struct {
	Key      string
	Class    string
	Baseline string
	Current  string
	Spread   string
	Delta    string
	P        string
	Notes    []string
}

func rows(rep *regress.Report, order Order) []row {
	var out []row
	for _, key := range SortedKeys(rep, order) {
		v := rep.Verdicts[key]
		r := row{
			Key:      key,
			Class:    v.Class.String(),
			Baseline: "-",
			Current:  "-",
			Delta:    "?",
		}
		if v.BaselineCount > 0 {
			r.Baseline = benchunit.Duration(v.BaselineMean)
		}
		if st := rep.Stats[key]; st != nil && st.Count > 0 {
			r.Current = benchunit.Duration(st.Mean)
			r.Spread = "±" + st.Summary(0.95).PctRangeString()
		}
		if c := v.Comparison; c != nil {
			r.Delta = c.FormatDelta(v.BaselineMean, v.CurrentMean)
			r.P = c.String()
		}
		for _, w := range v.Warnings {
			r.Notes = append(r.Notes, w.Error())
		}
		out = append(out, r)
	}
	return out
}

// summary returns a one-line count of the verdict classes.
func summary(rep *regress.Report) string {
	classes := []regress.Class{regress.Regressed, regress.Improved, regress.Stable, regress.InsufficientData}
	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		parts = append(parts, fmt.Sprintf("%d %s", rep.Count(c), strings.ToLower(c.String())))
	}
	return fmt.Sprintf("%d regions: %s", len(rep.Verdicts), strings.Join(parts, ", "))
}

func sortedLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func storeErrors(rep *regress.Report) []string {
	keys := make([]string, 0, len(rep.StoreErrors))
	for k := range rep.StoreErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s: %v", k, rep.StoreErrors[k])
	}
	return out
}
