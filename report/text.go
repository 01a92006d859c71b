// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/benchwatch/benchwatch/internal/texttab"
	"github.com/benchwatch/benchwatch/regress"
)

// WriteText writes rep to w as an aligned text table, followed by a
// summary line and any notes.
func WriteText(w io.Writer, rep *regress.Report) error {
	return writeText(w, rep, ByName)
}

func writeText(w io.Writer, rep *regress.Report, order Order) error {
	bw := bufio.NewWriter(w)
	if rep.RunID != "" {
		fmt.Fprintf(bw, "run: %s\n", rep.RunID)
	}
	for _, k := range sortedLabels(rep.Labels) {
		fmt.Fprintf(bw, "%s: %s\n", k, rep.Labels[k])
	}
	if rep.RunID != "" || len(rep.Labels) > 0 {
		bw.WriteByte('\n')
	}

	rs := rows(rep, order)
	var tab texttab.Table
	tab.Row().
		Cell("region", texttab.Left).
		Cell("baseline", texttab.Right).
		Cell("current", texttab.Right).
		Cell("", texttab.Left).
		Cell("delta", texttab.Right).
		Cell("", texttab.Left).
		Cell("verdict", texttab.Left)
	for _, r := range rs {
		tab.Row().
			Cell(r.Key, texttab.Left).
			Cell(r.Baseline, texttab.Right).
			Cell(r.Current, texttab.Right).
			Cell(r.Spread, texttab.Left).
			Cell(r.Delta, texttab.Right).
			Cell(pcol(r.P), texttab.Left).
			Cell(r.Class, texttab.Left)
	}
	if err := tab.Format(bw); err != nil {
		return err
	}

	fmt.Fprintf(bw, "\n%s\n", summary(rep))
	if len(rep.Excluded) > 0 {
		fmt.Fprintf(bw, "excluded (unbalanced regions): %s\n", strings.Join(rep.Excluded, ", "))
	}
	if errs := storeErrors(rep); len(errs) > 0 {
		fmt.Fprintf(bw, "baseline errors:\n")
		for _, e := range errs {
			fmt.Fprintf(bw, "\t%s\n", e)
		}
	}
	var notes []string
	for _, r := range rs {
		for _, n := range r.Notes {
			notes = append(notes, r.Key+": "+n)
		}
	}
	if len(notes) > 0 {
		fmt.Fprintf(bw, "notes:\n")
		for _, n := range notes {
			fmt.Fprintf(bw, "\t%s\n", n)
		}
	}
	return bw.Flush()
}

func pcol(p string) string {
	if p == "" {
		return ""
	}
	return "(" + p + ")"
}
