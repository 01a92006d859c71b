// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/benchwatch/benchwatch/benchfmt"
	"github.com/benchwatch/benchwatch/benchunit"
	"github.com/benchwatch/benchwatch/regress"
)

// WriteBenchfmt writes the run statistics of rep to w in the Go
// benchmark format, one line per region with samples. The line holds
// the mean time per operation followed by the percentiles, each as
// its own "pNN-ns/op" unit. The run ID and labels become file
// configuration.
func WriteBenchfmt(w io.Writer, rep *regress.Report) error {
	bw := benchfmt.NewWriter(w)
	var res benchfmt.Result
	if rep.RunID != "" {
		res.Config = append(res.Config, benchfmt.Config{Key: "run", Value: rep.RunID, File: true})
	}
	for _, k := range sortedLabels(rep.Labels) {
		if key := configKey(k); key != "" && rep.Labels[k] != "" {
			res.Config = append(res.Config, benchfmt.Config{Key: key, Value: rep.Labels[k], File: true})
		}
	}
	for _, key := range rep.Keys() {
		st := rep.Stats[key]
		if st == nil || st.Count == 0 {
			continue
		}
		res.Name = benchfmt.Name(strings.ReplaceAll(key, " ", "_"))
		res.Iters = st.Count
		res.Values = append(res.Values[:0], nsValue(st.Mean, "ns/op"))
		for _, p := range st.Percentiles {
			res.Values = append(res.Values, nsValue(p.Value, fmt.Sprintf("p%s-ns/op", rank(p.Rank))))
		}
		if err := bw.Write(&res); err != nil {
			return err
		}
	}
	return nil
}

func nsValue(ns float64, unit string) benchfmt.Value {
	v, tidied := benchunit.Tidy(ns, unit)
	return benchfmt.Value{Value: v, Unit: tidied, OrigValue: ns, OrigUnit: unit}
}

// rank formats a percentile rank for a unit name: 99 is "99", 99.9 is
// "99.9".
func rank(r float64) string {
	if r == math.Trunc(r) {
		return fmt.Sprintf("%d", int(r))
	}
	return fmt.Sprintf("%g", r)
}

// configKey converts a label name to a valid configuration key, or
// returns "" if it cannot.
func configKey(label string) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '-'
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case r == ':':
			return -1
		}
		return r
	}, label)
	if key == "" || !unicode.IsLower([]rune(key)[0]) {
		return ""
	}
	return key
}
