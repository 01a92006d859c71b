// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"fmt"
	"sort"

	"github.com/benchwatch/benchwatch/benchmath"
)

// Class is the classification of a Verdict.
type Class int

const (
	// InsufficientData means there was no baseline or too few
	// samples on either side to decide.
	InsufficientData Class = iota

	// Stable means no meaningful change: either the change is
	// within the effect-size floor or it is not statistically
	// significant.
	Stable

	// Improved means the current mean is below the baseline mean
	// by at least the effect-size floor.
	Improved

	// Regressed means the current mean is above the baseline mean
	// by at least the effect-size floor and the test rejects the
	// null hypothesis.
	Regressed
)

var classNames = [...]string{
	InsufficientData: "INSUFFICIENT_DATA",
	Stable:           "STABLE",
	Improved:         "IMPROVED",
	Regressed:        "REGRESSED",
}

// String returns the string representation.
func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return classNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Class) UnmarshalText(b []byte) error {
	for i, name := range classNames {
		if string(b) == name {
			*c = Class(i)
			return nil
		}
	}
	return fmt.Errorf("unknown verdict class %q", b)
}

// A Verdict is the result of comparing one region's statistics with
// its baseline.
type Verdict struct {
	Key   string
	Class Class

	// EffectSize is the relative change of the mean,
	// current/baseline - 1. It is NaN if there was no baseline.
	EffectSize float64

	// CohensD is the standardized difference of the means.
	CohensD float64

	// P is the p-value reported by Test, or NaN if the test was
	// not run. Confidence is 1-P.
	P          float64
	Confidence float64
	Test       string

	BaselineCount, CurrentCount int
	BaselineMean, CurrentMean   float64

	// Comparison is the full test result, if the test was run.
	Comparison *benchmath.Comparison

	// Warnings are issues that should be shown with the verdict.
	Warnings []error
}

func (v Verdict) String() string {
	if v.Class == InsufficientData {
		return fmt.Sprintf("%s: %s (n=%d+%d)", v.Key, v.Class, v.BaselineCount, v.CurrentCount)
	}
	return fmt.Sprintf("%s: %s %+.2f%% (p=%.3f n=%d+%d)", v.Key, v.Class, 100*v.EffectSize, v.P, v.BaselineCount, v.CurrentCount)
}

// A Report holds the verdicts of one run.
type Report struct {
	RunID  string
	Labels map[string]string

	Verdicts map[string]Verdict
	Stats    map[string]*benchmath.Stats

	// Excluded lists regions left out of the run's statistics.
	Excluded []string

	// StoreErrors holds the regions whose baseline could not be
	// loaded. Their verdicts are INSUFFICIENT_DATA.
	StoreErrors map[string]error
}

// Keys returns the region keys of r in sorted order.
func (r *Report) Keys() []string {
	keys := make([]string, 0, len(r.Verdicts))
	for k := range r.Verdicts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of verdicts of class c.
func (r *Report) Count(c Class) int {
	n := 0
	for _, v := range r.Verdicts {
		if v.Class == c {
			n++
		}
	}
	return n
}

// Regressed returns the keys of the regressed regions in sorted order.
func (r *Report) Regressed() []string {
	var keys []string
	for _, k := range r.Keys() {
		if r.Verdicts[k].Class == Regressed {
			keys = append(keys, k)
		}
	}
	return keys
}
