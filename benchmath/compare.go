// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aclements/go-moremath/stats"
)

// A Test is a two-sample hypothesis test over summarized samples.
type Test interface {
	// Name returns the canonical name of the test, as accepted by
	// TestByName.
	Name() string

	// Compare tests whether old and new come from the same
	// distribution. The result's Alpha is t.CompareAlpha.
	Compare(old, new *Stats, t *Thresholds) Comparison
}

var (
	// WelchTest is Welch's unequal-variances t-test on the raw
	// values.
	WelchTest Test = welchTest{}

	// WelchLogTest is Welch's t-test on the logarithm of the
	// values. Durations are usually right-skewed and closer to
	// log-normal than normal, which makes this the better
	// parametric choice. It falls back to WelchTest when either
	// side has non-positive values.
	WelchLogTest Test = welchLogTest{}

	// UTest is the Mann-Whitney U-test computed over the two
	// samples' quantile sketches. It makes no distributional
	// assumptions. Values that share a sketch bin are treated as
	// ties, so it inherits the sketch's resolution.
	UTest Test = uTest{}
)

// DefaultTest is the test used when none is configured.
var DefaultTest = WelchLogTest

// TestByName returns the test with the given name or alias.
func TestByName(name string) (Test, error) {
	switch strings.ToLower(name) {
	case "", "welch-log", "log-welch", "welchlog":
		return WelchLogTest, nil
	case "welch", "ttest", "t-test":
		return WelchTest, nil
	case "utest", "u-test", "u", "mann-whitney":
		return UTest, nil
	}
	return nil, fmt.Errorf("unknown test %q (want welch-log, welch, or utest)", name)
}

var errAllEqual = errors.New("all samples are equal")

type welchTest struct{}

func (welchTest) Name() string { return "welch" }

func (w welchTest) Compare(old, new *Stats, t *Thresholds) Comparison {
	return welch(w.Name(), old.raw(), new.raw(), t)
}

type welchLogTest struct{}

func (welchLogTest) Name() string { return "welch-log" }

func (w welchLogTest) Compare(old, new *Stats, t *Thresholds) Comparison {
	if !old.HasLog || !new.HasLog {
		c := WelchTest.Compare(old, new, t)
		c.Warnings = append(c.Warnings, errors.New("non-positive values; compared raw values"))
		return c
	}
	return welch(w.Name(), old.logs(), new.logs(), t)
}

func welch(name string, x1, x2 tSample, t *Thresholds) Comparison {
	c := Comparison{Test: name, N1: int(x1.n), N2: int(x2.n), Alpha: t.CompareAlpha}
	res, err := stats.TwoSampleWelchTTest(x1, x2, stats.LocationDiffers)
	switch {
	case err == nil:
		c.P = res.P
	case errors.Is(err, stats.ErrZeroVariance):
		// Both samples are constant. Either they're the same
		// constant or they're certainly different.
		c.P = 1
		if x1.mean != x2.mean {
			c.P = 0
		}
		c.Warnings = append(c.Warnings, errAllEqual)
	default:
		c.P = 1
		c.Warnings = append(c.Warnings, err)
	}
	return c
}

type uTest struct{}

func (uTest) Name() string { return "utest" }

func (u uTest) Compare(old, new *Stats, t *Thresholds) Comparison {
	c := Comparison{Test: u.Name(), N1: old.Count, N2: new.Count, Alpha: t.CompareAlpha}
	if old.Sketch == nil || new.Sketch == nil ||
		old.Sketch.Accuracy() != new.Sketch.Accuracy() {
		c = WelchLogTest.Compare(old, new, t)
		c.Warnings = append(c.Warnings, errors.New("no comparable sketches; used welch-log"))
		return c
	}
	n1, n2 := float64(old.Sketch.Count()), float64(new.Sketch.Count())
	if n1 == 0 || n2 == 0 {
		c.P = 1
		c.Warnings = append(c.Warnings, stats.ErrSampleSize)
		return c
	}

	// Walk the union of both bin sequences in value order,
	// assigning each bin the average rank of its members.
	b1, b2 := old.Sketch.bins(), new.Sketch.bins()
	var r1, rank, ties float64
	for len(b1) > 0 || len(b2) > 0 {
		var c1, c2 float64
		switch {
		case len(b2) == 0 || len(b1) > 0 && b1[0].value < b2[0].value:
			c1, b1 = b1[0].n, b1[1:]
		case len(b1) == 0 || b2[0].value < b1[0].value:
			c2, b2 = b2[0].n, b2[1:]
		default:
			c1, c2 = b1[0].n, b2[0].n
			b1, b2 = b1[1:], b2[1:]
		}
		tb := c1 + c2
		r1 += c1 * (rank + (tb+1)/2)
		rank += tb
		ties += tb*tb*tb - tb
	}

	n := n1 + n2
	u1 := r1 - n1*(n1+1)/2
	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 / 12 * ((n + 1) - ties/(n*(n-1))))
	if sigma == 0 {
		c.P = 1
		c.Warnings = append(c.Warnings, errAllEqual)
		return c
	}
	z := math.Max(0, math.Abs(u1-mu)-0.5) / sigma
	c.P = math.Min(1, 2*stats.StdNormal.CDF(-z))
	return c
}
