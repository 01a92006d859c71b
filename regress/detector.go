// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regress decides whether a run regressed relative to stored
// baselines.
//
// Compare is a pure function of a region's current statistics, its
// baseline, and the Options. Check and Promote connect it to a
// baseline.Store.
package regress

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchmath"
	"github.com/benchwatch/benchwatch/internal/logging"
)

// Options configures a Detector.
type Options struct {
	// SignificanceLevel is the false-positive rate: a change is
	// only significant if the test's p-value is below it.
	SignificanceLevel float64

	// MinEffectSize is the smallest relative change of the mean
	// that is classified as IMPROVED or REGRESSED. Smaller changes
	// are STABLE even when significant.
	MinEffectSize float64

	// MinSampleCount is the number of samples each side needs for
	// a comparison. Below it, or below 2, the verdict is
	// INSUFFICIENT_DATA.
	MinSampleCount int

	// Test is the hypothesis test. Nil means benchmath.DefaultTest.
	Test benchmath.Test

	// RequireSignificantImprovement makes IMPROVED require a
	// significant test result, like REGRESSED does.
	RequireSignificantImprovement bool
}

// DefaultOptions returns the default Options.
func DefaultOptions() Options {
	return Options{
		SignificanceLevel: 0.05,
		MinEffectSize:     0.05,
		MinSampleCount:    5,
		Test:              benchmath.DefaultTest,
	}
}

// Validate reports whether o is usable.
func (o *Options) Validate() error {
	var errs []error
	if !(o.SignificanceLevel > 0 && o.SignificanceLevel < 1) {
		errs = append(errs, fmt.Errorf("significance level %v not in (0, 1)", o.SignificanceLevel))
	}
	if !(o.MinEffectSize >= 0) || math.IsInf(o.MinEffectSize, 0) {
		errs = append(errs, fmt.Errorf("min effect size %v must be non-negative", o.MinEffectSize))
	}
	if o.MinSampleCount < 0 {
		errs = append(errs, fmt.Errorf("min sample count %d is negative", o.MinSampleCount))
	}
	return errors.Join(errs...)
}

// A Detector compares run statistics with baselines. It is safe for
// concurrent use.
type Detector struct {
	opts        Options
	log         logrus.FieldLogger
	concurrency int
}

// A DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) DetectorOption {
	return func(d *Detector) { d.log = l }
}

// WithConcurrency bounds the number of concurrent store operations in
// Check and Promote. The default is 8.
func WithConcurrency(n int) DetectorOption {
	return func(d *Detector) { d.concurrency = n }
}

// New returns a Detector with the given options.
func New(opts Options, dopts ...DetectorOption) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Test == nil {
		opts.Test = benchmath.DefaultTest
	}
	d := &Detector{opts: opts, concurrency: 8}
	for _, o := range dopts {
		o(d)
	}
	if d.log == nil {
		d.log = logging.Discard()
	}
	if d.concurrency < 1 {
		d.concurrency = 1
	}
	return d, nil
}

// Options returns the detector's options.
func (d *Detector) Options() Options {
	return d.opts
}

var (
	errNoBaseline    = errors.New("no baseline")
	errFewSamples    = errors.New("too few samples")
	errEvictedCur    = errors.New("current run evicted samples")
	errEvictedBase   = errors.New("baseline evicted samples")
	errCountMismatch = errors.New("baseline sample count differs from its statistics")
)

// Compare classifies region key given its current statistics and its
// baseline, which may be nil. It is deterministic.
//
// The classification is:
//
//   - INSUFFICIENT_DATA if there is no baseline or either side has
//     fewer than max(MinSampleCount, 2) samples;
//   - IMPROVED if the mean decreased by at least MinEffectSize of the
//     baseline mean (and the test is significant, if
//     RequireSignificantImprovement is set);
//   - REGRESSED if the mean increased by at least MinEffectSize of
//     the baseline mean and the test is significant;
//   - STABLE otherwise.
func (d *Detector) Compare(key string, cur *benchmath.Stats, base *baseline.Baseline) Verdict {
	v := Verdict{
		Key:        key,
		Class:      InsufficientData,
		EffectSize: math.NaN(),
		P:          math.NaN(),
		Confidence: math.NaN(),
		Test:       d.opts.Test.Name(),
	}
	if cur != nil {
		v.CurrentCount, v.CurrentMean = cur.Count, cur.Mean
		if cur.Evicted > 0 {
			v.Warnings = append(v.Warnings, errEvictedCur)
		}
	}
	if base == nil || base.Stats == nil {
		v.Warnings = append(v.Warnings, errNoBaseline)
		return v
	}
	bs := base.Stats
	v.BaselineCount, v.BaselineMean = bs.Count, bs.Mean
	if bs.Evicted > 0 {
		v.Warnings = append(v.Warnings, errEvictedBase)
	}
	if base.SampleCount != bs.Count {
		v.Warnings = append(v.Warnings, errCountMismatch)
	}

	need := max(d.opts.MinSampleCount, 2)
	if cur == nil || cur.Count < need || bs.Count < need {
		v.Warnings = append(v.Warnings, fmt.Errorf("%w: need %d, have %d+%d", errFewSamples, need, bs.Count, v.CurrentCount))
		return v
	}

	c := d.opts.Test.Compare(bs, cur, &benchmath.Thresholds{CompareAlpha: d.opts.SignificanceLevel})
	v.Comparison = &c
	v.Test = c.Test
	v.P, v.Confidence = c.P, 1-c.P
	v.Warnings = append(v.Warnings, c.Warnings...)
	v.EffectSize = benchmath.RelativeChange(bs, cur)
	v.CohensD = benchmath.CohensD(bs, cur)

	delta := cur.Mean - bs.Mean
	floor := d.opts.MinEffectSize * math.Abs(bs.Mean)
	switch {
	case delta < 0 && delta <= -floor:
		v.Class = Improved
		if d.opts.RequireSignificantImprovement && !c.Significant() {
			v.Class = Stable
		}
	case delta > 0 && delta >= floor && c.Significant():
		v.Class = Regressed
	default:
		v.Class = Stable
	}
	return v
}
