// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// ErrFinalized is returned by Fold and Merge on an Accumulator that
// has been finalized and not reset.
var ErrFinalized = errors.New("accumulator already finalized")

// ErrInvalidValue is returned by Fold for a negative or non-finite
// value.
var ErrInvalidValue = errors.New("invalid value")

// DefaultPercentiles are the percentile ranks reported when
// AccumulatorOptions.Percentiles is empty.
var DefaultPercentiles = []float64{50, 90, 95, 99}

// AccumulatorOptions configures an Accumulator.
type AccumulatorOptions struct {
	// Percentiles are the percentile ranks in (0, 100) to estimate.
	Percentiles []float64

	// Accuracy and MaxBins configure the quantile sketch. See
	// NewSketch.
	Accuracy float64
	MaxBins  int
}

// An Accumulator folds samples into running statistics without
// retaining them.
//
// Mean and variance use Welford's update, and combining accumulators
// uses the parallel form of the same update, so folding disjoint
// batches in any order or merging accumulators built from them
// agrees with the closed-form result up to floating-point rounding.
// The sketch and the sample count are exact under any order.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	opts AccumulatorOptions

	raw     stats.StreamStats
	logs    stats.StreamStats
	nonPos  uint // samples excluded from logs
	sketch  *Sketch
	evicted uint64

	final *Stats
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator(opts AccumulatorOptions) *Accumulator {
	if len(opts.Percentiles) == 0 {
		opts.Percentiles = DefaultPercentiles
	}
	ps := append([]float64(nil), opts.Percentiles...)
	sort.Float64s(ps)
	opts.Percentiles = ps
	a := &Accumulator{opts: opts}
	a.sketch = NewSketch(opts.Accuracy, opts.MaxBins)
	return a
}

// Fold adds samples to the running state. If any sample is invalid,
// Fold returns an error wrapping ErrInvalidValue and adds nothing.
func (a *Accumulator) Fold(samples []float64) error {
	if a.final != nil {
		return ErrFinalized
	}
	for _, x := range samples {
		if math.IsNaN(x) || !a.sketch.Indexable(x) {
			return fmt.Errorf("%w: %v", ErrInvalidValue, x)
		}
	}
	for _, x := range samples {
		a.raw.Add(x)
		if x > 0 {
			a.logs.Add(math.Log(x))
		} else {
			a.nonPos++
		}
		if err := a.sketch.Add(x); err != nil {
			return err
		}
	}
	return nil
}

// AddEvicted records that n samples were dropped before reaching the
// accumulator.
func (a *Accumulator) AddEvicted(n uint64) {
	a.evicted += n
}

// Merge adds the state of o to a. o is not modified. The two
// accumulators must use the same sketch parameters.
func (a *Accumulator) Merge(o *Accumulator) error {
	if a.final != nil {
		return ErrFinalized
	}
	if err := a.sketch.Merge(o.sketch); err != nil {
		return err
	}
	combine(&a.raw, &o.raw)
	combine(&a.logs, &o.logs)
	a.nonPos += o.nonPos
	a.evicted += o.evicted
	return nil
}

// combine is StreamStats.Combine, except that it handles an empty s.
func combine(s, o *stats.StreamStats) {
	switch {
	case o.Count == 0:
	case s.Count == 0:
		*s = *o
	default:
		s.Combine(o)
	}
}

// Count returns the number of samples folded so far.
func (a *Accumulator) Count() int {
	return int(a.raw.Count)
}

// Finalize returns a snapshot of the accumulated statistics and seals
// the accumulator. Later calls return the same snapshot until Reset.
// The caller must not modify the returned Stats.
func (a *Accumulator) Finalize() *Stats {
	if a.final != nil {
		return a.final
	}
	s := &Stats{Evicted: a.evicted}
	if n := a.raw.Count; n > 0 {
		s.Count = int(n)
		s.Min, s.Max = a.raw.Min, a.raw.Max
		// Rounding can push the mean a hair outside [min, max].
		s.Mean = math.Max(s.Min, math.Min(s.Max, a.raw.Mean()))
		s.Variance = variance(&a.raw)
		if a.nonPos == 0 {
			s.HasLog = true
			s.LogMean = a.logs.Mean()
			s.LogVariance = variance(&a.logs)
		}
		s.Sketch = a.sketch.Clone()
		s.Percentiles = make([]Percentile, len(a.opts.Percentiles))
		for i, p := range a.opts.Percentiles {
			s.Percentiles[i] = Percentile{Rank: p, Value: s.Sketch.Quantile(p / 100)}
		}
	}
	a.final = s
	return s
}

func variance(s *stats.StreamStats) float64 {
	if s.Count < 2 {
		return 0
	}
	return math.Max(0, s.Variance())
}

// Reset discards all state and unseals the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{
		opts:   a.opts,
		sketch: NewSketch(a.opts.Accuracy, a.opts.MaxBins),
	}
}
