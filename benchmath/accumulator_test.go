// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func closedForm(xs []float64) (mean, variance float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return mean, variance / float64(len(xs)-1)
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

func TestAccumulatorMerge(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	xs := logNormal(r, 4000, math.Log(5e7), 0.3)
	wantMean, wantVar := closedForm(xs)

	check := func(name string, s *Stats) {
		t.Helper()
		if s.Count != len(xs) {
			t.Errorf("%s: Count = %d, want %d", name, s.Count, len(xs))
		}
		if !near(s.Mean, wantMean) || !near(s.Variance, wantVar) {
			t.Errorf("%s: mean, variance = %v, %v, want %v, %v", name, s.Mean, s.Variance, wantMean, wantVar)
		}
		if !(s.Min <= s.Mean && s.Mean <= s.Max) {
			t.Errorf("%s: mean %v outside [%v, %v]", name, s.Mean, s.Min, s.Max)
		}
	}

	seq := NewAccumulator(AccumulatorOptions{})
	if err := seq.Fold(xs); err != nil {
		t.Fatal(err)
	}
	check("sequential", seq.Finalize())

	// Fold disjoint batches in reverse order.
	rev := NewAccumulator(AccumulatorOptions{})
	for i := len(xs); i > 0; i -= 700 {
		rev.Fold(xs[max(0, i-700):i])
	}
	check("reverse batches", rev.Finalize())

	// Merge shards as a tree: (a+b)+(c+d) and a+(b+(c+d)).
	var shards [4]*Accumulator
	for i := range shards {
		shards[i] = NewAccumulator(AccumulatorOptions{})
		shards[i].Fold(xs[i*1000 : (i+1)*1000])
	}
	left := NewAccumulator(AccumulatorOptions{})
	left.Merge(shards[0])
	left.Merge(shards[1])
	right := NewAccumulator(AccumulatorOptions{})
	right.Merge(shards[2])
	right.Merge(shards[3])
	if err := left.Merge(right); err != nil {
		t.Fatal(err)
	}
	check("tree merge", left.Finalize())

	chain := NewAccumulator(AccumulatorOptions{})
	for i := len(shards) - 1; i >= 0; i-- {
		chain.Merge(shards[i])
	}
	check("chain merge", chain.Finalize())

	checkSameSketch(t, seq.Finalize().Sketch, chain.Finalize().Sketch)
}

func TestAccumulatorFinalize(t *testing.T) {
	a := NewAccumulator(AccumulatorOptions{Percentiles: []float64{99, 50}})
	a.Fold([]float64{3, 1, 2, 5, 4})

	s1 := a.Finalize()
	s2 := a.Finalize()
	if s1 != s2 {
		t.Errorf("Finalize returned distinct snapshots")
	}
	for _, f := range []func(*Stats) float64{
		func(s *Stats) float64 { return s.Mean },
		func(s *Stats) float64 { return s.Variance },
		func(s *Stats) float64 { return s.LogMean },
	} {
		if math.Float64bits(f(s1)) != math.Float64bits(f(s2)) {
			t.Errorf("Finalize is not bit-identical")
		}
	}
	if s1.Mean != 3 || s1.Variance != 2.5 || s1.Min != 1 || s1.Max != 5 {
		t.Errorf("got %+v", s1)
	}
	if len(s1.Percentiles) != 2 || s1.Percentiles[0].Rank != 50 || s1.Percentiles[1].Rank != 99 {
		t.Errorf("Percentiles = %v, want ranks [50 99]", s1.Percentiles)
	}
	if p50, ok := s1.Percentile(50); !ok || math.Abs(p50-3) > 0.03 {
		t.Errorf("p50 = %v, %v", p50, ok)
	}

	if err := a.Fold([]float64{1}); !errors.Is(err, ErrFinalized) {
		t.Errorf("Fold after Finalize = %v, want %v", err, ErrFinalized)
	}
	if err := a.Merge(NewAccumulator(AccumulatorOptions{})); !errors.Is(err, ErrFinalized) {
		t.Errorf("Merge after Finalize = %v, want %v", err, ErrFinalized)
	}

	a.Reset()
	if err := a.Fold([]float64{7}); err != nil {
		t.Fatalf("Fold after Reset: %v", err)
	}
	if s := a.Finalize(); s.Count != 1 || s.Mean != 7 || s.Variance != 0 {
		t.Errorf("after Reset: %+v", s)
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	a := NewAccumulator(AccumulatorOptions{})
	s := a.Finalize()
	if s.Count != 0 || s.Mean != 0 || s.Variance != 0 || s.Percentiles != nil || s.Sketch != nil {
		t.Errorf("empty Finalize = %+v", s)
	}
}

func TestAccumulatorInvalid(t *testing.T) {
	a := NewAccumulator(AccumulatorOptions{})
	if err := a.Fold([]float64{1, 2, -3}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Fold = %v, want %v", err, ErrInvalidValue)
	}
	if a.Count() != 0 {
		t.Errorf("invalid batch was partially folded: Count = %d", a.Count())
	}
}

func TestAccumulatorLogStats(t *testing.T) {
	a := NewAccumulator(AccumulatorOptions{})
	a.Fold([]float64{math.E, math.E * math.E})
	s := a.Finalize()
	if !s.HasLog || !near(s.LogMean, 1.5) || !near(s.LogVariance, 0.5) {
		t.Errorf("log stats = %v %v %v", s.HasLog, s.LogMean, s.LogVariance)
	}

	a = NewAccumulator(AccumulatorOptions{})
	a.Fold([]float64{0, 1})
	a.AddEvicted(2)
	if s := a.Finalize(); s.HasLog || s.Evicted != 2 {
		t.Errorf("HasLog = %v, Evicted = %d, want false, 2", s.HasLog, s.Evicted)
	}
}

func TestStatsSummary(t *testing.T) {
	s := &Stats{Count: 10, Mean: 100, Variance: 25}
	sum := s.Summary(0.95)
	// t(0.975, 9) ≈ 2.262
	want := 2.262 * 5 / math.Sqrt(10)
	if math.Abs((sum.Hi-sum.Center)-want) > 0.01 || sum.Center != 100 {
		t.Errorf("Summary = %+v, want half-width %v", sum, want)
	}
	if got := (&Stats{Count: 1, Mean: 1}).Summary(0.95).PctRangeString(); got != "∞" {
		t.Errorf("single-sample range = %s, want ∞", got)
	}
}

func TestEffectSizes(t *testing.T) {
	old := &Stats{Count: 10, Mean: 100, Variance: 16}
	new := &Stats{Count: 10, Mean: 110, Variance: 16}
	if got := RelativeChange(old, new); !near(got, 0.1) {
		t.Errorf("RelativeChange = %v, want 0.1", got)
	}
	if got := CohensD(old, new); !near(got, 2.5) {
		t.Errorf("CohensD = %v, want 2.5", got)
	}
	if got := RelativeChange(&Stats{}, new); !math.IsNaN(got) {
		t.Errorf("RelativeChange from 0 = %v, want NaN", got)
	}
}
