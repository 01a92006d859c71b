// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"slices"
	"sort"
	"testing"
)

func logNormal(r *rand.Rand, n int, mu, sigma float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = math.Exp(mu + sigma*r.NormFloat64())
	}
	return xs
}

func TestSketchAccuracy(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	xs := logNormal(r, 5000, math.Log(1e6), 0.8)

	s := NewSketch(0, 0)
	for _, x := range xs {
		s.Add(x)
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	if got := s.Count(); got != uint64(len(xs)) {
		t.Fatalf("Count = %d, want %d", got, len(xs))
	}
	for _, q := range []float64{0, 0.01, 0.25, 0.5, 0.9, 0.95, 0.99, 1} {
		want := sorted[int(q*float64(len(xs)-1))]
		got := s.Quantile(q)
		if math.Abs(got-want) > DefaultAccuracy*want*(1+1e-9) {
			t.Errorf("Quantile(%v) = %v, want %v ± %v%%", q, got, want, 100*DefaultAccuracy)
		}
	}
}

func TestSketchZeros(t *testing.T) {
	s := NewSketch(0, 0)
	if !math.IsNaN(s.Quantile(0.5)) {
		t.Errorf("Quantile of empty sketch = %v, want NaN", s.Quantile(0.5))
	}
	for _, x := range []float64{0, 0, 0, 10} {
		s.Add(x)
	}
	if got := s.Quantile(0.5); got != 0 {
		t.Errorf("median = %v, want 0", got)
	}
	if got := s.Quantile(1); math.Abs(got-10) > 0.1 {
		t.Errorf("max = %v, want ~10", got)
	}
	if err := s.Add(-1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Add(-1) = %v, want %v", err, ErrInvalidValue)
	}
	if err := s.Add(math.Inf(1)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Add(+Inf) = %v, want %v", err, ErrInvalidValue)
	}
	if got := s.Count(); got != 4 {
		t.Errorf("Count = %d after rejected adds, want 4", got)
	}
}

func checkSameSketch(t *testing.T, a, b *Sketch) {
	t.Helper()
	if ba, bb := a.bins(), b.bins(); a.Count() != b.Count() || !slices.Equal(ba, bb) {
		t.Errorf("sketches differ:\n%d %v\n%d %v", a.Count(), ba, b.Count(), bb)
	}
}

func TestSketchMergeOrder(t *testing.T) {
	// A small bin limit forces collapses, which must still not
	// depend on the order values arrive in.
	const maxBins = 16
	r := rand.New(rand.NewSource(2))
	xs := logNormal(r, 3000, 0, 3)
	xs = append(xs, 0, 0)

	seq := NewSketch(0, maxBins)
	for _, x := range xs {
		seq.Add(x)
	}
	// One extra for the zero bin.
	if n := len(seq.bins()); n > maxBins+1 {
		t.Fatalf("sketch has %d bins, limit %d", n, maxBins)
	}

	rev := NewSketch(0, maxBins)
	for i := len(xs) - 1; i >= 0; i-- {
		rev.Add(xs[i])
	}
	checkSameSketch(t, seq, rev)

	// Shard, then merge the shards in reverse order.
	var shards []*Sketch
	for i := 0; i < len(xs); i += 500 {
		sh := NewSketch(0, maxBins)
		for _, x := range xs[i:min(i+500, len(xs))] {
			sh.Add(x)
		}
		shards = append(shards, sh)
	}
	merged := NewSketch(0, maxBins)
	for i := len(shards) - 1; i >= 0; i-- {
		if err := merged.Merge(shards[i]); err != nil {
			t.Fatal(err)
		}
	}
	checkSameSketch(t, seq, merged)
}

func TestSketchJSON(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	s := NewSketch(0.02, 64)
	for _, x := range append(logNormal(r, 1000, math.Log(1e3), 2), 0) {
		if err := s.Add(x); err != nil {
			t.Fatal(err)
		}
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var got *Sketch
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Accuracy() != 0.02 || got.MaxBins() != 64 {
		t.Errorf("decoded parameters %v/%d, want 0.02/64", got.Accuracy(), got.MaxBins())
	}
	checkSameSketch(t, s, got)
	for _, q := range []float64{0, 0.5, 0.99} {
		if a, b := s.Quantile(q), got.Quantile(q); a != b {
			t.Errorf("Quantile(%v) = %v after decoding, want %v", q, b, a)
		}
	}

	// A decoded sketch keeps merging with fresh ones.
	if err := got.Merge(s); err != nil {
		t.Fatal(err)
	}
	if got.Count() != 2*s.Count() {
		t.Errorf("merged Count = %d, want %d", got.Count(), 2*s.Count())
	}

	if err := json.Unmarshal([]byte(`{"accuracy":0,"max_bins":1}`), new(Sketch)); err == nil {
		t.Errorf("decoding bad parameters succeeded")
	}
}

func TestSketchIncompatible(t *testing.T) {
	a, b := NewSketch(0.01, 0), NewSketch(0.02, 0)
	if err := a.Merge(b); !errors.Is(err, ErrIncompatibleSketch) {
		t.Errorf("Merge = %v, want %v", err, ErrIncompatibleSketch)
	}
	if err := a.Merge(NewSketch(0.01, 16)); !errors.Is(err, ErrIncompatibleSketch) {
		t.Errorf("Merge with other bin limit = %v, want %v", err, ErrIncompatibleSketch)
	}
}
