// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package basetest checks baseline.Store implementations.
package basetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchmath"
)

// Stats returns finalized statistics of the given samples.
func Stats(t testing.TB, samples ...float64) *benchmath.Stats {
	t.Helper()
	a := benchmath.NewAccumulator(benchmath.AccumulatorOptions{})
	require.NoError(t, a.Fold(samples))
	return a.Finalize()
}

// Run runs the conformance tests against s, which must be empty.
// Keys used by the tests contain slashes and spaces.
func Run(t *testing.T, s baseline.Store) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		_, err := s.Load(ctx, "never saved")
		assert.ErrorIs(t, err, baseline.ErrNotFound)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		key := "pkg/Decode/size=1KB"
		want := Stats(t, 95e6, 100e6, 101e6, 102e6, 110e6)
		require.NoError(t, s.Save(ctx, key, want, 5))

		got, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, got.Key)
		assert.Equal(t, 5, got.SampleCount)
		assert.False(t, got.SavedAt.IsZero())
		assert.Equal(t, want.Count, got.Stats.Count)
		assert.Equal(t, want.Mean, got.Stats.Mean)
		assert.Equal(t, want.Variance, got.Stats.Variance)
		assert.Equal(t, want.Min, got.Stats.Min)
		assert.Equal(t, want.Max, got.Stats.Max)
		assert.Equal(t, want.Percentiles, got.Stats.Percentiles)
		assert.Equal(t, want.HasLog, got.Stats.HasLog)
		assert.Equal(t, want.LogMean, got.Stats.LogMean)
		assert.Equal(t, want.LogVariance, got.Stats.LogVariance)
		require.NotNil(t, got.Stats.Sketch)
		assert.Equal(t, want.Sketch.Count(), got.Stats.Sketch.Count())
		assert.Equal(t, want.Sketch.Accuracy(), got.Stats.Sketch.Accuracy())
		assert.Equal(t, want.Sketch.Quantile(0.99), got.Stats.Sketch.Quantile(0.99))
		assert.Equal(t, want.Sketch.Quantile(0.5), got.Stats.Sketch.Quantile(0.5))
	})

	t.Run("Replace", func(t *testing.T) {
		key := "replace me"
		require.NoError(t, s.Save(ctx, key, Stats(t, 1, 2, 3), 3))
		require.NoError(t, s.Save(ctx, key, Stats(t, 4, 5), 2))
		got, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 2, got.SampleCount)
		assert.Equal(t, 4.5, got.Stats.Mean)
	})

	t.Run("Invalid", func(t *testing.T) {
		err := s.Save(ctx, "nil stats", nil, 0)
		assert.ErrorIs(t, err, baseline.ErrInvalid)
		err = s.Save(ctx, "", Stats(t, 1), 1)
		assert.ErrorIs(t, err, baseline.ErrInvalid)
	})

	t.Run("Concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make([]error, 8)
		stats := make([]*benchmath.Stats, len(errs))
		for i := range stats {
			stats[i] = Stats(t, float64(i+1))
		}
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("concurrent/%d", i)
				if errs[i] = s.Save(ctx, key, stats[i], 1); errs[i] == nil {
					_, errs[i] = s.Load(ctx, key)
				}
			}(i)
		}
		wg.Wait()
		require.NoError(t, errors.Join(errs...))
	})

	l, ok := s.(baseline.Lister)
	if !ok {
		return
	}
	t.Run("List", func(t *testing.T) {
		keys, err := l.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, "pkg/Decode/size=1KB")
		assert.Contains(t, keys, "concurrent/7")
		assert.IsNonDecreasing(t, keys)
	})

	d, ok := s.(baseline.Deleter)
	if !ok {
		return
	}
	t.Run("Delete", func(t *testing.T) {
		key := "replace me"
		require.NoError(t, d.Delete(ctx, key))
		_, err := s.Load(ctx, key)
		assert.ErrorIs(t, err, baseline.ErrNotFound)
		assert.ErrorIs(t, d.Delete(ctx, key), baseline.ErrNotFound)
		if l != nil {
			keys, err := l.List(ctx)
			require.NoError(t, err)
			assert.NotContains(t, keys, key)
		}
	})
}
