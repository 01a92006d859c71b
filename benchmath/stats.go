// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// Stats is an immutable summary of the samples of one region.
//
// If Count is 0, every other field is zero and the summary carries no
// information. Otherwise Variance ≥ 0 and Min ≤ Mean ≤ Max.
type Stats struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"` // sample variance (n-1)
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`

	// Percentiles are the requested percentile estimates, in
	// increasing order of Rank.
	Percentiles []Percentile `json:"percentiles,omitempty"`

	// HasLog reports whether LogMean and LogVariance are defined.
	// They are the mean and sample variance of ln(x), and are only
	// defined if every sample is positive.
	HasLog      bool    `json:"has_log,omitempty"`
	LogMean     float64 `json:"log_mean,omitempty"`
	LogVariance float64 `json:"log_variance,omitempty"`

	// Sketch is the quantile sketch the percentiles were computed
	// from. It may be nil, for example for statistics imported
	// from elsewhere.
	Sketch *Sketch `json:"sketch,omitempty"`

	// Evicted is the number of samples dropped by a bounded
	// recorder before they could be aggregated.
	Evicted uint64 `json:"evicted,omitempty"`
}

// A Percentile is a percentile rank in (0, 100) and its estimated
// value.
type Percentile struct {
	Rank  float64 `json:"rank"`
	Value float64 `json:"value"`
}

// StdDev returns the sample standard deviation.
func (s *Stats) StdDev() float64 {
	return math.Sqrt(s.Variance)
}

// Percentile returns the estimate for percentile rank, if it was
// requested when s was computed.
func (s *Stats) Percentile(rank float64) (float64, bool) {
	for _, p := range s.Percentiles {
		if p.Rank == rank {
			return p.Value, true
		}
	}
	return 0, false
}

// Summary returns the mean of s and its confidence interval at the
// given confidence level, in [0, 1].
func (s *Stats) Summary(confidence float64) Summary {
	var w float64
	switch {
	case confidence <= 0:
		w = 0
	case confidence >= 1 || s.Count <= 1:
		w = math.Inf(1)
	default:
		tdist := stats.TDist{V: float64(s.Count - 1)}
		t := -stats.InvCDF(tdist)((1 - confidence) / 2)
		w = t * s.StdDev() / math.Sqrt(float64(s.Count))
	}
	return Summary{Center: s.Mean, Lo: s.Mean - w, Hi: s.Mean + w, Confidence: confidence}
}

// tSample adapts a mean and variance to stats.TTestSample.
type tSample struct {
	n, mean, variance float64
}

func (t tSample) Weight() float64   { return t.n }
func (t tSample) Mean() float64     { return t.mean }
func (t tSample) Variance() float64 { return t.variance }

func (s *Stats) raw() tSample {
	return tSample{float64(s.Count), s.Mean, s.Variance}
}

func (s *Stats) logs() tSample {
	return tSample{float64(s.Count), s.LogMean, s.LogVariance}
}

// RelativeChange returns the change from old's mean to new's mean as
// a fraction of old's mean. It returns NaN if old's mean is 0.
func RelativeChange(old, new *Stats) float64 {
	if old.Mean == 0 {
		if new.Mean == 0 {
			return 0
		}
		return math.NaN()
	}
	return new.Mean/old.Mean - 1
}

// CohensD returns the standardized difference between the means of
// old and new, using the pooled standard deviation. It is 0 if both
// samples have zero variance.
func CohensD(old, new *Stats) float64 {
	n1, n2 := float64(old.Count), float64(new.Count)
	if n1+n2 <= 2 {
		return 0
	}
	pooled := math.Sqrt(((n1-1)*old.Variance + (n2-1)*new.Variance) / (n1 + n2 - 2))
	if pooled == 0 {
		return 0
	}
	return (new.Mean - old.Mean) / pooled
}
