// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/DataDog/sketches-go/ddsketch/store"
)

// DefaultAccuracy is the default relative accuracy of a Sketch.
const DefaultAccuracy = 0.01

// DefaultMaxBins is the default bound on the number of bins in a
// Sketch. At DefaultAccuracy this spans a dynamic range of about
// 10^17, so in practice it never collapses duration samples.
const DefaultMaxBins = 2048

// ErrIncompatibleSketch is returned when merging sketches built with
// different accuracies or bin limits.
var ErrIncompatibleSketch = errors.New("sketches have different parameters")

// A Sketch is a mergeable, bounded-memory quantile summary backed by
// a DDSketch with logarithmic bins and relative accuracy α. For any q
// whose true sample quantile x lies outside the collapsed lowest bin,
// Quantile(q) is within α·x of x.
//
// The number of bins is bounded by MaxBins. When values span more
// bins than that, the lowest bins are folded into the lowest
// remaining bin. The resulting state depends only on the multiset of
// values added, never on the order of Add and Merge calls.
//
// A Sketch encodes to JSON as its parameters plus the DDSketch binary
// encoding.
//
// The zero value is not usable; use NewSketch.
type Sketch struct {
	accuracy float64
	maxBins  int
	dd       *ddsketch.DDSketch
}

// NewSketch returns an empty Sketch with relative accuracy alpha,
// which must be in (0, 1), and at most maxBins bins. Non-positive
// arguments select the defaults.
func NewSketch(alpha float64, maxBins int) *Sketch {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAccuracy
	}
	if maxBins <= 0 {
		maxBins = DefaultMaxBins
	}
	dd, err := ddsketch.LogCollapsingLowestDenseDDSketch(alpha, maxBins)
	if err != nil {
		// Only reachable with alpha outside (0, 1).
		panic(err)
	}
	return &Sketch{accuracy: alpha, maxBins: maxBins, dd: dd}
}

// Accuracy returns the relative accuracy of s.
func (s *Sketch) Accuracy() float64 { return s.accuracy }

// MaxBins returns the bin limit of s.
func (s *Sketch) MaxBins() int { return s.maxBins }

// Indexable reports whether x can be added to s.
func (s *Sketch) Indexable(x float64) bool {
	return x >= 0 && x <= s.dd.MaxIndexableValue()
}

// Add adds value x to the sketch. x must be Indexable.
func (s *Sketch) Add(x float64) error {
	if !s.Indexable(x) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, x)
	}
	return s.dd.Add(x)
}

// Merge adds all values in o to s. The sketches must have the same
// Accuracy and MaxBins.
func (s *Sketch) Merge(o *Sketch) error {
	if o == nil {
		return nil
	}
	if s.accuracy != o.accuracy || s.maxBins != o.maxBins {
		return ErrIncompatibleSketch
	}
	return s.dd.MergeWith(o.dd)
}

// Count returns the number of values in the sketch.
func (s *Sketch) Count() uint64 {
	return uint64(math.Round(s.dd.GetCount()))
}

// Quantile returns an estimate of the q'th quantile, for q in [0, 1].
// It returns NaN for an empty sketch.
func (s *Sketch) Quantile(q float64) float64 {
	if s.dd.IsEmpty() || math.IsNaN(q) {
		return math.NaN()
	}
	v, err := s.dd.GetValueAtQuantile(math.Max(0, math.Min(1, q)))
	if err != nil {
		return math.NaN()
	}
	return v
}

// Clone returns a copy of s that shares no state with s.
func (s *Sketch) Clone() *Sketch {
	return &Sketch{accuracy: s.accuracy, maxBins: s.maxBins, dd: s.dd.Copy()}
}

type sketchJSON struct {
	Accuracy float64 `json:"accuracy"`
	MaxBins  int     `json:"max_bins"`
	DDSketch []byte  `json:"ddsketch"`
}

func (s *Sketch) MarshalJSON() ([]byte, error) {
	var b []byte
	s.dd.Encode(&b, false)
	return json.Marshal(sketchJSON{s.accuracy, s.maxBins, b})
}

func (s *Sketch) UnmarshalJSON(data []byte) error {
	var j sketchJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Accuracy <= 0 || j.Accuracy >= 1 || j.MaxBins <= 0 {
		return fmt.Errorf("sketch: bad parameters accuracy=%v max_bins=%d", j.Accuracy, j.MaxBins)
	}
	maxBins := j.MaxBins
	dd, err := ddsketch.DecodeDDSketch(j.DDSketch, func() store.Store {
		return store.NewCollapsingLowestDenseStore(maxBins)
	}, nil)
	if err != nil {
		return fmt.Errorf("sketch: %w", err)
	}
	*s = Sketch{accuracy: j.Accuracy, maxBins: j.MaxBins, dd: dd}
	return nil
}

// A bin is one non-empty sketch bin: its representative value and
// the number of values it holds. Values that map to the same bin
// share a representative value in every sketch with the same
// accuracy.
type bin struct {
	value float64
	n     float64
}

// bins returns the non-empty bins of s in increasing value order.
func (s *Sketch) bins() []bin {
	var out []bin
	s.dd.ForEach(func(value, count float64) bool {
		if count > 0 {
			out = append(out, bin{value, count})
		}
		return false
	})
	sort.Slice(out, func(i, j int) bool { return out[i].value < out[j].value })
	return out
}
