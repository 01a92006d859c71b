// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchfmt reads and writes the Go benchmark format, as
// printed by "go test -bench", and maps benchmark results onto timed
// regions.
//
// The format is documented at
// https://golang.org/design/14313-benchmark-format.
//
// Every result line becomes one sample of the region named by the
// benchmark, without its GOMAXPROCS suffix. Running "go test -count=N"
// therefore yields N samples per region.
package benchfmt

import (
	"math"
	"slices"
	"strings"
	"time"
)

// A Result is a single benchmark result and all of its measurements.
type Result struct {
	// Config is the configuration in effect for this result, in
	// the order the keys were first set.
	Config []Config

	// Name is the full benchmark name without the "Benchmark"
	// prefix, including sub-benchmark configuration and the
	// GOMAXPROCS suffix.
	Name Name

	// Iters is the number of iterations the values were averaged
	// over.
	Iters int

	// Values are the measurements, tidied to base units.
	Values []Value

	fileName string
	line     int
}

// A Config is a single key/value configuration pair. File is set if
// the pair was read from the input; other keys are added by tooling
// and are not written back out.
type Config struct {
	Key   string
	Value string
	File  bool
}

// A Value is a single measurement. Values are tidied to base units like
// "sec/op". OrigValue and OrigUnit, if OrigUnit is non-empty, hold the
// value as it was read.
type Value struct {
	Value float64
	Unit  string

	OrigValue float64
	OrigUnit  string
}

// Pos returns the file name and line number a Result was read from, or
// "", 0.
func (r *Result) Pos() (fileName string, line int) {
	return r.fileName, r.line
}

// Clone returns a copy of r that shares no state with r.
func (r *Result) Clone() *Result {
	r2 := *r
	r2.Config = slices.Clone(r.Config)
	r2.Values = slices.Clone(r.Values)
	return &r2
}

func (r *Result) configIndex(key string) int {
	return slices.IndexFunc(r.Config, func(c Config) bool { return c.Key == key })
}

// GetConfig returns the value of a configuration key, or "".
func (r *Result) GetConfig(key string) string {
	if i := r.configIndex(key); i >= 0 {
		return r.Config[i].Value
	}
	return ""
}

// SetConfig sets internal configuration key to value. If value is "",
// SetConfig deletes key.
func (r *Result) SetConfig(key, value string) {
	r.setConfig(key, value, false)
}

func (r *Result) setConfig(key, value string, file bool) {
	i := r.configIndex(key)
	switch {
	case value == "":
		if i >= 0 {
			r.Config = slices.Delete(r.Config, i, i+1)
		}
	case i >= 0:
		r.Config[i] = Config{key, value, file}
	default:
		r.Config = append(r.Config, Config{key, value, file})
	}
}

// Value returns the measurement for the given tidied unit.
func (r *Result) Value(unit string) (float64, bool) {
	for _, v := range r.Values {
		if v.Unit == unit {
			return v.Value, true
		}
	}
	return 0, false
}

// Duration returns the result's time per operation, rounded to the
// nanosecond. It reports false if the result has no "sec/op" value.
func (r *Result) Duration() (time.Duration, bool) {
	v, ok := r.Value("sec/op")
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return time.Duration(math.Round(v * 1e9)), true
}

// A Name is a full benchmark name, including all sub-benchmark
// configuration.
type Name string

// Base returns the base part of the name, without configuration or
// GOMAXPROCS.
func (n Name) Base() string {
	if i := strings.IndexByte(string(n), '/'); i >= 0 {
		return string(n[:i])
	}
	base, _ := n.splitGomaxprocs()
	return base
}

// Key returns the region key of the benchmark: its name without the
// GOMAXPROCS suffix.
func (n Name) Key() string {
	key, _ := n.splitGomaxprocs()
	return key
}

// Gomaxprocs returns the GOMAXPROCS suffix of the name, such as "-8",
// or "".
func (n Name) Gomaxprocs() string {
	_, procs := n.splitGomaxprocs()
	return procs
}

func (n Name) splitGomaxprocs() (prefix, gomaxprocs string) {
	for i := len(n) - 1; i >= 0; i-- {
		if n[i] == '-' && i < len(n)-1 {
			return string(n[:i]), string(n[i:])
		}
		if !('0' <= n[i] && n[i] <= '9') {
			break
		}
	}
	return string(n), ""
}
