// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchclock provides the time source used to measure
// benchmark regions.
//
// Measurements must never go backwards and must not be affected by
// adjustments to the wall clock, so a Clock reports time as an offset
// from an arbitrary, process-local origin rather than as a calendar
// time.
package benchclock

import (
	"errors"
	"sync"
	"time"
)

// A Time is a point on a Clock's timeline, in nanoseconds from the
// clock's origin. Times from different Clocks are not comparable.
type Time int64

// A Clock is a monotonic time source.
//
// Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current time. Successive calls return
	// non-decreasing values.
	Now() Time

	// Since returns the time elapsed since start. It is never
	// negative.
	Since(start Time) time.Duration
}

// ErrClockUnavailable is returned by Check if a clock does not appear
// to advance. Measuring with such a clock would silently produce zero
// durations.
var ErrClockUnavailable = errors.New("benchclock: clock does not advance")

type monotonic struct {
	origin time.Time
}

var (
	defaultOnce  sync.Once
	defaultClock *monotonic
)

// Monotonic returns a Clock backed by the runtime's monotonic clock.
func Monotonic() Clock {
	defaultOnce.Do(func() {
		defaultClock = &monotonic{origin: time.Now()}
	})
	return defaultClock
}

func (c *monotonic) Now() Time {
	// time.Since uses the monotonic reading of origin, so wall
	// clock steps have no effect here.
	return Time(time.Since(c.origin))
}

func (c *monotonic) Since(start Time) time.Duration {
	d := time.Duration(c.Now() - start)
	if d < 0 {
		return 0
	}
	return d
}

// Stepped is implemented by clocks that advance only under external
// control, such as Manual. Check accepts a clock whose Stepped method
// returns true without waiting for it to move.
type Stepped interface {
	Stepped() bool
}

// checkSpins bounds the busy loop in Check before it falls back to
// sleeping. Even coarse timers tick well within this many reads.
const checkSpins = 1 << 20

// Check verifies that c advances. It reports ErrClockUnavailable if c
// reads the same time across a busy loop and a short sleep. Stepped
// clocks always pass.
func Check(c Clock) error {
	if s, ok := c.(Stepped); ok && s.Stepped() {
		return nil
	}
	start := c.Now()
	for i := 0; i < checkSpins; i++ {
		if c.Now() > start {
			return nil
		}
	}
	time.Sleep(time.Millisecond)
	if c.Now() > start {
		return nil
	}
	return ErrClockUnavailable
}

// Manual is a Clock that only moves when told to. It is intended for
// tests and for replaying recorded timings. It is Stepped, so Check
// accepts it.
//
// The zero value is a clock at time 0.
type Manual struct {
	mu  sync.Mutex
	now Time
}

// NewManual returns a Manual clock set to t.
func NewManual(t Time) *Manual {
	return &Manual{now: t}
}

// Stepped returns true.
func (m *Manual) Stepped() bool { return true }

func (m *Manual) Now() Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Since(start Time) time.Duration {
	d := time.Duration(m.Now() - start)
	if d < 0 {
		return 0
	}
	return d
}

// Advance moves the clock forward by d. Negative d is ignored so the
// clock stays monotonic.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now += Time(d)
	m.mu.Unlock()
}
