// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchclock

import (
	"errors"
	"testing"
	"time"
)

func TestMonotonic(t *testing.T) {
	c := Monotonic()
	if err := Check(c); err != nil {
		t.Fatalf("Check(Monotonic()) = %v", err)
	}
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		now := c.Now()
		if now < prev {
			t.Fatalf("clock went backwards: %d after %d", now, prev)
		}
		prev = now
	}

	start := c.Now()
	time.Sleep(2 * time.Millisecond)
	if d := c.Since(start); d < 2*time.Millisecond {
		t.Errorf("Since after 2ms sleep = %v", d)
	}
	// A start in the future must not yield a negative duration.
	if d := c.Since(c.Now() + Time(time.Hour)); d != 0 {
		t.Errorf("Since(future) = %v, want 0", d)
	}
}

func TestManual(t *testing.T) {
	m := NewManual(100)
	if err := Check(m); err != nil {
		t.Errorf("Check(manual clock) = %v, want nil", err)
	}

	start := m.Now()
	m.Advance(5 * time.Millisecond)
	m.Advance(-time.Second)
	if got := m.Since(start); got != 5*time.Millisecond {
		t.Errorf("Since = %v, want 5ms", got)
	}
	if got := m.Now(); got != 100+Time(5*time.Millisecond) {
		t.Errorf("Now = %d", got)
	}
}

// frozen never advances and does not claim to be stepped.
type frozen struct{}

func (frozen) Now() Time                { return 42 }
func (frozen) Since(Time) time.Duration { return 0 }

type notStepped struct{ frozen }

func (notStepped) Stepped() bool { return false }

func TestCheckFrozen(t *testing.T) {
	for _, c := range []Clock{frozen{}, notStepped{}} {
		if err := Check(c); !errors.Is(err, ErrClockUnavailable) {
			t.Errorf("Check(%T) = %v, want %v", c, err, ErrClockUnavailable)
		}
	}
}
