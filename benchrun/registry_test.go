// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benchwatch/benchwatch/benchclock"
	"github.com/benchwatch/benchwatch/benchmath"
	"github.com/benchwatch/benchwatch/benchrec"
)

// stepClock advances by one millisecond every time it is read.
type stepClock struct {
	t atomic.Int64
}

func (c *stepClock) Now() benchclock.Time {
	return benchclock.Time(c.t.Add(int64(time.Millisecond)))
}

func (c *stepClock) Since(start benchclock.Time) time.Duration {
	return time.Duration(c.Now() - start)
}

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := New(append([]Option{WithClock(&stepClock{})}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.BeginRun(WithRunID("test"), WithLabel("goos", "linux")); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestUnbalancedRegion(t *testing.T) {
	r := newRegistry(t)
	r.Open("x")
	r.Open("x")
	r.Close("x", time.Millisecond)
	r.Open("y")
	r.Close("y", 2*time.Millisecond)
	r.Close("y2", time.Millisecond) // close without open

	res, err := r.EndRun()
	if !errors.Is(err, ErrUnbalancedRegion) {
		t.Fatalf("EndRun error = %v, want %v", err, ErrUnbalancedRegion)
	}
	var ue *UnbalancedRegionError
	if !errors.As(err, &ue) || ue.Pending["x"] != 1 || ue.Pending["y2"] != -1 || len(ue.Pending) != 2 {
		t.Fatalf("error = %#v", err)
	}
	if res == nil {
		t.Fatal("EndRun returned no result")
	}
	if _, ok := res.Stats["x"]; ok {
		t.Errorf("unbalanced region x in result")
	}
	if y := res.Stats["y"]; y == nil || y.Count != 1 || y.Mean != float64(2*time.Millisecond) {
		t.Errorf("region y = %+v, want 1 sample of 2ms", y)
	}
	if len(res.Excluded) != 2 || res.Excluded[0] != "x" || res.Excluded[1] != "y2" {
		t.Errorf("Excluded = %v, want [x y2]", res.Excluded)
	}
	if res.RunID != "test" || res.Labels["goos"] != "linux" {
		t.Errorf("run metadata = %q %v", res.RunID, res.Labels)
	}
}

func TestRunLifecycle(t *testing.T) {
	r, err := New(WithClock(&stepClock{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Open("a"); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("Open before BeginRun = %v, want %v", err, ErrNoActiveRun)
	}
	if _, err := r.EndRun(); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("EndRun before BeginRun = %v, want %v", err, ErrNoActiveRun)
	}

	if err := r.BeginRun(); err != nil {
		t.Fatal(err)
	}
	r.Record("a", time.Second)
	if err := r.BeginRun(); !errors.Is(err, ErrRunAlreadyActive) {
		t.Errorf("second BeginRun = %v, want %v", err, ErrRunAlreadyActive)
	}
	res, err := r.EndRun()
	if err != nil {
		t.Fatal(err)
	}
	if a := res.Stats["a"]; a == nil || a.Count != 1 {
		t.Errorf("misused BeginRun lost state: %+v", a)
	}
	if res.RunID == "" {
		t.Errorf("no run ID generated")
	}

	// A new run starts from scratch.
	r.BeginRun()
	res, err = r.EndRun()
	if err != nil || len(res.Stats) != 0 {
		t.Errorf("fresh run = %v, %v, want empty", res.Stats, err)
	}
}

func TestConcurrentRegions(t *testing.T) {
	const workers, perWorker = 8, 1250
	r := newRegistry(t)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				r.Time("outer", func() {
					defer r.Start("inner").Stop()
				})
				if i%100 == 0 {
					r.Flush()
				}
			}
		}()
	}
	wg.Wait()

	res, err := r.EndRun()
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"outer", "inner"} {
		if s := res.Stats[key]; s == nil || s.Count != workers*perWorker {
			t.Errorf("region %s = %+v, want %d samples", key, s, workers*perWorker)
		}
	}
	if c := r.Counters()["outer"]; c.Recorded != workers*perWorker {
		t.Errorf("Counters = %+v", c)
	}
}

func TestTimePanic(t *testing.T) {
	r := newRegistry(t)
	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("panic was swallowed")
			}
		}()
		r.Time("p", func() { panic("boom") })
	}()
	res, err := r.EndRun()
	if err != nil {
		t.Fatalf("EndRun = %v, want balanced region", err)
	}
	if s := res.Stats["p"]; s == nil || s.Count != 1 {
		t.Errorf("region p = %+v", s)
	}
}

func TestTimerStopTwice(t *testing.T) {
	r := newRegistry(t)
	tm := r.Start("s")
	if d, err := tm.Stop(); err != nil || d != time.Millisecond {
		t.Errorf("Stop = %v, %v, want 1ms", d, err)
	}
	if _, err := tm.Stop(); err != nil {
		t.Errorf("second Stop = %v", err)
	}
	if _, err := r.EndRun(); err != nil {
		t.Errorf("EndRun = %v", err)
	}
}

func TestInvalidClose(t *testing.T) {
	r := newRegistry(t)
	r.Open("neg")
	if err := r.Close("neg", -time.Second); !errors.Is(err, benchrec.ErrInvalidSample) {
		t.Errorf("Close(-1s) = %v, want %v", err, benchrec.ErrInvalidSample)
	}
	r.Record("neg", time.Second)
	res, err := r.EndRun()
	if err != nil {
		t.Fatalf("EndRun = %v", err)
	}
	if s := res.Stats["neg"]; s.Count != 1 || s.Min < 0 {
		t.Errorf("region neg = %+v", s)
	}
}

func TestEviction(t *testing.T) {
	r := newRegistry(t,
		WithRecorder(benchrec.Options{Capacity: 4, Shards: 1}),
		WithAccumulator(benchmath.AccumulatorOptions{Percentiles: []float64{50}}))
	for i := 1; i <= 10; i++ {
		r.Record("ring", time.Duration(i))
	}
	r.Flush()
	for i := 1; i <= 3; i++ {
		r.Record("ring", time.Duration(i))
	}
	res, _ := r.EndRun()
	s := res.Stats["ring"]
	if s.Count != 7 || s.Evicted != 6 || len(s.Percentiles) != 1 {
		t.Errorf("region ring = %+v, want 7 samples, 6 evicted", s)
	}
}

// frozenClock never advances.
type frozenClock struct{}

func (frozenClock) Now() benchclock.Time                { return 0 }
func (frozenClock) Since(benchclock.Time) time.Duration { return 0 }

func TestClockCheck(t *testing.T) {
	_, err := New(WithClock(frozenClock{}))
	if !errors.Is(err, benchclock.ErrClockUnavailable) {
		t.Errorf("New with stopped clock = %v, want %v", err, benchclock.ErrClockUnavailable)
	}
	if _, err := New(WithClock(benchclock.NewManual(0))); err != nil {
		t.Errorf("New with manual clock = %v", err)
	}
}

func TestManualClockTimes(t *testing.T) {
	epoch := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := benchclock.NewManual(1000)
	r, err := New(WithClock(m), WithEpoch(epoch))
	if err != nil {
		t.Fatal(err)
	}
	m.Advance(time.Second)
	if err := r.BeginRun(); err != nil {
		t.Fatal(err)
	}
	m.Advance(time.Second)
	tm := r.Start("a")
	m.Advance(250 * time.Millisecond)
	if d, err := tm.Stop(); err != nil || d != 250*time.Millisecond {
		t.Errorf("Stop = %v, %v, want 250ms", d, err)
	}
	m.Advance(time.Minute)
	res, err := r.EndRun()
	if err != nil {
		t.Fatal(err)
	}
	if want := epoch.Add(time.Second); !res.Started.Equal(want) {
		t.Errorf("Started = %v, want %v", res.Started, want)
	}
	if want := epoch.Add(2 * time.Second); !res.FirstSeen["a"].Equal(want) {
		t.Errorf("FirstSeen[a] = %v, want %v", res.FirstSeen["a"], want)
	}
	if want := epoch.Add(time.Minute + 2250*time.Millisecond); !res.Ended.Equal(want) {
		t.Errorf("Ended = %v, want %v", res.Ended, want)
	}
}

func TestNestedRegions(t *testing.T) {
	r := newRegistry(t)
	for i := 0; i < 3; i++ {
		outer := r.Start("decode")
		header := outer.Start("header")
		header.Start("magic").Stop()
		header.Stop()
		outer.Start("body").Stop()
		outer.Stop()
	}
	res, err := r.EndRun()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"decode", "decode|body", "decode|header", "decode|header|magic"}
	if got := res.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
	for _, k := range want {
		if res.Stats[k].Count != 3 {
			t.Errorf("region %s has %d samples, want 3", k, res.Stats[k].Count)
		}
	}
	if got := Path("a", "b", "c"); got != "a|b|c" {
		t.Errorf("Path = %q", got)
	}
}

func TestNestedRegionUnbalanced(t *testing.T) {
	r := newRegistry(t)
	outer := r.Start("load")
	outer.Start("parse") // never stopped
	outer.Stop()
	_, err := r.EndRun()
	var ue *UnbalancedRegionError
	if !errors.As(err, &ue) || len(ue.Pending) != 1 || ue.Pending["load|parse"] != 1 {
		t.Errorf("EndRun = %v, want load|parse unbalanced", err)
	}
}

func TestRejectedCounters(t *testing.T) {
	r := newRegistry(t)
	r.Open("z")
	if err := r.Close("z", -1); !errors.Is(err, benchrec.ErrInvalidSample) {
		t.Fatalf("Close(-1) = %v, want %v", err, benchrec.ErrInvalidSample)
	}
	if c := r.Counters()["z"]; c.Rejected != 1 || c.Recorded != 0 {
		t.Errorf("Counters[z] = %+v, want 1 rejected", c)
	}
}
