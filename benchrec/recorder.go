// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchrec buffers raw duration samples for named regions.
//
// A Recorder accepts samples from many goroutines at once and hands
// them to a single consumer in batches. Every sample passed to Record
// or Add is returned by exactly one call to Drain: samples are never
// lost or duplicated, even when Drain races with writers. Samples
// recorded concurrently with a Drain may land in that batch or the
// next one.
//
// By default a region's buffer grows without bound. Setting
// Options.Capacity turns each region's buffer into a ring that evicts
// its oldest samples; evictions are counted and reported by Drain so
// that they can be surfaced alongside the statistics they affect.
package benchrec

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ErrInvalidSample is returned when a sample is negative, NaN, or
// infinite. Invalid samples are never recorded.
var ErrInvalidSample = errors.New("invalid sample")

// Options configures a Recorder.
type Options struct {
	// Capacity is the maximum number of samples buffered per
	// region between drains. Zero means unbounded. When the
	// buffer is full, the oldest sample is evicted.
	//
	// Capacity is enforced per shard, so the effective bound is
	// rounded up to a multiple of the shard count.
	Capacity int

	// Shards is the number of independent buffers per region.
	// It is rounded up to a power of two. Zero selects a value
	// based on GOMAXPROCS.
	Shards int
}

const maxShards = 64

// A Recorder buffers samples per region. The zero value is not
// usable; use New.
type Recorder struct {
	capacity int // per shard; 0 is unbounded
	nshards  int

	regions sync.Map // string -> *buffer

	// Rejections are counted apart from the buffers so that a
	// region whose samples are all invalid still has no buffer.
	rejected sync.Map // string -> *atomic.Uint64
	total    atomic.Uint64
}

// New returns an empty Recorder.
func New(opts Options) *Recorder {
	n := opts.Shards
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	n = min(ceilPow2(n), maxShards)
	r := &Recorder{nshards: n}
	if opts.Capacity > 0 {
		r.capacity = (opts.Capacity + n - 1) / n
	}
	return r
}

func ceilPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// buffer is the sharded sample buffer of one region.
type buffer struct {
	next   atomic.Uint32
	shards []shard

	recorded atomic.Uint64
	evicted  atomic.Uint64
}

type shard struct {
	mu      sync.Mutex
	vals    []float64
	head    int    // oldest sample once the ring is full
	evicted uint64 // since the last drain

	_ [32]byte // keep neighboring shards off the same cache line
}

func (r *Recorder) buffer(key string) *buffer {
	if b, ok := r.regions.Load(key); ok {
		return b.(*buffer)
	}
	b, _ := r.regions.LoadOrStore(key, &buffer{shards: make([]shard, r.nshards)})
	return b.(*buffer)
}

// Record adds a duration sample to region key.
func (r *Recorder) Record(key string, d time.Duration) error {
	return r.Add(key, float64(d))
}

// Add adds a sample, in nanoseconds, to region key. It returns an
// error wrapping ErrInvalidSample if v is negative or not finite.
func (r *Recorder) Add(key string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		r.reject(key)
		return fmt.Errorf("region %q: sample %v: %w", key, v, ErrInvalidSample)
	}

	b := r.buffer(key)
	s := &b.shards[int(b.next.Add(1))&(len(b.shards)-1)]
	s.mu.Lock()
	if r.capacity == 0 || len(s.vals) < r.capacity {
		s.vals = append(s.vals, v)
	} else {
		s.vals[s.head] = v
		s.head++
		if s.head == len(s.vals) {
			s.head = 0
		}
		s.evicted++
		b.evicted.Add(1)
	}
	s.mu.Unlock()
	b.recorded.Add(1)
	return nil
}

func (r *Recorder) reject(key string) {
	n, ok := r.rejected.Load(key)
	if !ok {
		n, _ = r.rejected.LoadOrStore(key, new(atomic.Uint64))
	}
	n.(*atomic.Uint64).Add(1)
	r.total.Add(1)
}

// Drain removes and returns all samples buffered for region key,
// together with the number of samples evicted from the region since
// the previous Drain. It returns nil, 0 for an unknown region.
func (r *Recorder) Drain(key string) (samples []float64, evicted uint64) {
	v, ok := r.regions.Load(key)
	if !ok {
		return nil, 0
	}
	b := v.(*buffer)
	for i := range b.shards {
		s := &b.shards[i]
		s.mu.Lock()
		if r.capacity == 0 {
			samples = append(samples, s.vals...)
			s.vals = nil
		} else {
			// Oldest first.
			samples = append(samples, s.vals[s.head:]...)
			samples = append(samples, s.vals[:s.head]...)
			s.vals = s.vals[:0]
			s.head = 0
		}
		evicted += s.evicted
		s.evicted = 0
		s.mu.Unlock()
	}
	return samples, evicted
}

// Keys returns the regions that have received at least one valid
// sample since the last Reset, in sorted order.
func (r *Recorder) Keys() []string {
	var keys []string
	r.regions.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// Counters are cumulative sample counts for one region.
type Counters struct {
	Recorded uint64 // accepted samples
	Rejected uint64 // invalid samples
	Evicted  uint64 // accepted samples later dropped by a full buffer
}

// Counters returns the cumulative counters of region key since the
// last Reset. The zero Counters is returned for an unknown region.
func (r *Recorder) Counters(key string) Counters {
	var c Counters
	if v, ok := r.regions.Load(key); ok {
		b := v.(*buffer)
		c.Recorded = b.recorded.Load()
		c.Evicted = b.evicted.Load()
	}
	if n, ok := r.rejected.Load(key); ok {
		c.Rejected = n.(*atomic.Uint64).Load()
	}
	return c
}

// Rejected returns the number of invalid samples offered for any
// region since the last Reset.
func (r *Recorder) Rejected() uint64 {
	return r.total.Load()
}

// Reset discards every region and all buffered samples.
func (r *Recorder) Reset() {
	r.regions.Clear()
	r.rejected.Clear()
	r.total.Store(0)
}
