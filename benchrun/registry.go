// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchrun manages timed regions over the course of a
// benchmark run.
//
// A Registry is owned by the caller, typically one per run. Between
// BeginRun and EndRun, any number of goroutines may time regions
// concurrently:
//
//	reg, err := benchrun.New()
//	...
//	reg.BeginRun(benchrun.WithLabel("commit", rev))
//	func work() {
//		defer reg.Start("decode").Stop()
//		...
//	}
//	res, err := reg.EndRun()
//
// Regions nest through their Timers: a Timer's Start opens a child
// region keyed by the parent key and the child name joined with
// PathSeparator, so "decode|header" is the header step timed inside
// decode.
//
// EndRun finalizes the statistics of every region. Regions whose
// opens and closes don't match are left out of the result and
// reported in an *UnbalancedRegionError; the rest of the result is
// still valid.
package benchrun

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/benchwatch/benchwatch/benchclock"
	"github.com/benchwatch/benchwatch/benchmath"
	"github.com/benchwatch/benchwatch/benchrec"
	"github.com/benchwatch/benchwatch/internal/logging"
)

var (
	// ErrRunAlreadyActive is returned by BeginRun while a run is in
	// progress.
	ErrRunAlreadyActive = errors.New("benchmark run already active")

	// ErrNoActiveRun is returned by operations that require a run
	// when none is in progress.
	ErrNoActiveRun = errors.New("no active benchmark run")

	// ErrUnbalancedRegion matches an *UnbalancedRegionError.
	ErrUnbalancedRegion = errors.New("unbalanced region")
)

// UnbalancedRegionError reports regions whose opens and closes did
// not match at the end of a run.
type UnbalancedRegionError struct {
	// Pending maps each region key to its number of opens minus
	// its number of closes. It is never zero.
	Pending map[string]int64
}

// Keys returns the unbalanced region keys in sorted order.
func (e *UnbalancedRegionError) Keys() []string {
	keys := make([]string, 0, len(e.Pending))
	for k := range e.Pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *UnbalancedRegionError) Error() string {
	var b strings.Builder
	b.WriteString("unbalanced regions:")
	for _, k := range e.Keys() {
		fmt.Fprintf(&b, " %q (%+d)", k, e.Pending[k])
	}
	return b.String()
}

func (e *UnbalancedRegionError) Is(target error) bool {
	return target == ErrUnbalancedRegion
}

// A Registry maps region keys to their sample buffers and
// accumulators.
type Registry struct {
	clock   benchclock.Clock
	epoch   time.Time       // wall time at origin
	origin  benchclock.Time // clock reading at New
	log     logrus.FieldLogger
	rec     *benchrec.Recorder
	accOpts benchmath.AccumulatorOptions

	active  atomic.Bool
	regions sync.Map // string -> *region

	// mu serializes run boundaries and flushes.
	mu  sync.Mutex
	run runInfo
}

type runInfo struct {
	id      string
	labels  map[string]string
	started time.Time
}

type region struct {
	created time.Time
	pending atomic.Int64 // opens - closes

	// acc is guarded by Registry.mu.
	acc *benchmath.Accumulator
}

// An Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used by Start and Time. The default is
// benchclock.Monotonic.
func WithClock(c benchclock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithEpoch sets the wall time that corresponds to the clock's
// reading when New is called. Run and region timestamps are derived
// from it and the clock. The default is the current time.
func WithEpoch(t time.Time) Option {
	return func(r *Registry) { r.epoch = t }
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Registry) { r.log = l }
}

// WithRecorder configures the sample buffers.
func WithRecorder(opts benchrec.Options) Option {
	return func(r *Registry) { r.rec = benchrec.New(opts) }
}

// WithAccumulator configures per-region aggregation.
func WithAccumulator(opts benchmath.AccumulatorOptions) Option {
	return func(r *Registry) { r.accOpts = opts }
}

// New returns a Registry with no active run. It fails if the clock
// does not advance.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{}
	for _, o := range opts {
		o(r)
	}
	if r.clock == nil {
		r.clock = benchclock.Monotonic()
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.rec == nil {
		r.rec = benchrec.New(benchrec.Options{})
	}
	if err := benchclock.Check(r.clock); err != nil {
		return nil, err
	}
	if r.epoch.IsZero() {
		r.epoch = time.Now()
	}
	r.origin = r.clock.Now()
	return r, nil
}

// now returns the wall time according to the registry's clock.
func (r *Registry) now() time.Time {
	return r.epoch.Add(time.Duration(r.clock.Now() - r.origin))
}

// A RunOption configures a run.
type RunOption func(*runInfo)

// WithLabel attaches a key/value label to the run.
func WithLabel(key, value string) RunOption {
	return func(ri *runInfo) { ri.labels[key] = value }
}

// WithRunID sets the run's ID instead of generating one.
func WithRunID(id string) RunOption {
	return func(ri *runInfo) { ri.id = id }
}

// BeginRun discards all region state and starts a new run. It returns
// ErrRunAlreadyActive, and changes nothing, if a run is in progress.
func (r *Registry) BeginRun(opts ...RunOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active.Load() {
		return fmt.Errorf("run %s: %w", r.run.id, ErrRunAlreadyActive)
	}
	ri := runInfo{labels: make(map[string]string), started: r.now()}
	for _, o := range opts {
		o(&ri)
	}
	if ri.id == "" {
		ri.id = uuid.NewString()
	}
	r.rec.Reset()
	r.regions.Clear()
	r.run = ri
	r.active.Store(true)
	r.log.WithField("run", ri.id).Debug("run started")
	return nil
}

// Active reports whether a run is in progress.
func (r *Registry) Active() bool {
	return r.active.Load()
}

func (r *Registry) region(key string) *region {
	if v, ok := r.regions.Load(key); ok {
		return v.(*region)
	}
	v, _ := r.regions.LoadOrStore(key, &region{
		created: r.now(),
		acc:     benchmath.NewAccumulator(r.accOpts),
	})
	return v.(*region)
}

// Open marks the start of an execution of region key.
func (r *Registry) Open(key string) error {
	if !r.active.Load() {
		return ErrNoActiveRun
	}
	r.region(key).pending.Add(1)
	return nil
}

// Close marks the end of an execution of region key that took d. The
// region is closed even if d is invalid, in which case Close returns
// an error wrapping benchrec.ErrInvalidSample and d is not recorded.
func (r *Registry) Close(key string, d time.Duration) error {
	if !r.active.Load() {
		return ErrNoActiveRun
	}
	r.region(key).pending.Add(-1)
	return r.rec.Record(key, d)
}

// Record adds a sample to region key without an Open/Close pair.
func (r *Registry) Record(key string, d time.Duration) error {
	if !r.active.Load() {
		return ErrNoActiveRun
	}
	r.region(key)
	return r.rec.Record(key, d)
}

// A Timer times one execution of a region. It is not safe for
// concurrent use.
type Timer struct {
	r       *Registry
	key     string
	start   benchclock.Time
	err     error
	stopped bool
}

// PathSeparator joins the names of nested regions in a region key.
const PathSeparator = "|"

// Path returns the key of the region nested as names, outermost
// first.
func Path(names ...string) string {
	return strings.Join(names, PathSeparator)
}

// Start opens region key and returns a Timer that closes it. Callers
// typically write
//
//	defer reg.Start(key).Stop()
//
// so the region is closed on every exit path, including panics.
func (r *Registry) Start(key string) *Timer {
	t := &Timer{r: r, key: key}
	if t.err = r.Open(key); t.err == nil {
		t.start = r.clock.Now()
	}
	return t
}

// Key returns the region key of t.
func (t *Timer) Key() string { return t.key }

// Start opens the region nested as name inside t's region and returns
// its Timer. The child's key is Path(t.Key(), name).
func (t *Timer) Start(name string) *Timer {
	return t.r.Start(Path(t.key, name))
}

// Stop closes the timer's region and records the elapsed time. Calls
// after the first do nothing.
func (t *Timer) Stop() (time.Duration, error) {
	if t.stopped {
		return 0, nil
	}
	t.stopped = true
	if t.err != nil {
		return 0, t.err
	}
	d := t.r.clock.Since(t.start)
	return d, t.r.Close(t.key, d)
}

// Time runs fn as an execution of region key. The region is closed
// even if fn panics; the panic then continues.
func (r *Registry) Time(key string, fn func()) (err error) {
	t := r.Start(key)
	defer func() {
		if _, serr := t.Stop(); err == nil {
			err = serr
		}
	}()
	fn()
	return nil
}

// Flush moves buffered samples into the region accumulators. Calling
// it periodically during long runs bounds buffer memory.
func (r *Registry) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active.Load() {
		return ErrNoActiveRun
	}
	r.flush()
	return nil
}

func (r *Registry) flush() {
	r.regions.Range(func(k, v any) bool {
		key, reg := k.(string), v.(*region)
		samples, evicted := r.rec.Drain(key)
		if err := reg.acc.Fold(samples); err != nil {
			// The recorder only accepts valid samples.
			r.log.WithError(err).WithField("region", key).Error("dropping batch")
		}
		if evicted > 0 {
			reg.acc.AddEvicted(evicted)
			r.log.WithFields(logrus.Fields{"region": key, "evicted": evicted}).Warn("samples evicted")
		}
		return true
	})
}

// A Result is the outcome of one run.
type Result struct {
	RunID   string
	Labels  map[string]string
	Started time.Time
	Ended   time.Time

	// Stats holds the statistics of every balanced region.
	Stats map[string]*benchmath.Stats

	// FirstSeen is when each region in Stats was first observed.
	FirstSeen map[string]time.Time

	// Excluded lists the unbalanced regions left out of Stats, in
	// sorted order.
	Excluded []string
}

// Keys returns the keys of r.Stats in sorted order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.Stats))
	for k := range r.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EndRun finalizes every region and ends the run. Callers must make
// sure no Open/Close pairs are in flight.
//
// If some regions are unbalanced, EndRun returns both a Result
// without them and an *UnbalancedRegionError.
func (r *Registry) EndRun() (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active.Load() {
		return nil, ErrNoActiveRun
	}
	r.flush()
	r.active.Store(false)

	res := &Result{
		RunID:     r.run.id,
		Labels:    r.run.labels,
		Started:   r.run.started,
		Ended:     r.now(),
		Stats:     make(map[string]*benchmath.Stats),
		FirstSeen: make(map[string]time.Time),
	}
	var unbalanced *UnbalancedRegionError
	r.regions.Range(func(k, v any) bool {
		key, reg := k.(string), v.(*region)
		if n := reg.pending.Load(); n != 0 {
			if unbalanced == nil {
				unbalanced = &UnbalancedRegionError{Pending: make(map[string]int64)}
			}
			unbalanced.Pending[key] = n
			return true
		}
		res.Stats[key] = reg.acc.Finalize()
		res.FirstSeen[key] = reg.created
		return true
	})

	log := r.log.WithFields(logrus.Fields{"run": res.RunID, "regions": len(res.Stats)})
	if unbalanced != nil {
		res.Excluded = unbalanced.Keys()
		log.WithField("excluded", res.Excluded).Warn("run ended with unbalanced regions")
		return res, unbalanced
	}
	log.Debug("run ended")
	return res, nil
}

// Counters returns the recorder counters of every region in the
// current or most recent run.
func (r *Registry) Counters() map[string]benchrec.Counters {
	out := make(map[string]benchrec.Counters)
	r.regions.Range(func(k, _ any) bool {
		out[k.(string)] = r.rec.Counters(k.(string))
		return true
	})
	return out
}
