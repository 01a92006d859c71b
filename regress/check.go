// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchrun"
)

// ErrBaselineStore matches a *StoreError.
var ErrBaselineStore = errors.New("baseline store failure")

// A StoreError reports baseline store operations that failed for
// some regions. It never invalidates the verdicts it accompanies.
type StoreError struct {
	Op   string           // "load" or "save"
	Errs map[string]error // by region key
}

func (e *StoreError) Error() string {
	keys := make([]string, 0, len(e.Errs))
	for k := range e.Errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "baseline %s failed for %d region(s)", e.Op, len(keys))
	for _, k := range keys {
		fmt.Fprintf(&b, "\n\t%s: %v", k, e.Errs[k])
	}
	return b.String()
}

func (e *StoreError) Is(target error) bool {
	return target == ErrBaselineStore
}

func (e *StoreError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errs))
	for _, err := range e.Errs {
		errs = append(errs, err)
	}
	return errs
}

// storeErrors collects per-region failures from concurrent workers.
type storeErrors struct {
	mu  sync.Mutex
	err *StoreError
}

func (s *storeErrors) add(op, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = &StoreError{Op: op, Errs: make(map[string]error)}
	}
	s.err.Errs[key] = err
}

// Check loads the baseline of every region in res and compares it
// with the region's statistics.
//
// A region without a baseline is INSUFFICIENT_DATA. If loading a
// baseline fails for another reason, the region is also
// INSUFFICIENT_DATA, and Check returns the complete Report together
// with a *StoreError. Check returns a nil Report only if ctx is done.
func (d *Detector) Check(ctx context.Context, store baseline.Store, res *benchrun.Result) (*Report, error) {
	keys := res.Keys()
	verdicts := make([]Verdict, len(keys))
	var failed storeErrors

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			base, err := store.Load(gctx, key)
			switch {
			case errors.Is(err, baseline.ErrNotFound):
				base = nil
			case err != nil:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.add("load", key, err)
				base = nil
			}
			v := d.Compare(key, res.Stats[key], base)
			if err != nil && !errors.Is(err, baseline.ErrNotFound) {
				v.Warnings = append(v.Warnings, fmt.Errorf("%w: %v", ErrBaselineStore, err))
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:    res.RunID,
		Labels:   res.Labels,
		Verdicts: make(map[string]Verdict, len(keys)),
		Stats:    res.Stats,
		Excluded: res.Excluded,
	}
	for _, v := range verdicts {
		rep.Verdicts[v.Key] = v
		log := d.log.WithFields(logrus.Fields{"run": res.RunID, "region": v.Key, "class": v.Class.String()})
		if v.Class == Regressed {
			log.WithField("effect", v.EffectSize).Info("regression detected")
		} else {
			log.Debug("compared")
		}
	}
	if failed.err != nil {
		rep.StoreErrors = failed.err.Errs
		d.log.WithError(failed.err).Warn("some baselines could not be loaded")
		return rep, failed.err
	}
	return rep, nil
}

// Promote saves the statistics of every region in res as its new
// baseline. Regions without samples are skipped. Failures are
// collected into a *StoreError; regions that saved successfully stay
// saved.
func (d *Detector) Promote(ctx context.Context, store baseline.Store, res *benchrun.Result) error {
	var failed storeErrors
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, key := range res.Keys() {
		st := res.Stats[key]
		if st.Count == 0 {
			d.log.WithField("region", key).Debug("not saving empty baseline")
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := store.Save(gctx, key, st, st.Count); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.add("save", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if failed.err != nil {
		d.log.WithError(failed.err).Warn("some baselines could not be saved")
		return failed.err
	}
	d.log.WithFields(logrus.Fields{"run": res.RunID, "regions": len(res.Stats)}).Info("baselines saved")
	return nil
}
