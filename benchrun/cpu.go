// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"errors"
	"runtime"
	"time"
)

// ErrCPUTimeUnsupported is returned by TimeCPU on platforms without
// per-thread resource usage.
var ErrCPUTimeUnsupported = errors.New("per-thread CPU time not supported")

// Suffixes of the regions TimeCPU records CPU time in.
const (
	UserTimeSuffix   = "/utime"
	SystemTimeSuffix = "/stime"
)

// cpuTimes is the CPU time consumed by the calling thread so far.
type cpuTimes struct {
	user, sys time.Duration
}

// TimeCPU runs fn as an execution of region key, like Time, and also
// records the user and system CPU time fn consumed as samples of
// key+UserTimeSuffix and key+SystemTimeSuffix.
//
// The calling goroutine is locked to its OS thread while fn runs and
// the thread's resource usage is read before and after. CPU time
// spent by goroutines that fn starts is not included. Where thread
// usage cannot be read, fn is still timed and TimeCPU returns an
// error wrapping ErrCPUTimeUnsupported.
func (r *Registry) TimeCPU(key string, fn func()) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	before, cerr := threadCPU()
	t := r.Start(key)
	defer func() {
		_, serr := t.Stop()
		if err == nil {
			err = serr
		}
		if cerr != nil {
			if err == nil {
				err = cerr
			}
			return
		}
		after, aerr := threadCPU()
		if aerr != nil {
			if err == nil {
				err = aerr
			}
			return
		}
		if rerr := r.Record(key+UserTimeSuffix, after.user-before.user); err == nil {
			err = rerr
		}
		if rerr := r.Record(key+SystemTimeSuffix, after.sys-before.sys); err == nil {
			err = rerr
		}
	}()
	fn()
	return nil
}
