// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"fmt"
	"time"
)

// A Recorder receives one duration sample per region.
// *benchrun.Registry implements Recorder.
type Recorder interface {
	Record(key string, d time.Duration) error
}

// A Scanner is a source of Records, such as a *Reader or *Files.
type Scanner interface {
	Scan() bool
	Result() Record
	Err() error
}

// Feed records the time per operation of every result read from s
// under the result's region key, and returns the number of samples
// recorded.
//
// Syntax errors, results without a time per operation, and samples
// rejected by rec are returned as warnings and do not stop Feed. Only
// an error from s does.
func Feed(s Scanner, rec Recorder) (n int, warnings []error, err error) {
	for s.Scan() {
		switch r := s.Result().(type) {
		case *SyntaxError:
			warnings = append(warnings, r)
		case *Result:
			d, ok := r.Duration()
			if !ok {
				file, line := r.Pos()
				warnings = append(warnings, fmt.Errorf("%s:%d: %s has no sec/op value", file, line, r.Name))
				continue
			}
			if err := rec.Record(r.Name.Key(), d); err != nil {
				warnings = append(warnings, fmt.Errorf("%s: %w", r.Name.Key(), err))
				continue
			}
			n++
		}
	}
	return n, warnings, s.Err()
}
