// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"os"
)

// A Files reads benchmark results from a sequence of input files.
//
// Each Result carries an internal ".file" configuration key holding
// the path it was read from.
type Files struct {
	// Paths is the list of file names to read.
	Paths []string

	// AllowStdin treats the path "-" as stdin, and an empty Paths
	// as just stdin.
	AllowStdin bool

	started bool
	reader  Reader
	file    *os.File
	err     error
}

// Scan advances to the next record in the sequence of files and
// reports whether one was read. See Reader.Scan.
func (f *Files) Scan() bool {
	if f.err != nil {
		return false
	}
	if !f.started {
		f.started = true
		if f.AllowStdin && len(f.Paths) == 0 {
			f.Paths = []string{"-"}
		}
	}
	for {
		if f.file == nil {
			if len(f.Paths) == 0 {
				return false
			}
			path := f.Paths[0]
			f.Paths = f.Paths[1:]
			if f.AllowStdin && path == "-" {
				f.file = os.Stdin
			} else {
				file, err := os.Open(path)
				if err != nil {
					f.err = err
					return false
				}
				f.file = file
			}
			f.reader.Reset(f.file, path, ".file", path)
		}
		if f.reader.Scan() {
			return true
		}
		if f.file != os.Stdin {
			f.file.Close()
		}
		f.file = nil
		if err := f.reader.Err(); err != nil {
			f.err = err
			return false
		}
	}
}

// Result returns the record read by the last call to Scan.
func (f *Files) Result() Record {
	return f.reader.Result()
}

// Err returns the error that stopped Scan, if any.
func (f *Files) Err() error {
	return f.err
}
