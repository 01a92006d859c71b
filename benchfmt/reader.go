// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/benchwatch/benchwatch/benchunit"
)

// A Reader reads the Go benchmark format.
//
// Its API is modeled on bufio.Scanner. The Reader owns the Results it
// returns; a caller should Clone anything it needs to retain.
type Reader struct {
	s   *bufio.Scanner
	err error

	rec    Record
	result Result
}

// A Record is a single record read from a benchmark file. It is a
// *Result or a *SyntaxError.
type Record interface {
	// Pos returns the file name and 1-based line number of the
	// record, or "", 0 if it was not read from a file.
	Pos() (fileName string, line int)
}

var (
	_ Record = (*Result)(nil)
	_ Record = (*SyntaxError)(nil)
)

// A SyntaxError represents a syntax error on a particular line of a
// benchmark results file.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

var (
	noResult = &SyntaxError{"", 0, "Reader.Scan has not been called"}
	errSkip  = errors.New("skip line")
)

// NewReader returns a Reader that parses the Go benchmark format from
// r. fileName is used in error messages.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to read from a new input, dropping all
// configuration. initConfig is an alternating sequence of keys and
// values installed as internal configuration.
func (r *Reader) Reset(ior io.Reader, fileName string, initConfig ...string) {
	if len(initConfig)%2 != 0 {
		panic("len(initConfig) must be a multiple of 2")
	}
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.s = bufio.NewScanner(ior)
	r.err = nil
	r.rec = nil
	r.result = Result{fileName: fileName}
	for i := 0; i < len(initConfig); i += 2 {
		r.result.SetConfig(initConfig[i], initConfig[i+1])
	}
}

func (r *Reader) syntaxError(format string, args ...any) *SyntaxError {
	return &SyntaxError{r.result.fileName, r.result.line, fmt.Sprintf(format, args...)}
}

// Scan advances the reader to the next result or syntax error and
// reports whether one was read. At EOF or on an I/O error it returns
// false; the caller should then check Err.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.result.line++
		line := r.s.Text()
		if strings.HasPrefix(line, "Benchmark") {
			switch err := r.parseBenchmarkLine(line); {
			case err == nil:
				r.rec = &r.result
				return true
			case err == errSkip:
			default:
				r.rec = err.(*SyntaxError)
				return true
			}
			continue
		}
		if key, val, ok := parseKeyValueLine(line); ok {
			r.result.setConfig(key, val, true)
		}
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.result.fileName, r.result.line, err)
	}
	return false
}

// parseKeyValueLine parses line as a "key: value" configuration line.
// Keys begin with a lower case letter and contain no spaces or upper
// case letters.
func parseKeyValueLine(line string) (key, val string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	key, val = line[:i], line[i+1:]
	if r, _ := utf8.DecodeRuneInString(key); !unicode.IsLower(r) {
		return "", "", false
	}
	if strings.IndexFunc(key, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsUpper(r) }) >= 0 {
		return "", "", false
	}
	if val == "" {
		return key, "", true
	}
	// At least one space or tab separates "key:" from "value".
	trimmed := strings.TrimLeft(val, " \t")
	if len(trimmed) == len(val) {
		return "", "", false
	}
	return key, trimmed, true
}

// parseBenchmarkLine parses a "BenchmarkName iters value unit..." line
// into r.result.
func (r *Reader) parseBenchmarkLine(line string) error {
	// "go test -v" prints the bare name when a benchmark starts.
	if !strings.ContainsFunc(line, unicode.IsSpace) {
		return errSkip
	}
	fields := strings.Fields(line[len("Benchmark"):])
	if len(fields) == 0 {
		return r.syntaxError("missing benchmark name")
	}
	r.result.Name = Name(fields[0])
	if len(fields) < 2 {
		return r.syntaxError("missing iteration count")
	}
	iters, err := strconv.Atoi(fields[1])
	if err != nil {
		return r.syntaxError("parsing iteration count: %v", numError(err))
	}
	r.result.Iters = iters

	fields = fields[2:]
	if len(fields) == 0 {
		return r.syntaxError("missing measurements")
	}
	r.result.Values = r.result.Values[:0]
	for ; len(fields) > 0; fields = fields[2:] {
		val, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return r.syntaxError("parsing measurement: %v", numError(err))
		}
		if len(fields) < 2 {
			return r.syntaxError("missing units")
		}
		unit := fields[1]
		v := Value{Value: val, Unit: unit}
		if tv, tu := benchunit.Tidy(val, unit); tu != unit {
			v = Value{Value: tv, Unit: tu, OrigValue: val, OrigUnit: unit}
		}
		r.result.Values = append(r.result.Values, v)
	}
	return nil
}

func numError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

// Result returns the record read by the last call to Scan: a *Result
// or a *SyntaxError. Syntax errors are not fatal; the caller may keep
// calling Scan.
//
// A returned *Result is overwritten by the next call to Scan.
func (r *Reader) Result() Record {
	if r.rec == nil {
		return noResult
	}
	return r.rec
}

// Err returns the first non-EOF I/O error encountered by the Reader.
func (r *Reader) Err() error {
	return r.err
}
