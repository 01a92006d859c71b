// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

func parseAll(t *testing.T, data string) []Record {
	t.Helper()
	r := NewReader(strings.NewReader(data), "test")
	var out []Record
	for r.Scan() {
		switch rec := r.Result().(type) {
		case *Result:
			res := rec.Clone()
			res.fileName, res.line = "", 0
			out = append(out, res)
		case *SyntaxError:
			out = append(out, rec)
		default:
			t.Fatalf("unexpected result type %T", rec)
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal("parsing failed: ", err)
	}
	return out
}

func ns(v float64) Value {
	return Value{Value: v * 1e-9, Unit: "sec/op", OrigValue: v, OrigUnit: "ns/op"}
}

func TestReader(t *testing.T) {
	const input = `goos: linux
goarch: amd64
pkg: example.com/codec
cpu: Intel(R) Xeon(R) CPU @ 2.20GHz
BenchmarkDecode
BenchmarkDecode/size=1KB-8         	  100000	      1250 ns/op	     512 B/op	       3 allocs/op
BenchmarkDecode/size=1KB-8         	  100000	      1300 ns/op
PASS
ok  	example.com/codec	2.1s

pkg:
BenchmarkEncode 10 5 ns/op 3 MB/s
`
	want := []Record{
		&Result{
			Config: []Config{
				{"goos", "linux", true},
				{"goarch", "amd64", true},
				{"pkg", "example.com/codec", true},
				{"cpu", "Intel(R) Xeon(R) CPU @ 2.20GHz", true},
			},
			Name:   "Decode/size=1KB-8",
			Iters:  100000,
			Values: []Value{ns(1250), {Value: 512, Unit: "B/op"}, {Value: 3, Unit: "allocs/op"}},
		},
		&Result{
			Config: []Config{
				{"goos", "linux", true},
				{"goarch", "amd64", true},
				{"pkg", "example.com/codec", true},
				{"cpu", "Intel(R) Xeon(R) CPU @ 2.20GHz", true},
			},
			Name:   "Decode/size=1KB-8",
			Iters:  100000,
			Values: []Value{ns(1300)},
		},
		&Result{
			Config: []Config{
				{"goos", "linux", true},
				{"goarch", "amd64", true},
				{"cpu", "Intel(R) Xeon(R) CPU @ 2.20GHz", true},
			},
			Name:   "Encode",
			Iters:  10,
			Values: []Value{ns(5), {Value: 3e6, Unit: "B/s", OrigValue: 3, OrigUnit: "MB/s"}},
		},
	}
	got := parseAll(t, input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got:\n%+v\nwant:\n%+v", got, want)
	}
}

func TestReaderSyntaxErrors(t *testing.T) {
	for _, test := range []struct {
		line, msg string
	}{
		{"BenchmarkX ", "missing iteration count"},
		{"BenchmarkX abc 1 ns/op", "parsing iteration count: invalid syntax"},
		{"BenchmarkX 1", "missing measurements"},
		{"BenchmarkX 1 1", "missing units"},
		{"BenchmarkX 1 x ns/op", "parsing measurement: invalid syntax"},
	} {
		got := parseAll(t, test.line+"\nBenchmarkY 1 1 ns/op\n")
		if len(got) != 2 {
			t.Errorf("%q: got %d records, want 2", test.line, len(got))
			continue
		}
		se, ok := got[0].(*SyntaxError)
		if !ok {
			t.Errorf("%q: got %T, want *SyntaxError", test.line, got[0])
			continue
		}
		if se.Msg != test.msg || se.Line != 1 || se.FileName != "test" {
			t.Errorf("%q: got %v, want test:1: %s", test.line, se, test.msg)
		}
		// Parsing continues after a syntax error.
		if res, ok := got[1].(*Result); !ok || res.Name != "Y" {
			t.Errorf("%q: got %v after the error, want BenchmarkY", test.line, got[1])
		}
	}
}

func TestKeyValueLines(t *testing.T) {
	for line, want := range map[string]bool{
		"key: value":    true,
		"key:\tvalue":   true,
		"key:":          true,
		"key:value":     false,
		"Key: value":    false,
		"my key: x":     false,
		"keY: x":        false,
		": value":       false,
		"no colon":      false,
		"ok  \tpkg\t1s": false,
	} {
		if _, _, ok := parseKeyValueLine(line); ok != want {
			t.Errorf("parseKeyValueLine(%q) = %v, want %v", line, ok, want)
		}
	}
}

func TestReaderIOError(t *testing.T) {
	errBoom := errors.New("boom")
	r := NewReader(iotest.ErrReader(errBoom), "bad")
	if r.Scan() {
		t.Fatal("Scan succeeded")
	}
	if !errors.Is(r.Err(), errBoom) {
		t.Fatalf("got %v, want %v", r.Err(), errBoom)
	}
	if r.Scan() {
		t.Fatal("Scan succeeded after error")
	}
}

func TestReaderNoResult(t *testing.T) {
	r := NewReader(strings.NewReader(""), "")
	if got := r.Result(); got != noResult {
		t.Fatalf("got %v before Scan", got)
	}
}

func TestReaderInitConfig(t *testing.T) {
	r := new(Reader)
	r.Reset(strings.NewReader("BenchmarkA 1 1 ns/op\n"), "f", ".file", "f", ".label", "x")
	if !r.Scan() {
		t.Fatal(r.Err())
	}
	res := r.Result().(*Result)
	if res.GetConfig(".file") != "f" || res.GetConfig(".label") != "x" {
		t.Errorf("got config %+v", res.Config)
	}
	if file, line := res.Pos(); file != "f" || line != 1 {
		t.Errorf("got pos %s:%d", file, line)
	}
}
