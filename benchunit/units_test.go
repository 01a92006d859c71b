// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchunit

import "testing"

func TestClassOf(t *testing.T) {
	test := func(unit string, cls Class) {
		t.Helper()
		if got := ClassOf(unit); got != cls {
			t.Errorf("for %s, want %s, got %s", unit, cls, got)
		}
	}
	test("ns/op", Decimal)
	test("sec/op", Decimal)
	test("sec/B", Decimal)
	test("sec/disk-B", Decimal)

	test("B/op", Binary)
	test("bytes/op", Binary)
	test("B/sec", Binary)
	test("sec/B*B", Binary)
	test("disk-B/sec", Binary)
}

func TestTidy(t *testing.T) {
	test := func(unit, tidied string, factor float64) {
		t.Helper()
		gotFactor, got := Tidy(1, unit)
		if got != tidied || gotFactor != factor {
			t.Errorf("for %s, want *%g %s, got *%g %s", unit, factor, tidied, gotFactor, got)
		}
	}

	test("ns/op", "sec/op", 1e-9)
	test("ns", "sec", 1e-9)
	test("x-ns/op", "x-sec/op", 1e-9)
	test("MB/s", "B/s", 1e6)
	test("x-MB/s", "x-B/s", 1e6)
	test("B/op", "B/op", 1)
	test("x-allocs/op", "x-allocs/op", 1)

	test("op/ns", "op/ns", 1)
	test("MB*MB/s", "B*B/s", 1e6*1e6)
	test("MB/MB", "B/MB", 1e6)
}
