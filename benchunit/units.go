// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchunit normalizes benchmark units and formats values in
// those units for reports.
package benchunit

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// A Class specifies what class of unit prefixes are in use.
type Class int

const (
	// Decimal values are scaled by powers of 1000 with SI
	// prefixes such as "k" and "m".
	Decimal Class = iota
	// Binary values are scaled by powers of 1024 with IEC
	// prefixes such as "Ki" and "Mi".
	Binary
)

func (c Class) String() string {
	switch c {
	case Decimal:
		return "Decimal"
	case Binary:
		return "Binary"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ClassOf returns the Class of unit. If unit counts bytes in the
// numerator, this is Binary. Otherwise, it is Decimal.
func ClassOf(unit string) Class {
	cls := Decimal
	walkUnit(unit, func(tok string, denom bool) string {
		if !denom && (tok == "B" || tok == "MB" || tok == "bytes") {
			cls = Binary
		}
		return tok
	})
	return cls
}

func isUnitSep(r rune) bool {
	return r == '*' || r == '/' || r == '-' || unicode.IsSpace(r)
}

// walkUnit calls fn for every token of unit and returns unit with each
// token replaced by fn's result. denom reports whether the token is in
// the denominator.
func walkUnit(unit string, fn func(tok string, denom bool) string) string {
	var b strings.Builder
	denom := false
	start := -1
	flush := func(end int) {
		if start >= 0 {
			b.WriteString(fn(unit[start:end], denom))
			start = -1
		}
	}
	for i, r := range unit {
		if !isUnitSep(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
		switch r {
		case '*':
			denom = false
		case '/':
			denom = true
		}
		b.WriteRune(r)
	}
	flush(len(unit))
	return b.String()
}

type tidyEntry struct {
	tidied string
	factor float64
}

var tidyCache sync.Map // unit string -> *tidyEntry

// Tidy normalizes a value with a pre-scaled unit into base units. For
// example, nanoseconds become "sec" and megabytes become "B". It
// returns the re-scaled value and its new unit.
func Tidy(value float64, unit string) (tidiedValue float64, tidiedUnit string) {
	newUnit, factor := tidyUnit(unit)
	return value * factor, newUnit
}

func tidyUnit(unit string) (tidied string, factor float64) {
	switch unit {
	case "ns/op":
		return "sec/op", 1e-9
	case "MB/s":
		return "B/s", 1e6
	case "B/op", "allocs/op", "sec/op":
		return unit, 1
	}
	if !(strings.Contains(unit, "ns") || strings.Contains(unit, "MB")) {
		return unit, 1
	}
	if e, ok := tidyCache.Load(unit); ok {
		e := e.(*tidyEntry)
		return e.tidied, e.factor
	}

	factor = 1
	tidied = walkUnit(unit, func(tok string, denom bool) string {
		if denom {
			return tok
		}
		switch tok {
		case "ns":
			factor /= 1e9
			return "sec"
		case "MB":
			factor *= 1e6
			return "B"
		}
		return tok
	})
	tidyCache.Store(unit, &tidyEntry{tidied, factor})
	return tidied, factor
}
