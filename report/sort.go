// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/benchwatch/benchwatch/regress"
)

// An Order compares two regions of a report, returning a negative
// number if region a sorts before b and a positive number if after.
type Order func(rep *regress.Report, a, b string) int

// ByName orders regions by key.
func ByName(rep *regress.Report, a, b string) int {
	return strings.Compare(a, b)
}

// ByDelta orders regions by the signed relative change of their mean.
// Regions without a baseline sort first.
func ByDelta(rep *regress.Report, a, b string) int {
	return cmp.Compare(rep.Verdicts[a].EffectSize, rep.Verdicts[b].EffectSize)
}

// ByClass orders regions by verdict class, from INSUFFICIENT_DATA to
// REGRESSED.
func ByClass(rep *regress.Report, a, b string) int {
	return cmp.Compare(rep.Verdicts[a].Class, rep.Verdicts[b].Class)
}

// Reverse returns the reverse of o.
func Reverse(o Order) Order {
	return func(rep *regress.Report, a, b string) int { return -o(rep, a, b) }
}

var orders = map[string]Order{
	"name":    ByName,
	"delta":   ByDelta,
	"verdict": ByClass,
}

// ParseOrder returns the Order named s, which is "name", "delta", or
// "verdict", optionally preceded by "-" to reverse it.
func ParseOrder(s string) (Order, error) {
	name, rev := strings.CutPrefix(s, "-")
	o, ok := orders[name]
	if !ok {
		return nil, fmt.Errorf("unknown sort order %q", s)
	}
	if rev {
		o = Reverse(o)
	}
	return o, nil
}

// SortedKeys returns the region keys of rep sorted by o. Regions that
// o considers equal stay in key order. A nil o sorts by name.
func SortedKeys(rep *regress.Report, o Order) []string {
	keys := rep.Keys()
	if o != nil {
		slices.SortStableFunc(keys, func(a, b string) int { return o(rep, a, b) })
	}
	return keys
}
