// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchunit

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler represents a scaling factor for a number and
// its scientific representation.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Unscaled value of 1 Prefix (e.g., 1 k => 1000)
	Prefix string  // Unit prefix ("k", "M", "Ki", etc)
}

// Format formats val and appends the unit prefix. val must already be
// in base units (see Tidy).
func (s Scaler) Format(val float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, val/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Prefix...)
	return string(buf)
}

// NoOpScaler formats numbers with the fewest digits that capture the
// exact value and no prefix, for machine-readable output.
var NoOpScaler = Scaler{-1, 1, ""}

type factor struct {
	factor float64
	prefix string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

var (
	siFactors  = mkSIFactors()
	iecFactors = mkIECFactors()
	sigfigs    = mkSigfigs()
)

// sigfigsBase is the precision of sigfigs[0].
const sigfigsBase = 3

func mkSIFactors() []factor {
	// Thresholds are parsed from their printed form so they match
	// how formatting rounds.
	var factors []factor
	exp := 12
	for _, p := range []string{"T", "G", "M", "k", "", "m", "µ", "n"} {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		factors = append(factors, factor{math.Pow(10, float64(exp)), p, t100, t10, t1})
		exp -= 3
	}
	return factors
}

func mkIECFactors() []factor {
	// Binary prefixes bottom out at the base unit. Values in
	// [1000, 1024) of a prefix render with the smaller prefix.
	var factors []factor
	exp := 40
	for _, p := range []string{"Ti", "Gi", "Mi", "Ki", ""} {
		f := math.Ldexp(1, exp)
		factors = append(factors, factor{f, p, 99.995 * f, 9.9995 * f, .99995 * f})
		exp -= 10
	}
	return factors
}

func mkSigfigs() []float64 {
	var ts []float64
	for exp := -1; exp > -9; exp-- {
		t, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		ts = append(ts, t)
	}
	return ts
}

// Scale formats val using at least three significant digits,
// appending an SI or binary prefix.
func Scale(val float64, cls Class) string {
	return CommonScale([]float64{val}, cls).Format(val)
}

// Duration formats ns nanoseconds as seconds with an SI prefix, such
// as "1.234ms".
func Duration(ns float64) string {
	v, _ := Tidy(ns, "ns")
	return Scale(v, Decimal) + "s"
}

// CommonScale returns a Scaler that shows at least three significant
// digits for every value in vals. The scale is chosen by the non-zero
// value closest to zero.
func CommonScale(vals []float64, cls Class) Scaler {
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0) && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, ""}
	}

	var factors []factor
	switch cls {
	default:
		panic(fmt.Sprintf("bad Class %v", cls))
	case Decimal:
		factors = siFactors
	case Binary:
		factors = iecFactors
	}

	for _, f := range factors {
		switch {
		case min >= f.t100:
			return Scaler{1, f.factor, f.prefix}
		case min >= f.t10:
			return Scaler{2, f.factor, f.prefix}
		case min >= f.t1:
			return Scaler{3, f.factor, f.prefix}
		}
	}

	// Below the smallest factor, add digits instead.
	f := factors[len(factors)-1]
	val := min / f.factor
	for i, thresh := range sigfigs {
		if val >= thresh || i == len(sigfigs)-1 {
			return Scaler{i + sigfigsBase, f.factor, f.prefix}
		}
	}
	panic("not reachable")
}
