// Package money holds rounding helpers shared by the import and filing code.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds x half away from zero to the given number of decimal places.
// Going through decimal avoids float artefacts such as round(2.675, 2) == 2.67.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Round2 rounds to 2 decimal places, the precision of filed amounts.
func Round2(x float64) float64 { return Round(x, 2) }

// Round3 rounds to 3 decimal places, the precision of ledger taxable values.
func Round3(x float64) float64 { return Round(x, 3) }

// epsilon absorbs binary representation noise in tolerance checks.
const epsilon = 1e-9

// Diff returns |a-b|, subtracted in decimal.
func Diff(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return math.Abs(a - b)
	}
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs().InexactFloat64()
}

// Within reports whether a and b differ by at most tol. Any difference above
// tol counts, however small.
func Within(a, b, tol float64) bool {
	return Diff(a, b) <= tol+epsilon
}

// Sum adds values exactly in decimal and returns the float result.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}
