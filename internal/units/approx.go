// Package units provides the frame/second discretisation shared by every
// counter, and the single approximate comparison used at strip and line
// boundaries.
package units

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Epsilon is the absolute tolerance for boundary coincidence. Positions are
// computed as start + v*frame/fps, so values that should land on a boundary
// can be off by a few ulps.
const Epsilon = 1e-5

// NearlyEqual reports whether a and b differ by at most tol.
func NearlyEqual(a, b, tol float64) bool {
	return scalar.EqualWithinAbs(a, b, tol)
}

// Near is NearlyEqual with Epsilon.
func Near(a, b float64) bool {
	return NearlyEqual(a, b, Epsilon)
}

// LessOrNear reports a <= b, treating near values as equal.
func LessOrNear(a, b float64) bool {
	return a < b || Near(a, b)
}

// StrictlyLess reports a < b where a and b are not near each other.
func StrictlyLess(a, b float64) bool {
	return a < b && !Near(a, b)
}

// IsWhole reports whether x is an integer within Epsilon.
func IsWhole(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	return Near(x, math.Round(x))
}

// Between reports lo <= x <= hi with both bounds inclusive under Epsilon.
func Between(x, lo, hi float64) bool {
	return LessOrNear(lo, x) && LessOrNear(x, hi)
}
