package units

import (
	"math"
	"testing"
)

func TestNearlyEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		tol  float64
		want bool
	}{
		{"identical", 1.5, 1.5, Epsilon, true},
		{"accumulated drift", 5.000000000000002, 5, Epsilon, true},
		{"just inside", 1.0, 1.0 + 0.9e-5, Epsilon, true},
		{"just outside", 1.0, 1.0 + 2e-5, Epsilon, false},
		{"NaN", math.NaN(), math.NaN(), Epsilon, false},
		{"wide tolerance", 1.0, 1.1, 0.2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearlyEqual(tt.a, tt.b, tt.tol); got != tt.want {
				t.Errorf("NearlyEqual(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.tol, got, tt.want)
			}
		})
	}
}

func TestOrderingHelpers(t *testing.T) {
	if !LessOrNear(5.000000000000002, 5) {
		t.Error("LessOrNear should accept drift above the bound")
	}
	if LessOrNear(5.1, 5) {
		t.Error("LessOrNear(5.1, 5) = true")
	}
	if StrictlyLess(4.999999999, 5) {
		t.Error("StrictlyLess should reject near values")
	}
	if !StrictlyLess(4.9, 5) {
		t.Error("StrictlyLess(4.9, 5) = false")
	}
	if !Between(4.5, 4.5, 5.5) || !Between(5.5, 4.5, 5.5) {
		t.Error("Between must include both bounds")
	}
	if Between(5.6, 4.5, 5.5) {
		t.Error("Between(5.6, 4.5, 5.5) = true")
	}
}

func TestIsWhole(t *testing.T) {
	tests := []struct {
		x    float64
		want bool
	}{
		{8, true},
		{1.5 / 1 * 8, true},
		{1 / 1.3 * 8, false},
		{0.25 / 1.3 * 8, false},
		{11.999999999999998, true},
		{math.Inf(1), false},
		{math.NaN(), false},
	}
	for _, tt := range tests {
		if got := IsWhole(tt.x); got != tt.want {
			t.Errorf("IsWhole(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
