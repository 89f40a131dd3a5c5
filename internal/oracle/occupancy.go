package oracle

import (
	"fmt"
	"strings"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/units"
)

// ExitRule selects how a column leaving through the upper boundary is
// counted.
type ExitRule int

const (
	// HoldOnUpperBoundary counts a column that sat exactly on X1 in the
	// previous frame for one more frame after it moves past X1. This matches
	// entry/exit detection that only registers an exit once the position is
	// strictly outside.
	HoldOnUpperBoundary ExitRule = iota
	// FrameSampled counts whatever is inside at each frame.
	FrameSampled
)

func (r ExitRule) String() string {
	switch r {
	case HoldOnUpperBoundary:
		return "hold"
	case FrameSampled:
		return "sampled"
	default:
		return fmt.Sprintf("ExitRule(%d)", int(r))
	}
}

// ParseExitRule accepts "hold" or "sampled". The empty string yields the
// default HoldOnUpperBoundary.
func ParseExitRule(s string) (ExitRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hold":
		return HoldOnUpperBoundary, nil
	case "sampled":
		return FrameSampled, nil
	default:
		return 0, fmt.Errorf("unknown exit rule %q", s)
	}
}

// CountOccupancy returns the number of pedestrians inside area for each
// frame index in [0, numFrames).
func CountOccupancy(cols []kinematics.Column, area Strip, numFrames int, rule ExitRule) []int {
	if numFrames <= 0 {
		return nil
	}
	out := make([]int, numFrames)
	for f := range out {
		for _, c := range cols {
			x := c.XAt(f)
			switch {
			case area.Contains(x):
				out[f] += c.Rows()
			case rule == HoldOnUpperBoundary && f > 0 &&
				units.Near(c.XAt(f-1), area.X1) && units.StrictlyLess(area.X1, x):
				out[f] += c.Rows()
			}
		}
	}
	return out
}

// SumPerInterval sums per-frame counts over [i*Δ, (i+1)*Δ) for each
// interval. Frames past the end of perFrame contribute nothing.
func SumPerInterval(perFrame []int, iv units.Intervals) []int {
	out := make([]int, iv.Count())
	for i := range out {
		t0, t1 := iv.Bounds(i)
		for f := t0; f < t1 && f < len(perFrame); f++ {
			out[i] += perFrame[f]
		}
	}
	return out
}
