package oracle

import (
	"fmt"

	"github.com/banshee-data/flowcheck/internal/units"
)

// SegmentKind classifies how one sub-interval of motion overlaps a strip.
type SegmentKind int

const (
	OutsideStrip SegmentKind = iota
	ExactBoundaryMatch
	FullyContained
	SpansEntireStrip
	EntersMidInterval
	ExitsMidInterval
)

var segmentKindNames = [...]string{
	OutsideStrip:       "outside",
	ExactBoundaryMatch: "exact-boundary",
	FullyContained:     "contained",
	SpansEntireStrip:   "spans",
	EntersMidInterval:  "enters",
	ExitsMidInterval:   "exits",
}

func (k SegmentKind) String() string {
	if k >= 0 && int(k) < len(segmentKindNames) {
		return segmentKindNames[k]
	}
	return fmt.Sprintf("SegmentKind(%d)", int(k))
}

// Classify picks the first matching kind for a segment moving from start
// to end (start <= end) against [x0, x1].
func Classify(start, end, x0, x1 float64) SegmentKind {
	switch {
	case units.Near(start, x0) && units.Near(end, x1):
		return ExactBoundaryMatch
	case units.LessOrNear(x0, start) && units.LessOrNear(end, x1):
		return FullyContained
	case units.StrictlyLess(start, x0) && units.StrictlyLess(x1, end):
		return SpansEntireStrip
	case units.StrictlyLess(start, x0) && units.StrictlyLess(x0, end) && units.LessOrNear(end, x1):
		return EntersMidInterval
	case units.LessOrNear(x0, start) && units.StrictlyLess(start, x1) && units.StrictlyLess(x1, end):
		return ExitsMidInterval
	default:
		return OutsideStrip
	}
}

// Segment is the motion of one column over a sub-interval, sampled every
// Step metres for Frames frames.
type Segment struct {
	Start  float64
	End    float64
	Step   float64
	Frames int
}

// stepForward returns the first sampled position at or beyond x0.
func (s Segment) stepForward(x0 float64) float64 {
	for k := 0; k <= s.Frames; k++ {
		if pos := s.Start + float64(k)*s.Step; units.LessOrNear(x0, pos) {
			return pos
		}
	}
	return s.End
}

// stepBackward returns the last sampled position at or before x1.
func (s Segment) stepBackward(x1 float64) float64 {
	for k := 0; k <= s.Frames; k++ {
		if pos := s.End - float64(k)*s.Step; units.LessOrNear(pos, x1) {
			return pos
		}
	}
	return s.Start
}

// ClippedDistance returns the kind of s against [x0, x1] and the distance
// travelled inside the strip as seen at sampled frames. The distance is
// never negative.
func ClippedDistance(s Segment, x0, x1 float64) (SegmentKind, float64) {
	kind := Classify(s.Start, s.End, x0, x1)
	var d float64
	switch kind {
	case ExactBoundaryMatch:
		d = x1 - x0
	case FullyContained:
		d = s.End - s.Start
	case SpansEntireStrip:
		d = s.stepBackward(x1) - s.stepForward(x0)
	case EntersMidInterval:
		d = s.End - s.stepForward(x0)
	case ExitsMidInterval:
		d = s.stepBackward(x1) - s.Start
	}
	return kind, max(d, 0)
}
