package oracle

import (
	"fmt"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/units"
)

// Accumulation is the result for one sub-interval: how many pedestrians
// covered a positive distance inside the strip and the summed distance.
type Accumulation struct {
	Count    int
	Distance float64
}

// AccumulateDistance cuts [0, numFrames) into sub-intervals of dtFrames and
// sums the clipped distance every column covers inside strip during each.
// Counts and distances are scaled by the column row count.
func AccumulateDistance(cols []kinematics.Column, strip Strip, dtFrames, numFrames int) ([]Accumulation, error) {
	if err := strip.Validate(); err != nil {
		return nil, err
	}
	if dtFrames <= 0 {
		return nil, fmt.Errorf("sub-interval length must be positive, got %d frames", dtFrames)
	}
	n := units.NumTimeIntervals(numFrames, dtFrames)
	out := make([]Accumulation, n)
	for k := range out {
		f0, f1 := k*dtFrames, (k+1)*dtFrames
		for _, c := range cols {
			seg := Segment{Start: c.XAt(f0), End: c.XAt(f1), Step: c.StepX(), Frames: dtFrames}
			_, d := ClippedDistance(seg, strip.X0, strip.X1)
			if !units.StrictlyLess(0, d) {
				continue
			}
			out[k].Count += c.Rows()
			out[k].Distance += d * float64(c.Rows())
		}
	}
	return out, nil
}

// SumDistancePerInterval adds per-frame accumulations (dtFrames == 1) over
// [i*Δ, (i+1)*Δ) for each interval.
func SumDistancePerInterval(perFrame []Accumulation, iv units.Intervals) []float64 {
	out := make([]float64, iv.Count())
	for i := range out {
		t0, t1 := iv.Bounds(i)
		for f := t0; f < t1 && f < len(perFrame); f++ {
			out[i] += perFrame[f].Distance
		}
	}
	return out
}
