package oracle

import (
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/units"
)

// CountPasses counts, per time interval, the pedestrians that leave sub
// during (t0, t1]: their first sampled frame strictly beyond sub.X1 falls
// in that range and they were sampled inside sub before it.
func CountPasses(cols []kinematics.Column, sub Strip, iv units.Intervals) []int {
	n := iv.Count()
	out := make([]int, n)
	if n == 0 || iv.DeltaFrames <= 0 {
		return out
	}
	for _, c := range cols {
		f, ok := sub.exitFrame(c, iv.NumFrames)
		if !ok || f == 0 {
			continue
		}
		i := (f - 1) / iv.DeltaFrames
		if i < n {
			out[i] += c.Rows()
		}
	}
	return out
}

// Traversals returns the ids of pedestrians that start at or before
// area.X0 and are later seen strictly beyond area.X1 within numFrames,
// having been sampled inside on the way. Ids are in column order.
func Traversals(cols []kinematics.Column, area Strip, numFrames int) []int {
	var ids []int
	for _, c := range cols {
		if !units.LessOrNear(c.XAt(0), area.X0) {
			continue
		}
		if _, ok := area.exitFrame(c, numFrames); ok {
			ids = append(ids, c.IDs...)
		}
	}
	return ids
}
