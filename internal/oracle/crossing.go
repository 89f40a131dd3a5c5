package oracle

import (
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/units"
)

// CountLineCrossings returns, for every line and time interval, the number
// of pedestrians whose x at the interval start is at or before the line and
// whose x at the interval end is at or beyond it. Both ends are inclusive,
// so a column landing exactly on a line at an interval boundary is counted
// in both adjacent intervals.
func CountLineCrossings(cols []kinematics.Column, lines []float64, iv units.Intervals) [][]int {
	n := iv.Count()
	out := make([][]int, len(lines))
	for li, line := range lines {
		counts := make([]int, n)
		for i := 0; i < n; i++ {
			t0, t1 := iv.Bounds(i)
			for _, c := range cols {
				if units.LessOrNear(c.XAt(t0), line) && units.LessOrNear(line, c.XAt(t1)) {
					counts[i] += c.Rows()
				}
			}
		}
		out[li] = counts
	}
	return out
}
