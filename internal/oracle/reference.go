package oracle

import (
	"fmt"
	"slices"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/units"
)

// Input is everything needed to derive a ReferenceSet.
type Input struct {
	Columns   []kinematics.Column
	Intervals units.Intervals
	// DtFrames is the optional sub-interval length for per-dt distances.
	// Zero skips that computation.
	DtFrames int
	Lines    []float64
	Area     Strip
	ExitRule ExitRule
}

// ReferenceSet holds the exact values for one scenario. It is immutable;
// accessors return copies.
type ReferenceSet struct {
	intervals    units.Intervals
	area         Strip
	lines        []float64
	crossings    [][]int
	occupancy    []int
	passes       [][]int
	subDistances []Accumulation
	distances    []float64
	traversals   []int
	dtFrames     int
}

// Build derives every reference quantity for in.
func Build(in Input) (*ReferenceSet, error) {
	iv := in.Intervals
	if _, err := units.NewIntervals(iv.NumFrames, iv.DeltaFrames, iv.FPS); err != nil {
		return nil, fmt.Errorf("intervals: %w", err)
	}
	if err := in.Area.Validate(); err != nil {
		return nil, err
	}
	if in.DtFrames < 0 {
		return nil, fmt.Errorf("sub-interval length must not be negative, got %d frames", in.DtFrames)
	}

	rs := &ReferenceSet{
		intervals: iv,
		area:      in.Area,
		lines:     slices.Clone(in.Lines),
		crossings: CountLineCrossings(in.Columns, in.Lines, iv),
		occupancy: CountOccupancy(in.Columns, in.Area, iv.NumFrames, in.ExitRule),
		dtFrames:  in.DtFrames,
	}
	for _, sub := range in.Area.SubStrips() {
		rs.passes = append(rs.passes, CountPasses(in.Columns, sub, iv))
	}

	perFrame, err := AccumulateDistance(in.Columns, in.Area, 1, iv.NumFrames)
	if err != nil {
		return nil, err
	}
	rs.distances = SumDistancePerInterval(perFrame, iv)

	if in.DtFrames > 0 {
		rs.subDistances, err = AccumulateDistance(in.Columns, in.Area, in.DtFrames, iv.NumFrames)
		if err != nil {
			return nil, err
		}
	}
	rs.traversals = Traversals(in.Columns, in.Area, iv.NumFrames)
	slices.Sort(rs.traversals)
	return rs, nil
}

// Intervals returns the time discretisation.
func (r *ReferenceSet) Intervals() units.Intervals { return r.intervals }

// Area returns the measurement strip.
func (r *ReferenceSet) Area() Strip { return r.area }

// DtFrames returns the sub-interval length, zero if none was requested.
func (r *ReferenceSet) DtFrames() int { return r.dtFrames }

// Lines returns the line positions.
func (r *ReferenceSet) Lines() []float64 { return slices.Clone(r.lines) }

// Crossings returns the per-interval crossing counts for line index li.
func (r *ReferenceSet) Crossings(li int) []int { return slices.Clone(r.crossings[li]) }

// Occupancy returns the per-frame occupancy of the whole area.
func (r *ReferenceSet) Occupancy() []int { return slices.Clone(r.occupancy) }

// OccupancyPerInterval returns the occupancy summed per interval.
func (r *ReferenceSet) OccupancyPerInterval() []int {
	return SumPerInterval(r.occupancy, r.intervals)
}

// Passes returns the per-interval pass counts for sub-strip p.
func (r *ReferenceSet) Passes(p int) []int { return slices.Clone(r.passes[p]) }

// SubIntervalDistances returns the per-dt accumulation over the whole area.
func (r *ReferenceSet) SubIntervalDistances() []Accumulation { return slices.Clone(r.subDistances) }

// Distances returns the per-frame clipped distance summed per interval.
func (r *ReferenceSet) Distances() []float64 { return slices.Clone(r.distances) }

// Traversals returns the sorted ids of pedestrians crossing the whole area.
func (r *ReferenceSet) Traversals() []int { return slices.Clone(r.traversals) }
