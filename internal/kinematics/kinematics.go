// Package kinematics describes non-interacting pedestrians that move with a
// closed-form constant-velocity law, and groups them into columns that share
// the same motion along the travel axis.
package kinematics

import (
	"math"
	"sort"

	"github.com/banshee-data/flowcheck/internal/units"
)

// Point is a position in metres.
type Point struct {
	X float64
	Y float64
}

// MotionLaw is position(frame) = Origin + Speed*frame/fps along Angle
// (radians, measured from the +x axis).
type MotionLaw struct {
	Origin Point
	Speed  float64
	Angle  float64
	FPS    float64
}

// At returns the position at the 0-based frame index.
func (m MotionLaw) At(frame int) Point {
	d := m.Speed * float64(frame) / m.FPS
	return Point{
		X: m.Origin.X + d*math.Cos(m.Angle),
		Y: m.Origin.Y + d*math.Sin(m.Angle),
	}
}

// VelocityX returns the velocity component along the travel axis.
func (m MotionLaw) VelocityX() float64 {
	return m.Speed * math.Cos(m.Angle)
}

// Shape holds the ellipse attributes written to trajectory files. They are
// not used for counting.
type Shape struct {
	A     float64
	B     float64
	Angle float64
	Color int
}

// DefaultShape is the ellipse used by every synthesised pedestrian.
var DefaultShape = Shape{A: 0.2, B: 0.2, Angle: 0, Color: 220}

// Pedestrian is one synthesised agent.
type Pedestrian struct {
	ID     int
	Motion MotionLaw
	Shape  Shape
}

// Column is a set of pedestrians that share one x motion law and differ only
// in y. Counts derived from a column scale by Rows.
type Column struct {
	X0       float64 // x at frame index 0
	Velocity float64 // x velocity in m/s
	FPS      float64
	IDs      []int
}

// Rows returns how many pedestrians the column replicates.
func (c Column) Rows() int {
	return len(c.IDs)
}

// StepX is the x displacement per frame.
func (c Column) StepX() float64 {
	return c.Velocity / c.FPS
}

// XAt returns the x position at the 0-based frame index.
func (c Column) XAt(frame int) float64 {
	return c.X0 + c.Velocity*float64(frame)/c.FPS
}

// ShiftColumns returns copies of cols whose frame index 0 is the given
// frame of the originals.
func ShiftColumns(cols []Column, frames int) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		c.X0 = c.XAt(frames)
		c.IDs = append([]int(nil), c.IDs...)
		out[i] = c
	}
	return out
}

// GroupColumns merges pedestrians with the same x origin and x velocity
// into columns, ordered by descending x origin. IDs inside a column are
// sorted ascending.
func GroupColumns(peds []Pedestrian) []Column {
	var cols []Column
	for _, p := range peds {
		vx := p.Motion.VelocityX()
		found := false
		for i := range cols {
			c := &cols[i]
			if units.Near(c.X0, p.Motion.Origin.X) && units.Near(c.Velocity, vx) && c.FPS == p.Motion.FPS {
				c.IDs = append(c.IDs, p.ID)
				found = true
				break
			}
		}
		if !found {
			cols = append(cols, Column{X0: p.Motion.Origin.X, Velocity: vx, FPS: p.Motion.FPS, IDs: []int{p.ID}})
		}
	}
	for i := range cols {
		sort.Ints(cols[i].IDs)
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].X0 > cols[j].X0 })
	return cols
}

// TotalRows returns the number of pedestrians across all columns.
func TotalRows(cols []Column) int {
	n := 0
	for _, c := range cols {
		n += c.Rows()
	}
	return n
}
