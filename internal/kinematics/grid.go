package kinematics

import "math"

// Grid is a rectangular block of pedestrians: NumColumns positions along the
// travel axis and NumRows replicas across it, all Spacing apart.
//
// Column c starts at StartX - c*Spacing (trailing the start position), or at
// StartX + c*Spacing when Leading is set. Row r sits at StartY - r*Spacing.
type Grid struct {
	NumColumns int
	NumRows    int
	Spacing    float64
	StartX     float64
	StartY     float64
	Velocity   float64
	FPS        float64
	SlopeDeg   float64
	Leading    bool
}

// ID returns the pedestrian id for a column and row.
func (g Grid) ID(column, row int) int {
	return g.NumColumns*row + column + 1
}

// ColumnX returns the x origin of column c.
func (g Grid) ColumnX(c int) float64 {
	if g.Leading {
		return g.StartX + float64(c)*g.Spacing
	}
	return g.StartX - float64(c)*g.Spacing
}

// RowY returns the y origin of row r.
func (g Grid) RowY(r int) float64 {
	return g.StartY - float64(r)*g.Spacing
}

func (g Grid) angle() float64 {
	return g.SlopeDeg * math.Pi / 180
}

// Pedestrians enumerates the grid column-major: all rows of column 0, then
// column 1, and so on.
func (g Grid) Pedestrians() []Pedestrian {
	peds := make([]Pedestrian, 0, g.NumColumns*g.NumRows)
	for c := 0; c < g.NumColumns; c++ {
		for r := 0; r < g.NumRows; r++ {
			peds = append(peds, Pedestrian{
				ID: g.ID(c, r),
				Motion: MotionLaw{
					Origin: Point{X: g.ColumnX(c), Y: g.RowY(r)},
					Speed:  g.Velocity,
					Angle:  g.angle(),
					FPS:    g.FPS,
				},
				Shape: DefaultShape,
			})
		}
	}
	return peds
}

// Columns returns the grid as columns without enumerating rows through
// GroupColumns. Column order follows the column index.
func (g Grid) Columns() []Column {
	vx := g.Velocity * math.Cos(g.angle())
	cols := make([]Column, 0, g.NumColumns)
	for c := 0; c < g.NumColumns; c++ {
		ids := make([]int, g.NumRows)
		for r := 0; r < g.NumRows; r++ {
			ids[r] = g.ID(c, r)
		}
		cols = append(cols, Column{X0: g.ColumnX(c), Velocity: vx, FPS: g.FPS, IDs: ids})
	}
	return cols
}
