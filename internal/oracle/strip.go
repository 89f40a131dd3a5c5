// Package oracle derives the exact counts and distances a correct
// measurement program must report for columns of constant-velocity
// pedestrians: line crossings, area occupancy, cut-polygon passes and
// clipped distance per time interval.
//
// Pedestrians are assumed to move towards +x. All boundary comparisons go
// through the units approximate-comparison helpers.
package oracle

import (
	"errors"
	"fmt"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/units"
)

// ErrInvalidStrip is wrapped by Strip.Validate errors.
var ErrInvalidStrip = errors.New("invalid measurement strip")

// Strip is an axis-aligned measurement area [X0, X1] along the travel axis
// with extent DeltaY across it. NPolygon > 1 cuts it into equal sub-strips.
type Strip struct {
	X0       float64
	X1       float64
	DeltaY   float64
	NPolygon int
}

// Validate checks the strip bounds.
func (s Strip) Validate() error {
	if !(s.X1 > s.X0) {
		return fmt.Errorf("%w: x1 (%v) must be greater than x0 (%v)", ErrInvalidStrip, s.X1, s.X0)
	}
	if s.DeltaY < 0 {
		return fmt.Errorf("%w: negative extent %v", ErrInvalidStrip, s.DeltaY)
	}
	if s.NPolygon < 0 {
		return fmt.Errorf("%w: negative polygon count %d", ErrInvalidStrip, s.NPolygon)
	}
	return nil
}

// DeltaX is the strip length along the travel axis.
func (s Strip) DeltaX() float64 {
	return s.X1 - s.X0
}

// Polygons returns the number of sub-strips, at least one.
func (s Strip) Polygons() int {
	return max(s.NPolygon, 1)
}

// Dx is the width of one sub-strip.
func (s Strip) Dx() float64 {
	return s.DeltaX() / float64(s.Polygons())
}

// SubStrips cuts the strip into Polygons() pieces. The last piece ends
// exactly on X1.
func (s Strip) SubStrips() []Strip {
	n := s.Polygons()
	dx := s.Dx()
	out := make([]Strip, n)
	for i := range out {
		hi := s.X0 + float64(i+1)*dx
		if i == n-1 {
			hi = s.X1
		}
		out[i] = Strip{X0: s.X0 + float64(i)*dx, X1: hi, DeltaY: s.DeltaY}
	}
	return out
}

// Contains reports whether x lies in [X0, X1] up to units.Epsilon.
func (s Strip) Contains(x float64) bool {
	return units.LessOrNear(s.X0, x) && units.LessOrNear(x, s.X1)
}

// exitFrame returns the first frame index in [0, numFrames) at which the
// column is strictly beyond X1 after having been sampled inside the strip.
func (s Strip) exitFrame(c kinematics.Column, numFrames int) (int, bool) {
	if !(c.Velocity > 0) {
		return 0, false
	}
	inside := false
	for f := 0; f < numFrames; f++ {
		x := c.XAt(f)
		if units.StrictlyLess(s.X1, x) {
			return f, inside
		}
		if s.Contains(x) {
			inside = true
		}
	}
	return 0, false
}
