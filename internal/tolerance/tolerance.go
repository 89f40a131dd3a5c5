// Package tolerance computes the velocity and density ranges a measurement
// tool may legitimately report when a traversal time is quantised to whole
// frames.
package tolerance

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/units"
)

// DefaultTolerance widens non-degenerate ranges on both sides.
const DefaultTolerance = 1e-4

// ErrInvalidInput is returned for non-positive distances, speeds or rates.
var ErrInvalidInput = errors.New("invalid tolerance input")

// Range is an admissible interval. Min == Max denotes a single point.
type Range struct {
	Min float64
	Max float64
	// Quantized marks a point range produced when the traversal takes less
	// than one frame and the tool may not see it at all.
	Quantized bool
}

// Point returns the degenerate range [p, p].
func Point(p float64) Range {
	return Range{Min: p, Max: p}
}

// IsPoint reports whether r is a single value.
func (r Range) IsPoint() bool {
	return r.Min == r.Max
}

// Contains reports whether x is admissible. A point range accepts values
// within absTol; otherwise the bounds are inclusive. NaN is never contained.
func (r Range) Contains(x, absTol float64) bool {
	if math.IsNaN(x) {
		return false
	}
	if r.IsPoint() {
		return math.Abs(x-r.Min) <= absTol
	}
	return r.Min <= x && x <= r.Max
}

func (r Range) String() string {
	if r.IsPoint() {
		return fmt.Sprintf("%g", r.Min)
	}
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Calculator derives ranges. The zero value is not usable; call New.
type Calculator struct {
	tol float64
	log *zap.Logger
}

// New returns a Calculator widening ranges by tol. A nil logger disables
// the quantisation warning.
func New(tol float64, log *zap.Logger) *Calculator {
	return &Calculator{tol: tol, log: monitoring.OrNop(log)}
}

// Tolerance returns the widening applied to non-degenerate ranges.
func (c *Calculator) Tolerance() float64 {
	return c.tol
}

type frames struct {
	real    float64
	whole   bool
	floorS  float64
	ceilS   float64
	tooFast bool
}

func traversal(distance, v, fps float64) (frames, error) {
	if !(distance > 0) || !(v > 0) || !(fps > 0) {
		return frames{}, fmt.Errorf("%w: distance=%v velocity=%v fps=%v", ErrInvalidInput, distance, v, fps)
	}
	rf := distance / v * fps
	return frames{
		real:    rf,
		whole:   units.IsWhole(rf),
		floorS:  math.Floor(rf) / fps,
		ceilS:   math.Ceil(rf) / fps,
		tooFast: math.Floor(rf) == 0,
	}, nil
}

// VelocityRange is the range of speeds a tool may report for a pedestrian
// covering distance at speed v when positions are sampled at fps.
func (c *Calculator) VelocityRange(distance, v, fps float64) (Range, error) {
	fr, err := traversal(distance, v, fps)
	if err != nil {
		return Range{}, err
	}
	switch {
	case fr.whole:
		return Point(v), nil
	case fr.tooFast:
		c.warnQuantized("velocity", distance, v, fps, fr.real)
		r := Point(distance / fr.ceilS)
		r.Quantized = true
		return r, nil
	default:
		return Range{Min: distance/fr.ceilS - c.tol, Max: distance/fr.floorS + c.tol}, nil
	}
}

// DensityRange is the range of densities for n pedestrians crossing
// distance within an interval of dtSeconds.
func (c *Calculator) DensityRange(distance, v, fps float64, n int, dtSeconds float64) (Range, error) {
	fr, err := traversal(distance, v, fps)
	if err != nil {
		return Range{}, err
	}
	if !(dtSeconds > 0) {
		return Range{}, fmt.Errorf("%w: interval=%v", ErrInvalidInput, dtSeconds)
	}
	nf := float64(n)
	denom := dtSeconds * distance
	switch {
	case fr.whole:
		return Point(nf * math.Round(fr.real) / fps / denom), nil
	case fr.tooFast:
		c.warnQuantized("density", distance, v, fps, fr.real)
		r := Point(nf * fr.ceilS / denom)
		r.Quantized = true
		return r, nil
	default:
		return Range{Min: nf*fr.floorS/denom - c.tol, Max: nf*fr.ceilS/denom + c.tol}, nil
	}
}

func (c *Calculator) warnQuantized(quantity string, distance, v, fps, realFrames float64) {
	c.log.Warn("quantization ambiguity: traversal shorter than one frame",
		zap.String("quantity", quantity),
		zap.Float64("distance", distance),
		zap.Float64("velocity", v),
		zap.Float64("fps", fps),
		zap.Float64("real_frames", realFrames))
}
