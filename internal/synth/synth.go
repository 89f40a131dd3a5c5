// Package synth writes synthetic trajectory files for pedestrians that move
// on closed-form constant-velocity paths.
package synth

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/trajectory"
)

// ErrInvalidParams is wrapped by every parameter validation error.
var ErrInvalidParams = errors.New("invalid synthesis parameters")

// Range is an inclusive interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Bounds is the accepted region. Records outside it are not emitted.
type Bounds struct {
	X Range `json:"x" yaml:"x"`
	Y Range `json:"y" yaml:"y"`
}

// Contains reports whether p lies inside both ranges.
func (b *Bounds) Contains(p kinematics.Point) bool {
	if b == nil {
		return true
	}
	return b.X.Contains(p.X) && b.Y.Contains(p.Y)
}

// Grid synthesises a rectangular block. With Bounds set it is the bounded
// grid variant.
type Grid struct {
	Layout    kinematics.Grid
	NumFrames int
	Bounds    *Bounds
}

// RandomStart places pedestrians uniformly in a disk of Radius around
// Center. A Seed is required unless Unseeded is set.
type RandomStart struct {
	NumPedestrians int
	Center         kinematics.Point
	Radius         float64
	Velocity       float64
	SlopeDeg       float64
	FPS            float64
	NumFrames      int
	Bounds         *Bounds
	Seed           *uint64
	Unseeded       bool
}

// Result summarises a synthesised trajectory.
type Result struct {
	Records     int
	Pedestrians []kinematics.Pedestrian
	// Columns holds only pedestrians that were emitted at least once.
	Columns []kinematics.Column
	// FirstFrame and LastFrame are 0-based frame indices of the first and
	// last emitted record. Both are -1 for an empty trajectory.
	FirstFrame int
	LastFrame  int
	Seed       uint64
}

// VisibleSpan returns LastFrame - FirstFrame + 1, or 0 when nothing was
// emitted.
func (r Result) VisibleSpan() int {
	if r.FirstFrame < 0 {
		return 0
	}
	return r.LastFrame - r.FirstFrame + 1
}

// Synthesizer writes trajectories.
type Synthesizer struct {
	log *zap.Logger
	now func() time.Time
}

// New returns a Synthesizer. A nil logger disables logging.
func New(log *zap.Logger) *Synthesizer {
	return &Synthesizer{log: monitoring.OrNop(log), now: time.Now}
}

func validateCommon(fps float64, frames int) error {
	if !(fps > 0) {
		return fmt.Errorf("%w: fps must be positive, got %v", ErrInvalidParams, fps)
	}
	if frames < 0 {
		return fmt.Errorf("%w: frame count must not be negative, got %d", ErrInvalidParams, frames)
	}
	return nil
}

// Validate checks the grid parameters.
func (g Grid) Validate() error {
	if err := validateCommon(g.Layout.FPS, g.NumFrames); err != nil {
		return err
	}
	if g.Layout.NumColumns < 0 || g.Layout.NumRows < 0 {
		return fmt.Errorf("%w: grid dimensions must not be negative, got %dx%d", ErrInvalidParams, g.Layout.NumColumns, g.Layout.NumRows)
	}
	if !(g.Layout.Spacing > 0) {
		return fmt.Errorf("%w: spacing must be positive, got %v", ErrInvalidParams, g.Layout.Spacing)
	}
	return nil
}

// Validate checks the random start parameters.
func (r RandomStart) Validate() error {
	if err := validateCommon(r.FPS, r.NumFrames); err != nil {
		return err
	}
	if r.NumPedestrians < 0 {
		return fmt.Errorf("%w: pedestrian count must not be negative, got %d", ErrInvalidParams, r.NumPedestrians)
	}
	if r.Radius < 0 {
		return fmt.Errorf("%w: radius must not be negative, got %v", ErrInvalidParams, r.Radius)
	}
	if r.Seed == nil && !r.Unseeded {
		return fmt.Errorf("%w: random start needs a seed", ErrInvalidParams)
	}
	return nil
}

// Grid writes a grid trajectory to w.
func (s *Synthesizer) Grid(w io.Writer, g Grid) (Result, error) {
	if err := g.Validate(); err != nil {
		return Result{}, err
	}
	peds := g.Layout.Pedestrians()
	res, err := s.emit(w, peds, g.Layout.FPS, g.NumFrames, g.Bounds)
	if err != nil {
		return Result{}, err
	}
	s.log.Info("synthesised grid trajectory",
		zap.Int("columns", g.Layout.NumColumns),
		zap.Int("rows", g.Layout.NumRows),
		zap.Int("frames", g.NumFrames),
		zap.Int("records", res.Records))
	return res, nil
}

// RandomPedestrians draws the start positions. The seed actually used is
// returned so an unseeded run can be reproduced.
func (s *Synthesizer) RandomPedestrians(r RandomStart) ([]kinematics.Pedestrian, uint64, error) {
	if err := r.Validate(); err != nil {
		return nil, 0, err
	}
	var seed uint64
	if r.Seed != nil {
		seed = *r.Seed
	} else {
		seed = uint64(s.now().UnixNano())
		s.log.Warn("random start without a seed, results are not reproducible", zap.Uint64("seed", seed))
	}
	u := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	angle := r.SlopeDeg * math.Pi / 180
	peds := make([]kinematics.Pedestrian, r.NumPedestrians)
	for i := range peds {
		rad := r.Radius * math.Sqrt(u.Rand())
		theta := 2 * math.Pi * u.Rand()
		peds[i] = kinematics.Pedestrian{
			ID: i + 1,
			Motion: kinematics.MotionLaw{
				Origin: kinematics.Point{X: r.Center.X + rad*math.Cos(theta), Y: r.Center.Y + rad*math.Sin(theta)},
				Speed:  r.Velocity,
				Angle:  angle,
				FPS:    r.FPS,
			},
			Shape: kinematics.DefaultShape,
		}
	}
	return peds, seed, nil
}

// RandomStart writes a random start trajectory to w.
func (s *Synthesizer) RandomStart(w io.Writer, r RandomStart) (Result, error) {
	peds, seed, err := s.RandomPedestrians(r)
	if err != nil {
		return Result{}, err
	}
	res, err := s.emit(w, peds, r.FPS, r.NumFrames, r.Bounds)
	if err != nil {
		return Result{}, err
	}
	res.Seed = seed
	s.log.Info("synthesised random start trajectory",
		zap.Int("pedestrians", r.NumPedestrians),
		zap.Uint64("seed", seed),
		zap.Int("visible_span", res.VisibleSpan()))
	return res, nil
}

// emit writes records frame by frame in pedestrian order.
func (s *Synthesizer) emit(w io.Writer, peds []kinematics.Pedestrian, fps float64, frames int, b *Bounds) (Result, error) {
	tw := trajectory.NewWriter(w, trajectory.Header{FrameRate: fps})
	res := Result{Pedestrians: peds, FirstFrame: -1, LastFrame: -1}
	seen := make([]bool, len(peds))
	for f := 0; f < frames; f++ {
		for i, p := range peds {
			pos := p.Motion.At(f)
			if !b.Contains(pos) {
				continue
			}
			if err := tw.Write(trajectory.Record{ID: p.ID, Frame: f + 1, X: pos.X, Y: pos.Y, Shape: p.Shape}); err != nil {
				return Result{}, fmt.Errorf("write record: %w", err)
			}
			seen[i] = true
			if res.FirstFrame < 0 {
				res.FirstFrame = f
			}
			res.LastFrame = f
		}
	}
	if err := tw.Flush(); err != nil {
		return Result{}, fmt.Errorf("flush trajectory: %w", err)
	}
	res.Records = tw.Records()
	visible := make([]kinematics.Pedestrian, 0, len(peds))
	for i, p := range peds {
		if seen[i] || b == nil {
			visible = append(visible, p)
		}
	}
	res.Columns = kinematics.GroupColumns(visible)
	return res, nil
}
