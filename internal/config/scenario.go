// Package config loads scenario descriptions and flowcheck settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/synth"
	"github.com/banshee-data/flowcheck/internal/units"
	"github.com/banshee-data/flowcheck/internal/validate"
)

// ErrInvalidScenario wraps every scenario validation error.
var ErrInvalidScenario = errors.New("invalid scenario")

// DefaultTrajectoryFile is used when a scenario names no trajectory file.
const DefaultTrajectoryFile = "traj.txt"

const maxScenarioSize = 1 * 1024 * 1024 // 1MB

var structValidator = validator.New()

// Trajectory kinds.
const (
	KindGrid    = "grid"
	KindBounded = "bounded"
	KindRandom  = "random"
)

// Scenario is one validation case: how to synthesise the trajectory and
// which measurement the program is asked to perform.
type Scenario struct {
	Name        string            `json:"name" yaml:"name" validate:"required"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Method      string            `json:"method" yaml:"method" validate:"required,oneof=E F G H e f g h"`
	Trajectory  TrajectoryConfig  `json:"trajectory" yaml:"trajectory"`
	Measurement MeasurementConfig `json:"measurement" yaml:"measurement"`
}

// TrajectoryConfig selects the synthesis mode and shared kinematics.
type TrajectoryConfig struct {
	Kind      string        `json:"kind" yaml:"kind" validate:"required,oneof=grid bounded random"`
	File      string        `json:"file,omitempty" yaml:"file,omitempty"`
	FPS       float64       `json:"fps" yaml:"fps" validate:"gt=0"`
	NumFrames int           `json:"num_frames" yaml:"num_frames" validate:"gt=0"`
	Velocity  float64       `json:"velocity" yaml:"velocity" validate:"gt=0"`
	SlopeDeg  float64       `json:"slope_deg,omitempty" yaml:"slope_deg,omitempty" validate:"gt=-90,lt=90"`
	Grid      *GridConfig   `json:"grid,omitempty" yaml:"grid,omitempty"`
	Random    *RandomConfig `json:"random,omitempty" yaml:"random,omitempty"`
	Bounds    *synth.Bounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// GridConfig lays out a rectangular block of pedestrians.
type GridConfig struct {
	Columns int     `json:"columns" yaml:"columns" validate:"gte=0"`
	Rows    int     `json:"rows" yaml:"rows" validate:"gte=0"`
	Spacing float64 `json:"spacing" yaml:"spacing" validate:"gt=0"`
	StartX  float64 `json:"start_x" yaml:"start_x"`
	StartY  float64 `json:"start_y" yaml:"start_y"`
	Leading bool    `json:"leading,omitempty" yaml:"leading,omitempty"`
}

// RandomConfig scatters pedestrians in a disk.
type RandomConfig struct {
	Count    int     `json:"count" yaml:"count" validate:"gte=0"`
	CenterX  float64 `json:"center_x" yaml:"center_x"`
	CenterY  float64 `json:"center_y" yaml:"center_y"`
	Radius   float64 `json:"radius" yaml:"radius" validate:"gte=0"`
	Seed     *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	Unseeded bool    `json:"unseeded,omitempty" yaml:"unseeded,omitempty"`
}

// LineConfig is a measurement line perpendicular to the travel axis.
type LineConfig struct {
	ID int     `json:"id" yaml:"id" validate:"gte=0"`
	X  float64 `json:"x" yaml:"x"`
}

// MeasurementConfig describes the area, lines and time discretisation.
type MeasurementConfig struct {
	AreaID       int          `json:"area_id,omitempty" yaml:"area_id,omitempty" validate:"gte=0"`
	X0           float64      `json:"x0" yaml:"x0"`
	X1           float64      `json:"x1" yaml:"x1"`
	DeltaY       float64      `json:"delta_y" yaml:"delta_y" validate:"gte=0"`
	NPolygon     int          `json:"n_polygon,omitempty" yaml:"n_polygon,omitempty" validate:"gte=0"`
	DeltaTFrames int          `json:"delta_t_frames,omitempty" yaml:"delta_t_frames,omitempty" validate:"gte=0"`
	DtFrames     int          `json:"dt_frames,omitempty" yaml:"dt_frames,omitempty" validate:"gte=0"`
	Lines        []LineConfig `json:"lines,omitempty" yaml:"lines,omitempty" validate:"dive"`
	ExitRule     string       `json:"exit_rule,omitempty" yaml:"exit_rule,omitempty" validate:"omitempty,oneof=hold sampled"`
	// UseVisibleSpan replaces the interval settings with one interval over
	// the frames actually written to the trajectory.
	UseVisibleSpan bool `json:"use_visible_span,omitempty" yaml:"use_visible_span,omitempty"`
}

// LoadScenario reads a scenario from a .json, .yaml or .yml file and
// validates it.
func LoadScenario(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("scenario file must have .json, .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if info.Size() > maxScenarioSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", info.Size(), maxScenarioSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s := &Scenario{}
	if ext == ".json" {
		err = json.Unmarshal(data, s)
	} else {
		err = yaml.Unmarshal(data, s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", cleanPath, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(cleanPath), filepath.Ext(cleanPath))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks field constraints and the combinations between them.
func (s *Scenario) Validate() error {
	if err := structValidator.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	t, m := s.Trajectory, s.Measurement
	switch t.Kind {
	case KindGrid, KindBounded:
		if t.Grid == nil {
			return fmt.Errorf("%w: %s trajectory needs a grid section", ErrInvalidScenario, t.Kind)
		}
		if t.Kind == KindBounded && t.Bounds == nil {
			return fmt.Errorf("%w: bounded trajectory needs bounds", ErrInvalidScenario)
		}
	case KindRandom:
		if t.Random == nil {
			return fmt.Errorf("%w: random trajectory needs a random section", ErrInvalidScenario)
		}
		if t.Random.Seed == nil && !t.Random.Unseeded {
			return fmt.Errorf("%w: random trajectory needs a seed or unseeded: true", ErrInvalidScenario)
		}
	}
	if b := t.Bounds; b != nil && (b.X.Min > b.X.Max || b.Y.Min > b.Y.Max) {
		return fmt.Errorf("%w: bounds minimum exceeds maximum", ErrInvalidScenario)
	}
	switch {
	case m.UseVisibleSpan && m.DeltaTFrames != 0:
		return fmt.Errorf("%w: delta_t_frames cannot be combined with use_visible_span", ErrInvalidScenario)
	case !m.UseVisibleSpan && m.DeltaTFrames <= 0:
		return fmt.Errorf("%w: delta_t_frames must be positive", ErrInvalidScenario)
	}
	if !(m.X1 > m.X0) {
		return fmt.Errorf("%w: measurement x1 (%v) must be greater than x0 (%v)", ErrInvalidScenario, m.X1, m.X0)
	}
	method := s.MethodName()
	switch method {
	case validate.MethodE, validate.MethodF:
		if len(m.Lines) == 0 {
			return fmt.Errorf("%w: method %s needs at least one line", ErrInvalidScenario, method)
		}
		if !(m.DeltaY > 0) {
			return fmt.Errorf("%w: method %s needs delta_y", ErrInvalidScenario, method)
		}
	case validate.MethodG:
		if m.DtFrames <= 0 {
			return fmt.Errorf("%w: method G needs dt_frames", ErrInvalidScenario)
		}
	}
	return nil
}

// MethodName returns the validated method.
func (s *Scenario) MethodName() validate.Method {
	return validate.Method(strings.ToUpper(s.Method))
}

// TrajectoryFile returns the trajectory file name.
func (s *Scenario) TrajectoryFile() string {
	if s.Trajectory.File != "" {
		return s.Trajectory.File
	}
	return DefaultTrajectoryFile
}

// AreaID returns the measurement area id, 1 when unset.
func (s *Scenario) AreaID() int {
	if s.Measurement.AreaID == 0 {
		return 1
	}
	return s.Measurement.AreaID
}

// GridParams builds the synthesis parameters for grid and bounded kinds.
func (s *Scenario) GridParams() synth.Grid {
	t := s.Trajectory
	g := t.Grid
	return synth.Grid{
		Layout: kinematics.Grid{
			NumColumns: g.Columns,
			NumRows:    g.Rows,
			Spacing:    g.Spacing,
			StartX:     g.StartX,
			StartY:     g.StartY,
			Velocity:   t.Velocity,
			FPS:        t.FPS,
			SlopeDeg:   t.SlopeDeg,
			Leading:    g.Leading,
		},
		NumFrames: t.NumFrames,
		Bounds:    t.Bounds,
	}
}

// RandomParams builds the synthesis parameters for the random kind.
func (s *Scenario) RandomParams() synth.RandomStart {
	t := s.Trajectory
	r := t.Random
	return synth.RandomStart{
		NumPedestrians: r.Count,
		Center:         kinematics.Point{X: r.CenterX, Y: r.CenterY},
		Radius:         r.Radius,
		Velocity:       t.Velocity,
		SlopeDeg:       t.SlopeDeg,
		FPS:            t.FPS,
		NumFrames:      t.NumFrames,
		Bounds:         t.Bounds,
		Seed:           r.Seed,
		Unseeded:       r.Unseeded,
	}
}

// Intervals returns the time discretisation.
func (s *Scenario) Intervals() units.Intervals {
	return units.Intervals{
		NumFrames:   s.Trajectory.NumFrames,
		DeltaFrames: s.Measurement.DeltaTFrames,
		FPS:         s.Trajectory.FPS,
	}
}

// Area returns the measurement strip.
func (s *Scenario) Area() oracle.Strip {
	m := s.Measurement
	return oracle.Strip{X0: m.X0, X1: m.X1, DeltaY: m.DeltaY, NPolygon: m.NPolygon}
}

// Lines returns the line positions and their ids.
func (s *Scenario) Lines() (xs []float64, ids []int) {
	for _, l := range s.Measurement.Lines {
		xs = append(xs, l.X)
		ids = append(ids, l.ID)
	}
	return xs, ids
}

// ExitRule parses the occupancy exit rule.
func (s *Scenario) ExitRule() (oracle.ExitRule, error) {
	return oracle.ParseExitRule(s.Measurement.ExitRule)
}

// VelocityX is the velocity component along the travel axis.
func (s *Scenario) VelocityX() float64 {
	m := kinematics.MotionLaw{Speed: s.Trajectory.Velocity, Angle: s.Trajectory.SlopeDeg * math.Pi / 180}
	return m.VelocityX()
}
