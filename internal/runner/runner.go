// Package runner drives a scenario end to end: synthesise the trajectory,
// run the measurement program on it and validate what it wrote.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/flowcheck/internal/config"
	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/security"
	"github.com/banshee-data/flowcheck/internal/storage/sqlite"
	"github.com/banshee-data/flowcheck/internal/synth"
	"github.com/banshee-data/flowcheck/internal/timeutil"
	"github.com/banshee-data/flowcheck/internal/tolerance"
	"github.com/banshee-data/flowcheck/internal/units"
	"github.com/banshee-data/flowcheck/internal/validate"
)

// ErrScenarioFailed is returned by Run when the program's output does not
// match the reference values.
var ErrScenarioFailed = errors.New("scenario failed")

const (
	measurementConfigFile = "measurement.json"
	outputDirName         = "output"
)

// ReportStore persists validation runs.
type ReportStore interface {
	Insert(run *sqlite.Run, failures []sqlite.Failure) error
}

// Options configure a Runner.
type Options struct {
	FS      fsutil.FileSystem
	Program Program
	// Store is optional; reports are not persisted without one.
	Store   ReportStore
	WorkDir string
	AbsTol  float64
	Clock   timeutil.Clock
	Log     *zap.Logger
}

// Runner executes scenarios. It keeps no state between runs.
type Runner struct {
	fs      fsutil.FileSystem
	program Program
	store   ReportStore
	workDir string
	absTol  float64
	clock   timeutil.Clock
	log     *zap.Logger
}

// New returns a Runner. Missing FS, Clock and Log default to the OS
// filesystem, the system clock and a no-op logger.
func New(opts Options) *Runner {
	r := &Runner{
		fs:      opts.FS,
		program: opts.Program,
		store:   opts.Store,
		workDir: opts.WorkDir,
		absTol:  opts.AbsTol,
		clock:   opts.Clock,
		log:     opts.Log,
	}
	if r.fs == nil {
		r.fs = fsutil.OSFileSystem{}
	}
	if r.clock == nil {
		r.clock = timeutil.RealClock{}
	}
	r.log = monitoring.OrNop(r.log)
	if r.absTol == 0 {
		r.absTol = tolerance.DefaultTolerance
	}
	return r
}

// ErrUnseeded is returned when the reference set of a random scenario is
// requested without a seed to reproduce its trajectory.
var ErrUnseeded = errors.New("random scenario has no seed")

// Prepared is a scenario whose reference values are known, together with
// the files a measurement program reads for it.
type Prepared struct {
	Scenario   *config.Scenario
	Invocation Invocation
	Synthesis  synth.Result
	Reference  *oracle.ReferenceSet
	Params     validate.Params
	Calculator *tolerance.Calculator
	// ConfigJSON is the measurement config handed to the program.
	ConfigJSON []byte
}

func (r *Runner) invocation(sc *config.Scenario) (string, Invocation, error) {
	dir := filepath.Join(r.workDir, security.SanitizeFilename(sc.Name))
	inv := Invocation{
		TrajectoryPath: filepath.Join(dir, sc.TrajectoryFile()),
		ConfigPath:     filepath.Join(dir, measurementConfigFile),
		OutputDir:      filepath.Join(dir, outputDirName),
	}
	if err := security.ValidatePathWithinDirectory(inv.TrajectoryPath, dir); err != nil {
		return "", Invocation{}, fmt.Errorf("trajectory file: %w", err)
	}
	return dir, inv, nil
}

// Prepare writes the trajectory and measurement config of sc under the work
// directory and derives its reference set. The output directory is emptied.
func (r *Runner) Prepare(sc *config.Scenario) (*Prepared, error) {
	dir, inv, err := r.invocation(sc)
	if err != nil {
		return nil, err
	}
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scenario dir: %w", err)
	}
	if err := r.fs.RemoveAll(inv.OutputDir); err != nil {
		return nil, fmt.Errorf("clear output dir: %w", err)
	}
	if err := r.fs.MkdirAll(inv.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := r.fs.Create(inv.TrajectoryPath)
	if err != nil {
		return nil, fmt.Errorf("create trajectory: %w", err)
	}
	res, err := r.synthesize(f, sc)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close trajectory: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	p, err := r.prepared(sc, inv, res)
	if err != nil {
		return nil, err
	}
	if err := r.fs.WriteFile(inv.ConfigPath, p.ConfigJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write measurement config: %w", err)
	}
	return p, nil
}

// Derive computes the reference set of sc without touching the work
// directory, for checking output that a program has already written. A
// random scenario needs a seed, otherwise ErrUnseeded is returned.
func (r *Runner) Derive(sc *config.Scenario) (*Prepared, error) {
	if rc := sc.Trajectory.Random; sc.Trajectory.Kind == config.KindRandom && rc != nil && rc.Seed == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnseeded, sc.Name)
	}
	_, inv, err := r.invocation(sc)
	if err != nil {
		return nil, err
	}
	res, err := r.synthesize(io.Discard, sc)
	if err != nil {
		return nil, err
	}
	return r.prepared(sc, inv, res)
}

func (r *Runner) synthesize(w io.Writer, sc *config.Scenario) (synth.Result, error) {
	s := synth.New(r.log)
	if sc.Trajectory.Kind == config.KindRandom {
		return s.RandomStart(w, sc.RandomParams())
	}
	return s.Grid(w, sc.GridParams())
}

// window returns the time discretisation and the columns the oracle
// counts over. With the visible span option the whole span is one
// interval and frame 0 is the first frame written to the trajectory.
func window(sc *config.Scenario, res synth.Result) (units.Intervals, []kinematics.Column, error) {
	if !sc.Measurement.UseVisibleSpan {
		return sc.Intervals(), res.Columns, nil
	}
	span := res.VisibleSpan()
	if span < 2 {
		return units.Intervals{}, nil, fmt.Errorf("%w: visible span of %d frames is too short for an interval", config.ErrInvalidScenario, span)
	}
	iv := units.Intervals{NumFrames: span, DeltaFrames: span - 1, FPS: sc.Trajectory.FPS}
	return iv, kinematics.ShiftColumns(res.Columns, res.FirstFrame), nil
}

func (r *Runner) prepared(sc *config.Scenario, inv Invocation, res synth.Result) (*Prepared, error) {
	rule, err := sc.ExitRule()
	if err != nil {
		return nil, err
	}
	iv, cols, err := window(sc, res)
	if err != nil {
		return nil, err
	}
	lines, lineIDs := sc.Lines()
	rs, err := oracle.Build(oracle.Input{
		Columns:   cols,
		Intervals: iv,
		DtFrames:  sc.Measurement.DtFrames,
		Lines:     lines,
		Area:      sc.Area(),
		ExitRule:  rule,
	})
	if err != nil {
		return nil, fmt.Errorf("build reference set: %w", err)
	}

	data, err := marshalMeasurementConfig(newMeasurementConfig(sc, inv, iv))
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Scenario:   sc,
		Invocation: inv,
		Synthesis:  res,
		Reference:  rs,
		Params: validate.Params{
			Trajectory: sc.TrajectoryFile(),
			AreaID:     sc.AreaID(),
			LineIDs:    lineIDs,
			Speed:      sc.Trajectory.Velocity,
			VelocityX:  sc.VelocityX(),
		},
		Calculator: tolerance.New(r.absTol, r.log),
		ConfigJSON: data,
	}, nil
}

// Validate checks the files the program wrote for p.
func (r *Runner) Validate(p *Prepared) (*validate.Report, error) {
	v := validate.New(r.fs, p.Calculator, r.log, r.absTol)
	return v.Validate(p.Invocation.OutputDir, p.Scenario.MethodName(), p.Reference, p.Params)
}

// WriteReference writes the reference output of p where the program would.
func (r *Runner) WriteReference(p *Prepared) ([]string, error) {
	return validate.WriteReference(r.fs, p.Invocation.OutputDir, p.Scenario.MethodName(), p.Reference, p.Params, p.Calculator)
}

// Outcome is the result of one Run.
type Outcome struct {
	RunID    string
	Report   *validate.Report
	Duration time.Duration
	Prepared *Prepared
}

// Run prepares sc, runs the program, validates its output and persists
// the report. A failed validation returns the outcome together with an
// error wrapping ErrScenarioFailed.
func (r *Runner) Run(ctx context.Context, sc *config.Scenario) (*Outcome, error) {
	if r.program == nil {
		return nil, ErrNoCommand
	}
	start := r.clock.Now()
	log := r.log.With(zap.String("scenario", sc.Name), zap.String("method", sc.Method))

	p, err := r.Prepare(sc)
	if err != nil {
		return nil, err
	}
	if err := r.program.Run(ctx, p.Invocation); err != nil {
		return nil, fmt.Errorf("run measurement program: %w", err)
	}

	rep, verr := r.Validate(p)
	if verr != nil && !errors.Is(verr, validate.ErrMissingOutputArtifact) {
		return nil, verr
	}
	out := &Outcome{Report: rep, Duration: r.clock.Since(start), Prepared: p}

	failures := storedFailures(rep, verr)
	if r.store != nil {
		run := &sqlite.Run{
			Scenario:   sc.Name,
			Method:     string(sc.MethodName()),
			Trajectory: sc.TrajectoryFile(),
			FileCount:  len(rep.Files),
			ParamsJSON: p.ConfigJSON,
			DurationMS: out.Duration.Milliseconds(),
			CreatedAt:  start.UnixNano(),
		}
		if err := r.store.Insert(run, failures); err != nil {
			return out, fmt.Errorf("store report: %w", err)
		}
		out.RunID = run.RunID
	}

	if verr != nil {
		log.Error("scenario failed", zap.Error(verr))
		return out, fmt.Errorf("%w: %s: %w", ErrScenarioFailed, sc.Name, verr)
	}
	if !rep.Passed() {
		log.Error("scenario failed", zap.Int("failures", len(rep.Failures)))
		return out, fmt.Errorf("%w: %s: %d mismatches", ErrScenarioFailed, sc.Name, len(rep.Failures))
	}
	log.Info("scenario passed", zap.Int("files", len(rep.Files)), zap.Duration("duration", out.Duration))
	return out, nil
}

func storedFailures(rep *validate.Report, missing error) []sqlite.Failure {
	out := make([]sqlite.Failure, 0, len(rep.Failures)+1)
	for _, f := range rep.Failures {
		out = append(out, sqlite.Failure{
			Kind:     f.Kind.String(),
			File:     f.File,
			Row:      f.Row,
			Col:      f.Col,
			Observed: f.Observed,
			Expected: f.Expected,
			Message:  f.Message,
		})
	}
	if missing != nil {
		out = append(out, sqlite.Failure{
			Kind:     "missing",
			Row:      -1,
			Col:      -1,
			Observed: "absent",
			Expected: "present",
			Message:  missing.Error(),
		})
	}
	return out
}
