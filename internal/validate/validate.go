// Package validate compares the files written by a measurement program with
// the values derived by the oracle.
package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/output"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

// ErrMissingOutputArtifact is returned when an expected file does not exist.
var ErrMissingOutputArtifact = errors.New("missing output artifact")

// FailureKind classifies a Failure.
type FailureKind int

const (
	FailureShape FailureKind = iota + 1
	FailureValue
	FailureIdentitySet
)

func (k FailureKind) String() string {
	switch k {
	case FailureShape:
		return "shape"
	case FailureValue:
		return "value"
	case FailureIdentitySet:
		return "identity-set"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is one mismatch. Row and Col are -1 when they do not apply.
type Failure struct {
	Kind     FailureKind `json:"kind"`
	File     string      `json:"file"`
	Row      int         `json:"row"`
	Col      int         `json:"col"`
	Observed string      `json:"observed"`
	Expected string      `json:"expected"`
	Message  string      `json:"message,omitempty"`
}

func (f Failure) Error() string {
	s := fmt.Sprintf("%s mismatch in %s", f.Kind, f.File)
	if f.Row >= 0 {
		s += fmt.Sprintf(" at row %d col %d", f.Row, f.Col)
	}
	s += fmt.Sprintf(": observed %s, expected %s", f.Observed, f.Expected)
	if f.Message != "" {
		s += " (" + f.Message + ")"
	}
	return s
}

// Report is the outcome of validating one method's output.
type Report struct {
	Method   Method
	Files    []string
	Failures []Failure
}

// Passed reports whether no failure was recorded.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

// Validator loads output files and checks them.
type Validator struct {
	fs     fsutil.FileSystem
	calc   *tolerance.Calculator
	log    *zap.Logger
	absTol float64
}

// New returns a Validator reading through fsys. A nil logger disables
// logging.
func New(fsys fsutil.FileSystem, calc *tolerance.Calculator, log *zap.Logger, absTol float64) *Validator {
	return &Validator{fs: fsys, calc: calc, log: monitoring.OrNop(log), absTol: absTol}
}

// Validate checks every file method m writes under outDir. A missing file
// stops validation with ErrMissingOutputArtifact. A file that cannot be
// parsed is recorded as a shape failure and the remaining files are still
// checked.
func (v *Validator) Validate(outDir string, m Method, rs *oracle.ReferenceSet, p Params) (*Report, error) {
	arts, err := Expectations(m, rs, p, v.calc)
	if err != nil {
		return nil, err
	}
	dir := output.MethodDir(outDir, string(m))
	rep := &Report{Method: m}
	for _, a := range arts {
		path := filepath.Join(dir, a.Name())
		t, err := output.Load(v.fs, path)
		if errors.Is(err, fs.ErrNotExist) {
			v.log.Error("output file missing", zap.String("file", path))
			return rep, fmt.Errorf("%w: %s", ErrMissingOutputArtifact, path)
		}
		rep.Files = append(rep.Files, a.Name())
		var fails []Failure
		if err != nil {
			fails = []Failure{{
				Kind:     FailureShape,
				File:     a.Name(),
				Row:      -1,
				Col:      -1,
				Observed: "unparseable",
				Expected: "numeric table",
				Message:  err.Error(),
			}}
		} else {
			fails = a.Check(t, v.absTol)
		}
		for _, f := range fails {
			v.log.Error("validation failure",
				zap.String("method", string(m)),
				zap.Stringer("kind", f.Kind),
				zap.String("file", f.File),
				zap.Int("row", f.Row),
				zap.Int("col", f.Col),
				zap.String("observed", f.Observed),
				zap.String("expected", f.Expected),
				zap.String("detail", f.Message))
		}
		rep.Failures = append(rep.Failures, fails...)
	}
	v.log.Info("validated output",
		zap.String("method", string(m)),
		zap.Int("files", len(rep.Files)),
		zap.Int("failures", len(rep.Failures)))
	return rep, nil
}

// WriteReference writes the oracle's own rendition of method m's files
// under outDir. The result validates cleanly.
func WriteReference(fsys fsutil.FileSystem, outDir string, m Method, rs *oracle.ReferenceSet, p Params, calc *tolerance.Calculator) ([]string, error) {
	arts, err := Expectations(m, rs, p, calc)
	if err != nil {
		return nil, err
	}
	dir := output.MethodDir(outDir, string(m))
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, a := range arts {
		path := filepath.Join(dir, a.Name())
		w, err := fsys.Create(path)
		if err != nil {
			return written, err
		}
		if err := output.Write(w, a.Reference()); err != nil {
			w.Close()
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		if err := w.Close(); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
