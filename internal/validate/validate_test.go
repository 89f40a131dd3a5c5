package validate

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/oracle"
	"github.com/banshee-data/flowcheck/internal/output"
	"github.com/banshee-data/flowcheck/internal/testutil"
	"github.com/banshee-data/flowcheck/internal/tolerance"
	"github.com/banshee-data/flowcheck/internal/units"
)

const outDir = "/out"

func e01Set(t *testing.T) (*oracle.ReferenceSet, Params) {
	t.Helper()
	g := kinematics.Grid{NumColumns: 30, NumRows: 10, Spacing: 1, StartX: 4.5, StartY: 9.5, Velocity: 1.3, FPS: 8}
	rs, err := oracle.Build(oracle.Input{
		Columns:   g.Columns(),
		Intervals: units.Intervals{NumFrames: 101, DeltaFrames: 40, FPS: 8},
		DtFrames:  8,
		Lines:     []float64{4.5, 5, 5.5},
		Area:      oracle.Strip{X0: 4.5, X1: 5.5, DeltaY: 10, NPolygon: 2},
	})
	require.NoError(t, err)
	return rs, Params{Trajectory: "traj.txt", AreaID: 1, LineIDs: []int{2, 3, 4}, Speed: 1.3, VelocityX: 1.3}
}

func singleColumnSet(t *testing.T) (*oracle.ReferenceSet, Params) {
	t.Helper()
	rs, err := oracle.Build(oracle.Input{
		Columns:   []kinematics.Column{{X0: 0, Velocity: 1, FPS: 8, IDs: []int{1}}},
		Intervals: units.Intervals{NumFrames: 41, DeltaFrames: 8, FPS: 8},
		DtFrames:  8,
		Lines:     []float64{1.5},
		Area:      oracle.Strip{X0: 1, X1: 2, DeltaY: 1, NPolygon: 2},
	})
	require.NoError(t, err)
	return rs, Params{Trajectory: "traj.txt", AreaID: 1, Speed: 1, VelocityX: 1}
}

func newValidator(fs fsutil.FileSystem) *Validator {
	return New(fs, tolerance.New(tolerance.DefaultTolerance, nil), nil, tolerance.DefaultTolerance)
}

func TestExpectMatch(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	tests := []struct {
		name string
		e    Expect
		x    float64
		want bool
	}{
		{"value close", Value(1), 1.00005, true},
		{"value far", Value(1), 1.1, false},
		{"nan vs nan", Value(nan), nan, true},
		{"number where nan expected", Value(nan), 1, false},
		{"nan where number expected", Value(1), nan, false},
		{"inf vs inf", Value(inf), inf, true},
		{"inf vs -inf", Value(inf), math.Inf(-1), false},
		{"exact", Exact(70), 70, true},
		{"exact off by tolerance", Exact(70), 70.00001, false},
		{"range", Within(tolerance.Range{Min: 1, Max: 2}), 1.5, true},
		{"range nan", Within(tolerance.Range{Min: 1, Max: 2}), nan, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Match(tt.x, 1e-4); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestReferenceOutputValidates(t *testing.T) {
	rs, p := e01Set(t)
	calc := tolerance.New(tolerance.DefaultTolerance, nil)
	for _, m := range Methods {
		t.Run(string(m), func(t *testing.T) {
			fs := fsutil.NewMemoryFileSystem()
			written, err := WriteReference(fs, outDir, m, rs, p, calc)
			require.NoError(t, err)
			require.NotEmpty(t, written)

			rep, err := newValidator(fs).Validate(outDir, m, rs, p)
			require.NoError(t, err)
			assert.True(t, rep.Passed(), "failures: %v", rep.Failures)
			assert.Len(t, rep.Files, len(written))
		})
	}
}

func TestMethodEFileSet(t *testing.T) {
	rs, p := e01Set(t)
	arts, err := Expectations(MethodE, rs, p, tolerance.New(tolerance.DefaultTolerance, nil))
	require.NoError(t, err)

	var names []string
	for _, a := range arts {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{
		"rho_traj.txt_id_1.dat",
		"flow_traj.txt_id_1_line_2.dat",
		"flow_traj.txt_id_1_line_3.dat",
		"flow_traj.txt_id_1_line_4.dat",
	}, names)

	// line 4 sits at x = 5.5: 60 then 70 crossings over 5 s intervals
	ref := arts[3].Reference()
	assert.Equal(t, []float64{60, 12, 1.2}, ref.Row(0))
}

func TestWrongCountIsValueFailure(t *testing.T) {
	rs, p := e01Set(t)
	fs := fsutil.NewMemoryFileSystem()
	calc := tolerance.New(tolerance.DefaultTolerance, nil)
	_, err := WriteReference(fs, outDir, MethodE, rs, p, calc)
	require.NoError(t, err)

	path := filepath.Join(output.MethodDir(outDir, "E"), "flow_traj.txt_id_1_line_3.dat")
	testutil.SetCell(t, fs, path, 1, 0, 69)

	core, logs := observer.New(zap.ErrorLevel)
	v := New(fs, calc, zap.New(core), tolerance.DefaultTolerance)
	rep, err := v.Validate(outDir, MethodE, rs, p)
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)

	f := rep.Failures[0]
	assert.Equal(t, FailureValue, f.Kind)
	assert.Equal(t, "flow_traj.txt_id_1_line_3.dat", f.File)
	assert.Equal(t, 1, f.Row)
	assert.Equal(t, 0, f.Col)
	assert.Equal(t, "69", f.Observed)
	assert.Equal(t, "70", f.Expected)
	assert.Equal(t, 1, logs.FilterMessage("validation failure").Len())
}

func TestEveryMismatchIsRecorded(t *testing.T) {
	rs, p := e01Set(t)
	fs := fsutil.NewMemoryFileSystem()
	_, err := WriteReference(fs, outDir, MethodE, rs, p, tolerance.New(tolerance.DefaultTolerance, nil))
	require.NoError(t, err)

	dir := output.MethodDir(outDir, "E")
	testutil.SetCell(t, fs, filepath.Join(dir, "flow_traj.txt_id_1_line_2.dat"), 0, 0, 1)
	testutil.SetCell(t, fs, filepath.Join(dir, "flow_traj.txt_id_1_line_4.dat"), 1, 2, 99)
	testutil.SetCell(t, fs, filepath.Join(dir, "rho_traj.txt_id_1.dat"), 5, 1, 99)

	rep, err := newValidator(fs).Validate(outDir, MethodE, rs, p)
	require.NoError(t, err)
	assert.Len(t, rep.Failures, 3)
	assert.False(t, rep.Passed())
}

func TestUnparseableFileIsRecorded(t *testing.T) {
	rs, p := e01Set(t)
	fs := fsutil.NewMemoryFileSystem()
	_, err := WriteReference(fs, outDir, MethodE, rs, p, tolerance.New(tolerance.DefaultTolerance, nil))
	require.NoError(t, err)

	dir := output.MethodDir(outDir, "E")
	testutil.WriteFile(t, fs, filepath.Join(dir, "rho_traj.txt_id_1.dat"), "0\t1\n1\n")
	testutil.SetCell(t, fs, filepath.Join(dir, "flow_traj.txt_id_1_line_2.dat"), 0, 0, 1)
	testutil.WriteFile(t, fs, filepath.Join(dir, "flow_traj.txt_id_1_line_4.dat"), "60\tabc\t1.2\n")

	rep, err := newValidator(fs).Validate(outDir, MethodE, rs, p)
	require.NoError(t, err)
	assert.Len(t, rep.Files, 4)
	require.Len(t, rep.Failures, 3)

	ragged := rep.Failures[0]
	assert.Equal(t, FailureShape, ragged.Kind)
	assert.Equal(t, "rho_traj.txt_id_1.dat", ragged.File)
	assert.Equal(t, -1, ragged.Row)
	assert.Contains(t, ragged.Message, "column")

	assert.Equal(t, FailureValue, rep.Failures[1].Kind)
	assert.Equal(t, "flow_traj.txt_id_1_line_2.dat", rep.Failures[1].File)

	assert.Equal(t, FailureShape, rep.Failures[2].Kind)
	assert.Equal(t, "flow_traj.txt_id_1_line_4.dat", rep.Failures[2].File)
}

func TestMissingFileIsFatal(t *testing.T) {
	rs, p := e01Set(t)
	fs := fsutil.NewMemoryFileSystem()
	_, err := WriteReference(fs, outDir, MethodH, rs, p, tolerance.New(tolerance.DefaultTolerance, nil))
	require.NoError(t, err)

	_, err = newValidator(fs).Validate(outDir, MethodG, rs, p)
	assert.True(t, errors.Is(err, ErrMissingOutputArtifact), "err = %v", err)
}

func TestShapeMismatch(t *testing.T) {
	rs, p := e01Set(t)
	fs := fsutil.NewMemoryFileSystem()
	_, err := WriteReference(fs, outDir, MethodH, rs, p, tolerance.New(tolerance.DefaultTolerance, nil))
	require.NoError(t, err)

	path := filepath.Join(output.MethodDir(outDir, "H"), "flow_rho_v_traj.txt_id_1.dat")
	require.NoError(t, fs.WriteFile(path, []byte("1\t2\t3\n"), 0o644))

	rep, err := newValidator(fs).Validate(outDir, MethodH, rs, p)
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureShape, rep.Failures[0].Kind)
	assert.Equal(t, "1x3", rep.Failures[0].Observed)
	assert.Equal(t, "2x3", rep.Failures[0].Expected)
}

func TestIdentitySetMismatch(t *testing.T) {
	rs, p := e01Set(t)
	fs := fsutil.NewMemoryFileSystem()
	_, err := WriteReference(fs, outDir, MethodF, rs, p, tolerance.New(tolerance.DefaultTolerance, nil))
	require.NoError(t, err)

	path := filepath.Join(output.MethodDir(outDir, "F"), "v_traj.txt_id_1.dat")
	testutil.SetCell(t, fs, path, 0, 0, 9999)

	rep, err := newValidator(fs).Validate(outDir, MethodF, rs, p)
	require.NoError(t, err)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, FailureIdentitySet, rep.Failures[0].Kind)
	assert.Contains(t, rep.Failures[0].Message, "9999")
}

func TestNaNPropagation(t *testing.T) {
	rs, p := singleColumnSet(t)
	calc := tolerance.New(tolerance.DefaultTolerance, nil)
	// the column leaves polygon 0 in interval 1 and polygon 1 in interval 2
	assert.Equal(t, []int{0, 1, 0, 0, 0}, rs.Passes(0))
	assert.Equal(t, []int{0, 0, 1, 0, 0}, rs.Passes(1))

	fs := fsutil.NewMemoryFileSystem()
	_, err := WriteReference(fs, outDir, MethodG, rs, p, calc)
	require.NoError(t, err)
	path := filepath.Join(output.MethodDir(outDir, "G"), "v_traj.txt_id_1.dat")

	tab, err := output.Load(fs, path)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(tab.At(0, 0)))
	assert.Equal(t, 1.0, tab.At(1, 0))

	rep, err := newValidator(fs).Validate(outDir, MethodG, rs, p)
	require.NoError(t, err)
	assert.True(t, rep.Passed(), "NaN against NaN must pass: %v", rep.Failures)

	testutil.SetCell(t, fs, path, 0, 0, 1)
	testutil.SetCell(t, fs, path, 1, 0, math.NaN())
	rep, err = newValidator(fs).Validate(outDir, MethodG, rs, p)
	require.NoError(t, err)
	require.Len(t, rep.Failures, 2)
	for _, f := range rep.Failures {
		assert.Equal(t, FailureValue, f.Kind)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("g")
	require.NoError(t, err)
	assert.Equal(t, MethodG, m)

	_, err = ParseMethod("Z")
	assert.Error(t, err)
}

func TestDiffIDs(t *testing.T) {
	missing, extra := diffIDs([]int{1, 2, 3, 5}, []int{2, 3, 4})
	assert.Equal(t, []int{1, 5}, missing)
	assert.Equal(t, []int{4}, extra)
}
