package dircmp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/output"
	"github.com/banshee-data/flowcheck/internal/testutil"
)

func TestCompareTrees(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	testutil.WriteFile(t, fs, "/ref/Method_E/a.dat", "1\n")
	testutil.WriteFile(t, fs, "/ref/Method_E/only_ref.dat", "1\n")
	testutil.WriteFile(t, fs, "/ref/odd", "file here")
	testutil.WriteFile(t, fs, "/ref/Method_G/v.dat", "1\n")
	testutil.WriteFile(t, fs, "/res/Method_E/a.dat", "1\n")
	testutil.WriteFile(t, fs, "/res/Method_E/only_res.dat", "1\n")
	testutil.WriteFile(t, fs, "/res/odd/inside.dat", "1\n")
	testutil.WriteFile(t, fs, "/res/Method_H/x.dat", "1\n")

	d, err := CompareTrees(fs, "/ref", "/res")
	require.NoError(t, err)
	assert.Equal(t, []string{"Method_E/only_ref.dat", "Method_G"}, d.LeftOnly)
	assert.Equal(t, []string{"Method_E/only_res.dat", "Method_H"}, d.RightOnly)
	assert.Equal(t, []string{"odd"}, d.Funny)
	assert.Equal(t, []string{"Method_E/a.dat"}, d.Common)
	assert.False(t, d.Identical())
}

func TestCompareTreesIdentical(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	testutil.WriteFile(t, fs, "/l/x/1.dat", "1\n")
	testutil.WriteFile(t, fs, "/r/x/1.dat", "2\n")

	d, err := CompareTrees(fs, "/l", "/r")
	require.NoError(t, err)
	assert.True(t, d.Identical())
}

func TestCompareTreesMissingRoot(t *testing.T) {
	_, err := CompareTrees(fsutil.NewMemoryFileSystem(), "/nope", "/nada")
	assert.Error(t, err)
}

func TestCompareContents(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	testutil.WriteFile(t, fs, "/ref/same.dat", "1\t1.0\n2\tnan\n")
	testutil.WriteFile(t, fs, "/res/same.dat", "1\t1.0004\n2\tnan\n")
	testutil.WriteFile(t, fs, "/ref/far.dat", "1\t1.0\n")
	testutil.WriteFile(t, fs, "/res/far.dat", "1\t1.1\n")
	testutil.WriteFile(t, fs, "/ref/count.dat", "70\t14.5\n")
	testutil.WriteFile(t, fs, "/res/count.dat", "69\t14.5\n")
	testutil.WriteFile(t, fs, "/ref/shape.dat", "1 2\n")
	testutil.WriteFile(t, fs, "/res/shape.dat", "1 2 3\n")
	testutil.WriteFile(t, fs, "/ref/notes.txt", "ignored")
	testutil.WriteFile(t, fs, "/res/notes.txt", "different")

	diffs, err := CompareContents(fs, "/ref", "/res", DefaultRelTol)
	require.NoError(t, err)
	require.Len(t, diffs, 4)

	byName := map[string]ContentDiff{}
	for _, d := range diffs {
		byName[d.File] = d
	}
	assert.True(t, byName["same.dat"].Equal, byName["same.dat"].Reason)
	assert.False(t, byName["far.dat"].Equal)
	assert.False(t, byName["count.dat"].Equal)
	assert.Contains(t, byName["count.dat"].Reason, "integer column 0")
	assert.False(t, byName["shape.dat"].Equal)
	assert.Contains(t, byName["shape.dat"].Reason, "shape")
}

func TestCompareContentsNested(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	testutil.WriteFile(t, fs, "/ref/Method_E/a/rho.dat", "1\t2\n")
	testutil.WriteFile(t, fs, "/res/Method_E/a/rho.dat", "1\t2\n")
	testutil.WriteFile(t, fs, "/ref/Method_E/only_ref.dat", "1\n")
	testutil.WriteFile(t, fs, "/res/Method_E/only_res.dat", "1\n")

	diffs, err := CompareContents(fs, "/ref", "/res", DefaultRelTol)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "Method_E/a/rho.dat", diffs[0].File)
	assert.True(t, diffs[0].Equal)

	_, err = CompareContents(fs, "/ref", "/absent", DefaultRelTol)
	assert.Error(t, err)
}

func TestCompareTablesNaNMismatch(t *testing.T) {
	ref, err := output.NewTable([][]float64{{0.5}})
	require.NoError(t, err)
	got, err := output.Parse(strings.NewReader("nan\n"))
	require.NoError(t, err)

	d := CompareTables("x.dat", ref, got, DefaultRelTol)
	assert.False(t, d.Equal)
	assert.Contains(t, d.Reason, "NaN")
}
