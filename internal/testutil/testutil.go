// Package testutil provides shared test utilities and fixtures.
//
// The helpers write and read .dat fixtures through an fsutil.FileSystem so
// the same test can run against the in-memory or the real filesystem.
package testutil

import (
	"bytes"
	"testing"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/output"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// WriteFile stores content at path, creating parent directories.
func WriteFile(t testing.TB, fsys fsutil.FileSystem, path, content string) {
	t.Helper()
	AssertNoError(t, fsys.WriteFile(path, []byte(content), 0o644))
}

// WriteTable stores rows at path in the .dat format.
func WriteTable(t testing.TB, fsys fsutil.FileSystem, path string, rows [][]float64) {
	t.Helper()
	tab, err := output.NewTable(rows)
	AssertNoError(t, err)
	var buf bytes.Buffer
	AssertNoError(t, output.Write(&buf, tab))
	AssertNoError(t, fsys.WriteFile(path, buf.Bytes(), 0o644))
}

// ReadTable loads the .dat file at path.
func ReadTable(t testing.TB, fsys fsutil.FileSystem, path string) *output.Table {
	t.Helper()
	tab, err := output.Load(fsys, path)
	AssertNoError(t, err)
	return tab
}

// SetCell rewrites one value of the .dat file at path.
func SetCell(t testing.TB, fsys fsutil.FileSystem, path string, row, col int, v float64) {
	t.Helper()
	tab := ReadTable(t, fsys, path)
	rows, _ := tab.Dims()
	data := make([][]float64, rows)
	for i := range data {
		data[i] = tab.Row(i)
	}
	data[row][col] = v
	WriteTable(t, fsys, path, data)
}
