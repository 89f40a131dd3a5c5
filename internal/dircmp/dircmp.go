// Package dircmp compares a result directory tree against a stored
// reference tree, both by file layout and by numeric content.
package dircmp

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/output"
	"github.com/banshee-data/flowcheck/internal/units"
)

// DefaultRelTol is the relative L2 tolerance for content comparison.
const DefaultRelTol = 1e-3

// TreeDiff lists slash separated paths relative to the compared roots.
type TreeDiff struct {
	LeftOnly  []string
	RightOnly []string
	// Funny holds common names that could not be stat'ed on one side or
	// are a file on one side and a directory on the other.
	Funny []string
	// Common holds regular files present on both sides.
	Common []string
}

// Identical reports whether both trees hold the same set of files.
func (d *TreeDiff) Identical() bool {
	return len(d.LeftOnly) == 0 && len(d.RightOnly) == 0 && len(d.Funny) == 0
}

// CompareTrees walks left and right recursively. Directories that exist on
// only one side are reported once and not descended into.
func CompareTrees(fsys fsutil.FileSystem, left, right string) (*TreeDiff, error) {
	d := &TreeDiff{}
	if err := compareDir(fsys, left, right, "", d); err != nil {
		return nil, err
	}
	return d, nil
}

func names(fsys fsutil.FileSystem, dir string) (map[string]bool, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		out[e.Name()] = true
	}
	return out, nil
}

func compareDir(fsys fsutil.FileSystem, left, right, rel string, d *TreeDiff) error {
	ln, err := names(fsys, filepath.Join(left, rel))
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Join(left, rel), err)
	}
	rn, err := names(fsys, filepath.Join(right, rel))
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Join(right, rel), err)
	}
	all := make([]string, 0, len(ln)+len(rn))
	for n := range ln {
		all = append(all, n)
	}
	for n := range rn {
		if !ln[n] {
			all = append(all, n)
		}
	}
	sort.Strings(all)

	for _, n := range all {
		p := n
		if rel != "" {
			p = rel + "/" + n
		}
		switch {
		case !rn[n]:
			d.LeftOnly = append(d.LeftOnly, p)
		case !ln[n]:
			d.RightOnly = append(d.RightOnly, p)
		default:
			li, lerr := fsys.Stat(filepath.Join(left, p))
			ri, rerr := fsys.Stat(filepath.Join(right, p))
			switch {
			case lerr != nil || rerr != nil || li.IsDir() != ri.IsDir():
				d.Funny = append(d.Funny, p)
			case li.IsDir():
				if err := compareDir(fsys, left, right, p, d); err != nil {
					return err
				}
			default:
				d.Common = append(d.Common, p)
			}
		}
	}
	return nil
}

// ContentDiff is the comparison of one .dat file.
type ContentDiff struct {
	File    string
	Equal   bool
	RelNorm float64
	Reason  string
}

// CompareContents loads every .dat file of reference that also exists in
// result and compares the tables. Columns whose reference values are all
// whole numbers must match exactly; the rest are accepted when the L2 norm
// of the difference relative to the reference norm is within relTol.
func CompareContents(fsys fsutil.FileSystem, reference, result string, relTol float64) ([]ContentDiff, error) {
	if info, err := fsys.Stat(result); err != nil {
		return nil, fmt.Errorf("read %s: %w", result, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("read %s: not a directory", result)
	}
	var out []ContentDiff
	err := fsutil.WalkFiles(fsys, reference, func(rel string) error {
		if !strings.HasSuffix(rel, ".dat") {
			return nil
		}
		gotPath := filepath.Join(result, filepath.FromSlash(rel))
		if info, err := fsys.Stat(gotPath); err != nil || info.IsDir() {
			return nil
		}
		ref, err := output.Load(fsys, filepath.Join(reference, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		got, err := output.Load(fsys, gotPath)
		if err != nil {
			return err
		}
		out = append(out, CompareTables(rel, ref, got, relTol))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompareTables compares two loaded tables.
func CompareTables(name string, ref, got *output.Table, relTol float64) ContentDiff {
	d := ContentDiff{File: name}
	rr, rc := ref.Dims()
	gr, gc := got.Dims()
	if rr != gr || rc != gc {
		d.Reason = fmt.Sprintf("shape %dx%d, reference %dx%d", gr, gc, rr, rc)
		return d
	}
	for j := 0; j < rc; j++ {
		col := ref.Col(j)
		if !wholeColumn(col) {
			continue
		}
		gcol := got.Col(j)
		for i := range col {
			if col[i] != gcol[i] {
				d.Reason = fmt.Sprintf("integer column %d differs at row %d: %g, reference %g", j, i, gcol[i], col[i])
				return d
			}
		}
	}

	rv, gv := ref.Values(), got.Values()
	var a, b []float64
	for i := range rv {
		rn, gn := math.IsNaN(rv[i]), math.IsNaN(gv[i])
		if rn != gn {
			d.Reason = fmt.Sprintf("NaN mismatch at value %d", i)
			return d
		}
		if rn {
			continue
		}
		a = append(a, rv[i])
		b = append(b, gv[i])
	}
	if len(a) == 0 {
		d.Equal = true
		return d
	}
	diff := make([]float64, len(a))
	floats.SubTo(diff, b, a)
	num := floats.Norm(diff, 2)
	den := floats.Norm(a, 2)
	switch {
	case num == 0:
		d.RelNorm = 0
	case den == 0:
		d.RelNorm = num
	default:
		d.RelNorm = num / den
	}
	if math.IsNaN(d.RelNorm) {
		d.Reason = "non-finite difference"
		return d
	}
	d.Equal = d.RelNorm <= relTol
	if !d.Equal {
		d.Reason = fmt.Sprintf("relative norm %.3g exceeds %.3g", d.RelNorm, relTol)
	}
	return d
}

func wholeColumn(col []float64) bool {
	for _, v := range col {
		if math.IsNaN(v) || !units.IsWhole(v) {
			return false
		}
	}
	return len(col) > 0
}
