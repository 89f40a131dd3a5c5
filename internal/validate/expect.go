package validate

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/banshee-data/flowcheck/internal/output"
	"github.com/banshee-data/flowcheck/internal/tolerance"
)

type expectKind int

const (
	expectValue expectKind = iota
	expectExact
	expectRange
)

// Expect is the expected content of one cell.
type Expect struct {
	kind  expectKind
	value float64
	rng   tolerance.Range
}

// Value expects v within the absolute tolerance. NaN matches only NaN and
// an infinity only the same infinity.
func Value(v float64) Expect { return Expect{kind: expectValue, value: v} }

// Exact expects v with no tolerance, for counts and frame numbers.
func Exact(v float64) Expect { return Expect{kind: expectExact, value: v} }

// Within expects a value admitted by r.
func Within(r tolerance.Range) Expect { return Expect{kind: expectRange, rng: r} }

// Match reports whether x satisfies e.
func (e Expect) Match(x, absTol float64) bool {
	switch e.kind {
	case expectRange:
		return e.rng.Contains(x, absTol)
	case expectExact:
		if math.IsNaN(e.value) {
			return math.IsNaN(x)
		}
		return x == e.value
	default:
		switch {
		case math.IsNaN(e.value) || math.IsNaN(x):
			return math.IsNaN(e.value) && math.IsNaN(x)
		case math.IsInf(e.value, 0) || math.IsInf(x, 0):
			return x == e.value
		}
		return math.Abs(x-e.value) <= absTol
	}
}

// Representative returns a value that satisfies e: the value itself or the
// middle of the range.
func (e Expect) Representative() float64 {
	if e.kind == expectRange {
		return (e.rng.Min + e.rng.Max) / 2
	}
	return e.value
}

func (e Expect) String() string {
	switch e.kind {
	case expectRange:
		return e.rng.String()
	default:
		return strconv.FormatFloat(e.value, 'g', -1, 64)
	}
}

// Artifact is one expected output file.
type Artifact interface {
	// Name is the file name inside the method directory.
	Name() string
	// Check compares a loaded table and returns every mismatch.
	Check(t *output.Table, absTol float64) []Failure
	// Reference renders a table that passes Check.
	Reference() *output.Table
}

// gridArtifact expects a fixed rows x cols table.
type gridArtifact struct {
	name  string
	cols  int
	cells [][]Expect
}

func (g *gridArtifact) Name() string { return g.name }

func (g *gridArtifact) Check(t *output.Table, absTol float64) []Failure {
	rows, cols := t.Dims()
	if rows != len(g.cells) || (rows > 0 && cols != g.cols) {
		return []Failure{{
			Kind:     FailureShape,
			File:     g.name,
			Row:      -1,
			Col:      -1,
			Observed: fmt.Sprintf("%dx%d", rows, cols),
			Expected: fmt.Sprintf("%dx%d", len(g.cells), g.cols),
		}}
	}
	var fails []Failure
	for i, row := range g.cells {
		for j, e := range row {
			x := t.At(i, j)
			if !e.Match(x, absTol) {
				fails = append(fails, Failure{
					Kind:     FailureValue,
					File:     g.name,
					Row:      i,
					Col:      j,
					Observed: strconv.FormatFloat(x, 'g', -1, 64),
					Expected: e.String(),
				})
			}
		}
	}
	return fails
}

func (g *gridArtifact) Reference() *output.Table {
	rows := make([][]float64, len(g.cells))
	for i, row := range g.cells {
		rows[i] = make([]float64, len(row))
		for j, e := range row {
			rows[i][j] = e.Representative()
		}
	}
	t, _ := output.NewTable(rows)
	return t
}

// keyedArtifact expects rows of [id, value] whose id set equals ids and
// whose values all satisfy value.
type keyedArtifact struct {
	name  string
	ids   []int
	value Expect
}

func (k *keyedArtifact) Name() string { return k.name }

func (k *keyedArtifact) Check(t *output.Table, absTol float64) []Failure {
	rows, cols := t.Dims()
	if rows > 0 && cols < 2 {
		return []Failure{{
			Kind: FailureShape, File: k.name, Row: -1, Col: -1,
			Observed: fmt.Sprintf("%dx%d", rows, cols),
			Expected: fmt.Sprintf("%dx2", len(k.ids)),
		}}
	}
	var fails []Failure
	seen := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		seen = append(seen, int(math.Round(t.At(i, 0))))
		x := t.At(i, 1)
		if !k.value.Match(x, absTol) {
			fails = append(fails, Failure{
				Kind: FailureValue, File: k.name, Row: i, Col: 1,
				Observed: strconv.FormatFloat(x, 'g', -1, 64),
				Expected: k.value.String(),
			})
		}
	}
	want := slices.Clone(k.ids)
	slices.Sort(want)
	slices.Sort(seen)
	if !slices.Equal(want, seen) {
		missing, extra := diffIDs(want, seen)
		fails = append(fails, Failure{
			Kind: FailureIdentitySet, File: k.name, Row: -1, Col: 0,
			Observed: fmt.Sprintf("%d ids", len(seen)),
			Expected: fmt.Sprintf("%d ids", len(want)),
			Message:  fmt.Sprintf("missing %v, unexpected %v", missing, extra),
		})
	}
	return fails
}

func (k *keyedArtifact) Reference() *output.Table {
	rows := make([][]float64, len(k.ids))
	for i, id := range k.ids {
		rows[i] = []float64{float64(id), k.value.Representative()}
	}
	t, _ := output.NewTable(rows)
	return t
}

// diffIDs returns ids in want but not got, and in got but not want. Both
// inputs are sorted.
func diffIDs(want, got []int) (missing, extra []int) {
	i, j := 0, 0
	for i < len(want) || j < len(got) {
		switch {
		case j >= len(got) || (i < len(want) && want[i] < got[j]):
			missing = append(missing, want[i])
			i++
		case i >= len(want) || got[j] < want[i]:
			extra = append(extra, got[j])
			j++
		default:
			i++
			j++
		}
	}
	return missing, extra
}
