package oracle

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/flowcheck/internal/kinematics"
	"github.com/banshee-data/flowcheck/internal/units"
)

func e01Input() Input {
	g := kinematics.Grid{NumColumns: 30, NumRows: 10, Spacing: 1, StartX: 4.5, StartY: 9.5, Velocity: 1.3, FPS: 8}
	return Input{
		Columns:   g.Columns(),
		Intervals: units.Intervals{NumFrames: 101, DeltaFrames: 40, FPS: 8},
		DtFrames:  8,
		Lines:     []float64{4.5, 5, 5.5},
		Area:      Strip{X0: 4.5, X1: 5.5, DeltaY: 10, NPolygon: 2},
	}
}

func mustBuild(t *testing.T, in Input) *ReferenceSet {
	t.Helper()
	rs, err := Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rs
}

func TestBuild(t *testing.T) {
	rs := mustBuild(t, e01Input())

	if diff := cmp.Diff([]int{60, 70}, rs.Crossings(2)); diff != "" {
		t.Errorf("Crossings(2) mismatch (-want +got):\n%s", diff)
	}
	lengths := []struct {
		name string
		got  int
		want int
	}{
		{"Occupancy", len(rs.Occupancy()), 101},
		{"OccupancyPerInterval", len(rs.OccupancyPerInterval()), 2},
		{"Passes(1)", len(rs.Passes(1)), 2},
		{"SubIntervalDistances", len(rs.SubIntervalDistances()), 12},
		{"Distances", len(rs.Distances()), 2},
	}
	for _, l := range lengths {
		if l.got != l.want {
			t.Errorf("len(%s()) = %d, want %d", l.name, l.got, l.want)
		}
	}
	if got := rs.DtFrames(); got != 8 {
		t.Errorf("DtFrames() = %d, want 8", got)
	}

	// columns 0..15 get past x1 = 5.5 within 101 frames
	tr := rs.Traversals()
	if len(tr) != 160 {
		t.Fatalf("len(Traversals()) = %d, want 160", len(tr))
	}
	if diff := cmp.Diff([]int{1, 2, 3}, tr[:3]); diff != "" {
		t.Errorf("first traversals mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []int{16, 286} {
		if !slices.Contains(tr, id) {
			t.Errorf("Traversals() is missing id %d", id)
		}
	}
	if slices.Contains(tr, 17) {
		t.Error("Traversals() contains id 17")
	}
}

func TestBuildAccessorsReturnCopies(t *testing.T) {
	rs := mustBuild(t, e01Input())

	c := rs.Crossings(0)
	c[0] = -1
	if got := rs.Crossings(0)[0]; got != 70 {
		t.Errorf("Crossings(0)[0] = %d after mutating a copy, want 70", got)
	}

	l := rs.Lines()
	l[0] = 99
	if got := rs.Lines()[0]; got != 4.5 {
		t.Errorf("Lines()[0] = %v after mutating a copy, want 4.5", got)
	}
}

func TestBuildWithoutSubIntervals(t *testing.T) {
	in := e01Input()
	in.DtFrames = 0
	rs := mustBuild(t, in)
	if got := rs.SubIntervalDistances(); len(got) != 0 {
		t.Errorf("SubIntervalDistances() = %v, want empty", got)
	}
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	in := e01Input()
	in.Intervals.FPS = 0
	if _, err := Build(in); err == nil {
		t.Error("expected error for zero fps")
	}

	in = e01Input()
	in.Area = Strip{X0: 1, X1: 0}
	if _, err := Build(in); !errors.Is(err, ErrInvalidStrip) {
		t.Errorf("Build() error = %v, want ErrInvalidStrip", err)
	}
}
