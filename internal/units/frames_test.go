package units

import "testing"

func TestNumTimeIntervals(t *testing.T) {
	tests := []struct {
		name      string
		numFrames int
		delta     int
		want      int
	}{
		{"two intervals with remainder", 101, 40, 2},
		{"one interval just short of the end", 100, 99, 1},
		{"exact division drops trailing interval", 101, 1, 100},
		{"exact division of 100 by 50", 100, 50, 1},
		{"interval longer than run", 10, 40, 0},
		{"zero delta", 10, 0, 0},
		{"no frames", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumTimeIntervals(tt.numFrames, tt.delta); got != tt.want {
				t.Errorf("NumTimeIntervals(%d, %d) = %d, want %d", tt.numFrames, tt.delta, got, tt.want)
			}
		})
	}
}

func TestIntervals(t *testing.T) {
	iv, err := NewIntervals(101, 40, 8)
	if err != nil {
		t.Fatalf("NewIntervals: %v", err)
	}
	if iv.Count() != 2 {
		t.Errorf("Count() = %d, want 2", iv.Count())
	}
	if iv.DeltaSeconds() != 5 {
		t.Errorf("DeltaSeconds() = %v, want 5", iv.DeltaSeconds())
	}
	t0, t1 := iv.Bounds(1)
	if t0 != 40 || t1 != 80 {
		t.Errorf("Bounds(1) = (%d, %d), want (40, 80)", t0, t1)
	}

	if _, err := NewIntervals(100, 10, 0); err == nil {
		t.Error("expected error for zero fps")
	}
	if _, err := NewIntervals(100, 0, 8); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := NewIntervals(-1, 10, 8); err == nil {
		t.Error("expected error for negative frame count")
	}
}
