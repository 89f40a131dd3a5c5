package security

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := filepath.Join("work", "e06")
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file in dir", filepath.Join(dir, "traj.txt"), false},
		{"nested", filepath.Join(dir, "output", "Fundamental_Diagram"), false},
		{"dir itself", dir, false},
		{"dot segments that stay inside", filepath.Join(dir, "a", "..", "traj.txt"), false},
		{"parent", filepath.Join(dir, "..", "traj.txt"), true},
		{"sibling with shared prefix", filepath.Join("work", "e06x", "traj.txt"), true},
		{"far outside", filepath.Join(dir, "..", "..", "..", "etc", "passwd"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrPathTraversal) {
				t.Errorf("error %v does not wrap ErrPathTraversal", err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"e06_multiple_time_intervals", "e06_multiple_time_intervals"},
		{"../../etc/passwd", "etc_passwd"},
		{"grid 30 x 10 (slope)", "grid_30_x_10_slope"},
		{"", "unknown"},
		{"...", "unknown"},
		{"ρ_flow", "flow"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
