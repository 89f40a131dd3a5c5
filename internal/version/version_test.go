package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldBuild := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldBuild })

	Version, GitSHA, BuildTime = "0.3.1", "abc1234", "2024-06-11T09:00:00Z"
	want := "flowcheck 0.3.1 (commit abc1234, built 2024-06-11T09:00:00Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
