package timeutil

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)

	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() = %v, want >= 1s", d)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	clock.Advance(1500 * time.Millisecond)
	if got := clock.Since(start); got != 1500*time.Millisecond {
		t.Errorf("Since() = %v, want 1.5s", got)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestMockClock_ConcurrentAdvance(t *testing.T) {
	start := time.Unix(0, 0)
	clock := NewMockClock(start)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
		}()
	}
	wg.Wait()

	if got := clock.Since(start); got != 10*time.Millisecond {
		t.Errorf("Since() = %v, want 10ms", got)
	}
}

var _ Clock = RealClock{}
var _ Clock = (*MockClock)(nil)
