package units

import "fmt"

// Seconds converts a frame count to seconds.
func Seconds(frames int, fps float64) float64 {
	return float64(frames) / fps
}

// NumTimeIntervals returns how many complete intervals of deltaFrames fit in
// numFrames. When the division is exact the last interval would end on the
// final frame with nothing after it, so it is dropped.
func NumTimeIntervals(numFrames, deltaFrames int) int {
	if deltaFrames <= 0 || numFrames <= 0 {
		return 0
	}
	n := numFrames / deltaFrames
	if numFrames%deltaFrames == 0 {
		n--
	}
	return n
}

// Intervals describes how a run of frames is cut into time intervals.
type Intervals struct {
	NumFrames   int
	DeltaFrames int
	FPS         float64
}

// NewIntervals validates and returns an interval discretisation.
func NewIntervals(numFrames, deltaFrames int, fps float64) (Intervals, error) {
	if fps <= 0 {
		return Intervals{}, fmt.Errorf("fps must be positive, got %g", fps)
	}
	if deltaFrames <= 0 {
		return Intervals{}, fmt.Errorf("interval length must be positive, got %d frames", deltaFrames)
	}
	if numFrames < 0 {
		return Intervals{}, fmt.Errorf("frame count must be non-negative, got %d", numFrames)
	}
	return Intervals{NumFrames: numFrames, DeltaFrames: deltaFrames, FPS: fps}, nil
}

// Count returns the number of intervals.
func (iv Intervals) Count() int {
	return NumTimeIntervals(iv.NumFrames, iv.DeltaFrames)
}

// DeltaSeconds returns the interval length in seconds.
func (iv Intervals) DeltaSeconds() float64 {
	return Seconds(iv.DeltaFrames, iv.FPS)
}

// Bounds returns the first and last frame index of interval i. Consecutive
// intervals share their boundary frame.
func (iv Intervals) Bounds(i int) (t0, t1 int) {
	return i * iv.DeltaFrames, (i + 1) * iv.DeltaFrames
}
