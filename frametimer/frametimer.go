// Package frametimer estimates frame time statistics over a sliding window
// that retargets itself to about one second of frames.
package frametimer

import (
	"fmt"
	"math"
)

// DefaultWindow is the number of frames in the first window.
const DefaultWindow = 60

// Stats summarizes one window. Times are in seconds.
type Stats struct {
	Mean    float64
	StdDev  float64
	StdErr  float64
	FPS     float64
	Samples int
}

// String formats s for the window title.
func (s Stats) String() string {
	return fmt.Sprintf("dt: avg = %.3fms, std = %.3fms, ste = %.4fms. fps = %.1f",
		1000*s.Mean, 1000*s.StdDev, 1000*s.StdErr, s.FPS)
}

// Timer accumulates frame deltas. It is not safe for concurrent use; the
// render loop owns it and ticks it once per frame.
type Timer struct {
	sum    float64
	sumSq  float64
	count  int
	window int
	last   float64
	primed bool
}

// New returns a Timer whose first window holds window frames. Values below
// one select DefaultWindow.
func New(window int) *Timer {
	if window < 1 {
		window = DefaultWindow
	}
	return &Timer{window: window}
}

// Window returns the number of samples the current window collects.
func (t *Timer) Window() int {
	return t.window
}

// Tick records the frame that started at now, in seconds. When the window is
// full it returns the window's statistics and true, retargets the window to
// round(1/mean) samples and starts a new one. The first call only records
// the timestamp.
func (t *Timer) Tick(now float64) (Stats, bool) {
	if !t.primed {
		t.last = now
		t.primed = true
		return Stats{}, false
	}

	dt := now - t.last
	t.last = now
	t.sum += dt
	t.sumSq += dt * dt
	t.count++
	if t.count < t.window {
		return Stats{}, false
	}

	s := summarize(t.sum, t.sumSq, t.count)
	if s.Mean > 0 {
		t.window = max(1, int(math.Round(1/s.Mean)))
	}
	t.sum, t.sumSq, t.count = 0, 0, 0
	return s, true
}

func summarize(sum, sumSq float64, count int) Stats {
	n := float64(count)
	mean := sum / n
	// Rounding can push the difference slightly below zero.
	variance := max(sumSq/n-mean*mean, 0)
	std := math.Sqrt(variance)

	s := Stats{
		Mean:    mean,
		StdDev:  std,
		StdErr:  std / math.Sqrt(n),
		Samples: count,
	}
	if mean > 0 {
		s.FPS = 1 / mean
	}
	return s
}
