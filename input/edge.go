// Package input turns per-frame key state into one-shot press events.
package input

// EdgeDetector reports the frame on which a key goes down. Call
// PressedThisFrame exactly once per frame for the key it tracks.
type EdgeDetector struct {
	prev bool
}

// PressedThisFrame returns true only when down is true and the key was up on
// the previous call.
func (e *EdgeDetector) PressedThisFrame(down bool) bool {
	pressed := down && !e.prev
	e.prev = down
	return pressed
}
