package graphics

import "fmt"

// Key identifies a keyboard key independently of the windowing backend.
type Key int

const (
	KeyUnknown Key = iota
	KeySpace
	KeyEnter
	KeyEscape
	KeyI
	KeyTab
)

var keyNames = map[string]Key{
	"space":  KeySpace,
	"enter":  KeyEnter,
	"escape": KeyEscape,
	"i":      KeyI,
	"tab":    KeyTab,
}

// ParseKey converts a key name such as "space" into a Key.
func ParseKey(name string) (Key, error) {
	if k, ok := keyNames[name]; ok {
		return k, nil
	}
	return KeyUnknown, fmt.Errorf("unknown key %q", name)
}

// Context defines the interface for a window with a current OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// PollEvents processes pending window events, updating key state.
	PollEvents()
	SwapBuffers()
	GetFramebufferSize() (int, int)
	// Time returns seconds since the context was created.
	Time() float64
	SetTitle(title string)
	// KeyDown reports whether key was down as of the last PollEvents.
	KeyDown(key Key) bool
	IsGLES() bool
}
