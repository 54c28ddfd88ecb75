package glfwcontext

import (
	"fmt"
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/texflip/graphics"
	options "github.com/richinsley/texflip/options"
)

// Context is a GLFW window with an OpenGL 4.1 core context.
type Context struct {
	window *glfw.Window
}

// New creates a window sized and titled from options. The context is not
// made current.
func New(options *options.HarnessOptions) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	// A recording needs a fixed frame size.
	if *options.Record != "" {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	}

	win, err := glfw.CreateWindow(*options.Width, *options.Height, *options.Title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{window: win}

	win.SetKeyCallback(c.glfwKeyCallback)

	return c, nil
}

// glfwKeyCallback runs on key events during PollEvents. Escape requests
// close; every other key is read by polling.
func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

// glfwKey maps graphics keys to GLFW keys.
func glfwKey(key graphics.Key) glfw.Key {
	switch key {
	case graphics.KeySpace:
		return glfw.KeySpace
	case graphics.KeyEnter:
		return glfw.KeyEnter
	case graphics.KeyEscape:
		return glfw.KeyEscape
	case graphics.KeyI:
		return glfw.KeyI
	case graphics.KeyTab:
		return glfw.KeyTab
	default:
		return glfw.KeyUnknown
	}
}

// SetSwapInterval sets the number of screen refreshes to wait per swap.
// The context must be current.
func (c *Context) SetSwapInterval(interval int) {
	glfw.SwapInterval(interval)
}

// KeyDown implements graphics.Context.
func (c *Context) KeyDown(key graphics.Key) bool {
	k := glfwKey(key)
	if k == glfw.KeyUnknown {
		return false
	}
	return c.window.GetKey(k) == glfw.Press
}

// IsGLES reports false: GLFW contexts here are always desktop core profile.
func (c *Context) IsGLES() bool {
	return false
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) PollEvents() {
	glfw.PollEvents()
}

func (c *Context) SwapBuffers() {
	c.window.SwapBuffers()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

func (c *Context) SetTitle(title string) {
	c.window.SetTitle(title)
}

// Window returns the underlying *glfw.Window.
func (c *Context) Window() *glfw.Window {
	return c.window
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down GLFW. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}

var _ graphics.Context = (*Context)(nil)
