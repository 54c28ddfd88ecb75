// Package renderer drives the harness: it owns the shader program, the quad
// vertex array and the palette texture, and runs the per-frame loop.
package renderer

import (
	"fmt"
	"io/fs"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/texflip/encoder"
	"github.com/richinsley/texflip/frametimer"
	"github.com/richinsley/texflip/gpu"
	"github.com/richinsley/texflip/graphics"
	"github.com/richinsley/texflip/input"
	"github.com/richinsley/texflip/shader"
	"github.com/richinsley/texflip/texture"
)

// State is the lifecycle phase of a Renderer.
type State int

const (
	Initializing State = iota
	Running
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Uniform names the shaders are expected to declare.
const (
	samplerUniform   = "texture_sampler"
	transformUniform = "transform"
)

// Clear color, #034885.
var clearColor = [4]float32{3.0 / 255.0, 72.0 / 255.0, 133.0 / 255.0, 1.0}

// Recorder receives a copy of every rendered frame.
type Recorder interface {
	SendVideo(frame *encoder.Frame)
	Close() error
}

// Config holds everything the renderer needs besides its context and device.
type Config struct {
	VertexShader   string
	FragmentShader string
	InvertKey      graphics.Key
	TextureParams  gpu.TextureParams
	// KeepAspect scales the quad so square texels stay square.
	KeepAspect bool
	// MaxFrames stops Run after this many frames; zero means no limit.
	MaxFrames int
	// Translator, when non-nil, rewrites both shader stages before compiling.
	Translator shader.Translator
	// Reload, when non-nil, asks for the program to be rebuilt. A failed
	// rebuild keeps the current program.
	Reload <-chan string

	Recorder      Recorder
	CaptureWidth  int
	CaptureHeight int

	Logger *log.Logger
}

// Renderer is not safe for concurrent use. All methods must run on the
// thread that owns the context.
type Renderer struct {
	ctx graphics.Context
	dev gpu.Device
	cfg Config
	log *log.Logger

	state     State
	fsys      fs.FS
	program   *shader.Program
	quadVAO   uint32
	tex       *texture.Texture
	timer     *frametimer.Timer
	invert    input.EdgeDetector
	frames    int
	transform int32
	fbWidth   int
	fbHeight  int
}

// New returns a Renderer in the Initializing state. The context must be
// current and GL loaded before Init is called.
func New(ctx graphics.Context, dev gpu.Device, cfg Config) *Renderer {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{
		ctx:       ctx,
		dev:       dev,
		cfg:       cfg,
		log:       logger,
		state:     Initializing,
		timer:     frametimer.New(frametimer.DefaultWindow),
		transform: -1,
	}
}

// State returns the current lifecycle phase.
func (r *Renderer) State() State {
	return r.state
}

// Texture returns the palette texture, or nil before Init.
func (r *Renderer) Texture() *texture.Texture {
	return r.tex
}

// Frames returns the number of frames rendered so far.
func (r *Renderer) Frames() int {
	return r.frames
}

// Init builds the shader program from fsys and creates the GPU resources.
// A build failure is returned unchanged and leaves nothing allocated.
func (r *Renderer) Init(fsys fs.FS) error {
	if r.state != Initializing {
		return fmt.Errorf("renderer: Init called while %s", r.state)
	}

	r.fsys = fsys
	program, err := r.buildProgram()
	if err != nil {
		return err
	}
	r.program = program

	// Vertices come from gl_VertexID; core profile still needs a bound VAO.
	r.quadVAO = r.dev.CreateVertexArray()
	r.dev.BindVertexArray(r.quadVAO)

	r.tex, err = texture.Create(r.dev, texture.PaletteWidth, texture.PaletteHeight, texture.Palette[:], r.cfg.TextureParams)
	if err != nil {
		r.release()
		return fmt.Errorf("failed to create texture: %w", err)
	}

	r.bindUniforms()
	r.dev.ClearColor(clearColor[0], clearColor[1], clearColor[2], clearColor[3])

	r.state = Running
	return nil
}

func (r *Renderer) buildProgram() (*shader.Program, error) {
	opts := []shader.Option{shader.WithLogger(r.log)}
	if r.cfg.Translator != nil {
		opts = append(opts, shader.WithTranslator(r.cfg.Translator))
	}
	return shader.Build(r.dev, r.fsys, r.cfg.VertexShader, r.cfg.FragmentShader, opts...)
}

// bindUniforms makes the program current and sets the uniforms that do not
// change per frame. The transform is uploaded by the next Frame.
func (r *Renderer) bindUniforms() {
	r.program.Use(r.dev)
	r.dev.Uniform1i(r.program.Uniform(r.dev, samplerUniform), 0)
	r.transform = r.program.Uniform(r.dev, transformUniform)
	r.fbWidth, r.fbHeight = 0, 0
}

// reload rebuilds the program from the current files.
func (r *Renderer) reload(changed string) {
	r.log.Printf("Reloading shaders (%s changed)", changed)
	program, err := r.buildProgram()
	if err != nil {
		r.log.Printf("Error: %v", err)
		return
	}
	r.program.Delete(r.dev)
	r.program = program
	r.bindUniforms()
}

// transformFor returns the quad transform for a width x height framebuffer.
func (r *Renderer) transformFor(width, height int) mgl32.Mat4 {
	if !r.cfg.KeepAspect || width <= 0 || height <= 0 {
		return mgl32.Ident4()
	}
	aspect := float32(width) / float32(height)
	if aspect > 1 {
		return mgl32.Scale3D(1/aspect, 1, 1)
	}
	return mgl32.Scale3D(1, aspect, 1)
}

// Frame renders one frame. It does nothing unless the renderer is Running.
func (r *Renderer) Frame() {
	if r.state != Running {
		return
	}

	r.ctx.PollEvents()

	select {
	case changed := <-r.cfg.Reload:
		r.reload(changed)
	default:
	}

	if stats, ok := r.timer.Tick(r.ctx.Time()); ok {
		r.ctx.SetTitle(stats.String())
	}

	if r.invert.PressedThisFrame(r.ctx.KeyDown(r.cfg.InvertKey)) {
		r.tex.Invert()
		r.log.Println("Inverted texture colors")
	}

	width, height := r.ctx.GetFramebufferSize()
	if r.transform >= 0 && (width != r.fbWidth || height != r.fbHeight) {
		r.dev.UniformMatrix4fv(r.transform, r.transformFor(width, height))
	}
	r.fbWidth, r.fbHeight = width, height

	r.dev.Viewport(0, 0, int32(width), int32(height))
	r.dev.Clear()

	r.program.Use(r.dev)
	r.dev.BindVertexArray(r.quadVAO)
	r.tex.Bind()
	r.dev.DrawArrays(gpu.TriangleStrip, 0, 4)

	if r.cfg.Recorder != nil {
		r.capture()
	}

	r.ctx.SwapBuffers()
	r.frames++
}

// capture reads back the frame before the swap. Each frame gets its own
// buffer since the recorder consumes it on another goroutine.
func (r *Renderer) capture() {
	w, h := r.cfg.CaptureWidth, r.cfg.CaptureHeight
	pixels := make([]byte, w*h*3)
	r.dev.ReadPixels(0, 0, int32(w), int32(h), pixels)
	r.cfg.Recorder.SendVideo(&encoder.Frame{Pixels: pixels, PTS: int64(r.frames)})
}

func (r *Renderer) budgetExhausted() bool {
	return r.cfg.MaxFrames > 0 && r.frames >= r.cfg.MaxFrames
}

// Run renders frames until the context asks to close or the frame budget is
// spent, then shuts down.
func (r *Renderer) Run() {
	for r.state == Running && !r.ctx.ShouldClose() && !r.budgetExhausted() {
		r.Frame()
	}
	r.Shutdown()
}

// Shutdown releases the GPU resources and closes the recorder. The context
// itself belongs to the caller. Calling Shutdown again is a no-op.
func (r *Renderer) Shutdown() {
	if r.state == ShuttingDown {
		return
	}
	r.state = ShuttingDown
	r.release()
	if r.cfg.Recorder != nil {
		if err := r.cfg.Recorder.Close(); err != nil {
			r.log.Printf("Error finishing recording: %v", err)
		}
	}
	r.log.Printf("Rendered %d frames", r.frames)
}

func (r *Renderer) release() {
	if r.quadVAO != 0 {
		r.dev.DeleteVertexArray(r.quadVAO)
		r.quadVAO = 0
	}
	if r.program != nil {
		r.program.Delete(r.dev)
		r.program = nil
	}
	if r.tex != nil {
		r.tex.Destroy()
		r.tex = nil
	}
}
