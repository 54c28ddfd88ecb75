// Package gpu describes the slice of the OpenGL API the harness drives.
//
// The renderer, shader and texture packages only talk to a Device, so they
// can be exercised without a GL context. The opengl package provides the real
// implementation; gputest provides an in-memory one.
package gpu

// Stage selects a shader compiler entry point.
type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
)

func (s Stage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// Filter is a texture sampling filter.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

// TextureParams holds the sampling state applied when a texture is created.
type TextureParams struct {
	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap
}

// Primitive is a draw topology.
type Primitive int

const (
	TriangleStrip Primitive = iota
	Triangles
)

// Device is the set of GPU calls the harness issues. Handles are the raw
// object names returned by the driver; zero is never a live object.
type Device interface {
	// Shaders
	CreateShader(stage Stage) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	ShaderCompiled(shader uint32) bool
	ShaderInfoLogLength(shader uint32) int32
	ShaderInfoLog(shader uint32, length int32) string
	DeleteShader(shader uint32)

	// Programs
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	ProgramLinked(program uint32) bool
	ProgramInfoLogLength(program uint32) int32
	ProgramInfoLog(program uint32, length int32) string
	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32
	Uniform1i(location, value int32)
	UniformMatrix4fv(location int32, m [16]float32)
	DeleteProgram(program uint32)

	// Textures, always TEXTURE_2D with tightly packed RGB bytes.
	CreateTexture() uint32
	ActiveTexture(unit uint32)
	BindTexture(texture uint32)
	TextureParameters(p TextureParams)
	TexImage2D(width, height int32, pixels []byte)
	TexSubImage2D(x, y, width, height int32, pixels []byte)
	DeleteTexture(texture uint32)

	// Vertex arrays
	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)

	// Framebuffer
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear()
	DrawArrays(mode Primitive, first, count int32)
	ReadPixels(x, y, width, height int32, dst []byte)
}
