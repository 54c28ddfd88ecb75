// Package opengl implements gpu.Device on top of go-gl's OpenGL 4.1 core
// bindings. A context must be current on the calling thread.
package opengl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/texflip/gpu"
)

var glInitOnce sync.Once

// Init loads the GL function pointers for the current context. It is safe to
// call more than once; only the first call does any work.
func Init() error {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	return nil
}

// Version reports the GL_VERSION string of the current context.
func Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Device issues real GL calls.
type Device struct{}

// New returns a Device. Init must have succeeded first.
func New() *Device {
	return &Device{}
}

func shaderType(stage gpu.Stage) uint32 {
	switch stage {
	case gpu.FragmentStage:
		return gl.FRAGMENT_SHADER
	default:
		return gl.VERTEX_SHADER
	}
}

func (d *Device) CreateShader(stage gpu.Stage) uint32 {
	return gl.CreateShader(shaderType(stage))
}

func (d *Device) ShaderSource(shader uint32, source string) {
	if !strings.HasSuffix(source, "\x00") {
		source += "\x00"
	}
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (d *Device) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

func (d *Device) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (d *Device) ShaderInfoLogLength(shader uint32) int32 {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	return logLength
}

func (d *Device) ShaderInfoLog(shader uint32, length int32) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	var written int32
	gl.GetShaderInfoLog(shader, length, &written, &buf[0])
	return string(buf[:written])
}

func (d *Device) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (d *Device) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (d *Device) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (d *Device) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (d *Device) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (d *Device) ProgramInfoLogLength(program uint32) int32 {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	return logLength
}

func (d *Device) ProgramInfoLog(program uint32, length int32) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	var written int32
	gl.GetProgramInfoLog(program, length, &written, &buf[0])
	return string(buf[:written])
}

func (d *Device) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) Uniform1i(location, value int32) {
	gl.Uniform1i(location, value)
}

func (d *Device) UniformMatrix4fv(location int32, m [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Device) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (d *Device) CreateTexture() uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	return texture
}

func (d *Device) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (d *Device) BindTexture(texture uint32) {
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func filterMode(f gpu.Filter) int32 {
	switch f {
	case gpu.FilterLinear:
		return gl.LINEAR
	default:
		return gl.NEAREST
	}
}

func wrapMode(w gpu.Wrap) int32 {
	switch w {
	case gpu.WrapClamp:
		return gl.CLAMP_TO_EDGE
	default:
		return gl.REPEAT
	}
}

func (d *Device) TextureParameters(p gpu.TextureParams) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(p.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(p.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(p.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(p.WrapT))
}

// RGB rows are not 4-byte aligned for arbitrary widths.
func (d *Device) TexImage2D(width, height int32, pixels []byte) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB, width, height, 0, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (d *Device) TexSubImage2D(x, y, width, height int32, pixels []byte) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, x, y, width, height, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (d *Device) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (d *Device) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *Device) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (d *Device) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *Device) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func primitive(mode gpu.Primitive) uint32 {
	switch mode {
	case gpu.Triangles:
		return gl.TRIANGLES
	default:
		return gl.TRIANGLE_STRIP
	}
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	gl.DrawArrays(primitive(mode), first, count)
}

// ReadPixels reads tightly packed RGB rows from the current read buffer,
// bottom row first.
func (d *Device) ReadPixels(x, y, width, height int32, dst []byte) {
	if len(dst) < int(width*height*3) {
		return
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(dst))
}

var _ gpu.Device = (*Device)(nil)
