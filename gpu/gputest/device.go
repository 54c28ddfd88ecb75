// Package gputest provides an in-memory gpu.Device for tests.
//
// It keeps enough state to answer the questions tests ask of a GPU: which
// objects are still alive, what a texture holds, what was drawn.
package gputest

import (
	"strings"

	"github.com/richinsley/texflip/gpu"
)

// Shader is a fake shader object.
type Shader struct {
	Stage    gpu.Stage
	Source   string
	Compiled bool
	Log      string
}

// Program is a fake program object.
type Program struct {
	Attached []uint32
	Sources  []string
	Linked   bool
	Log      string
}

// Texture is a fake 2D texture with RGB storage.
type Texture struct {
	Width, Height int32
	Pixels        []byte
	Params        gpu.TextureParams
	Uploads       int
}

// Draw records one DrawArrays call together with the bound state.
type Draw struct {
	Mode    gpu.Primitive
	First   int32
	Count   int32
	Program uint32
	VAO     uint32
	Texture uint32
}

// Device implements gpu.Device in memory.
type Device struct {
	// CompileFunc decides whether a shader compiles. The default fails any
	// source containing "#error".
	CompileFunc func(stage gpu.Stage, source string) (ok bool, log string)
	// LinkError, when non-empty, makes every link fail with this log.
	LinkError string

	Shaders   map[uint32]*Shader
	Programs  map[uint32]*Program
	Textures  map[uint32]*Texture
	VAOs      map[uint32]bool
	Uniforms  map[int32]int32
	Matrices  map[int32][16]float32
	Draws     []Draw
	Clears    int
	Reads     int
	Viewports [][4]int32

	// LogLengths records every length passed to ShaderInfoLog/ProgramInfoLog.
	LogLengths []int32

	ClearRGBA [4]float32

	next        uint32
	program     uint32
	vao         uint32
	texture     uint32
	activeUnit  uint32
	uniformName map[int32]string
}

// New returns an empty device.
func New() *Device {
	return &Device{
		Shaders:     make(map[uint32]*Shader),
		Programs:    make(map[uint32]*Program),
		Textures:    make(map[uint32]*Texture),
		VAOs:        make(map[uint32]bool),
		Uniforms:    make(map[int32]int32),
		Matrices:    make(map[int32][16]float32),
		uniformName: make(map[int32]string),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

// LiveShaders is the number of shader objects not yet deleted.
func (d *Device) LiveShaders() int { return len(d.Shaders) }

// LivePrograms is the number of program objects not yet deleted.
func (d *Device) LivePrograms() int { return len(d.Programs) }

// LiveTextures is the number of texture objects not yet deleted.
func (d *Device) LiveTextures() int { return len(d.Textures) }

// LiveVertexArrays is the number of vertex arrays not yet deleted.
func (d *Device) LiveVertexArrays() int { return len(d.VAOs) }

// UniformByName returns the integer uniform last set under name.
func (d *Device) UniformByName(name string) (int32, bool) {
	for loc, n := range d.uniformName {
		if n == name {
			v, ok := d.Uniforms[loc]
			return v, ok
		}
	}
	return 0, false
}

// MatrixByName returns the mat4 uniform last set under name.
func (d *Device) MatrixByName(name string) ([16]float32, bool) {
	for loc, n := range d.uniformName {
		if n == name {
			m, ok := d.Matrices[loc]
			return m, ok
		}
	}
	return [16]float32{}, false
}

func (d *Device) CreateShader(stage gpu.Stage) uint32 {
	h := d.handle()
	d.Shaders[h] = &Shader{Stage: stage}
	return h
}

func (d *Device) ShaderSource(shader uint32, source string) {
	if s, ok := d.Shaders[shader]; ok {
		s.Source = strings.TrimRight(source, "\x00")
	}
}

func (d *Device) CompileShader(shader uint32) {
	s, ok := d.Shaders[shader]
	if !ok {
		return
	}
	compile := d.CompileFunc
	if compile == nil {
		compile = defaultCompile
	}
	s.Compiled, s.Log = compile(s.Stage, s.Source)
}

func defaultCompile(stage gpu.Stage, source string) (bool, string) {
	if strings.Contains(source, "#error") {
		return false, "ERROR: 0:1: '#error' : " + stage.String() + " stage rejected\n"
	}
	return true, ""
}

func (d *Device) ShaderCompiled(shader uint32) bool {
	s, ok := d.Shaders[shader]
	return ok && s.Compiled
}

func (d *Device) ShaderInfoLogLength(shader uint32) int32 {
	s, ok := d.Shaders[shader]
	if !ok || s.Log == "" {
		return 0
	}
	return int32(len(s.Log) + 1)
}

func (d *Device) ShaderInfoLog(shader uint32, length int32) string {
	d.LogLengths = append(d.LogLengths, length)
	s, ok := d.Shaders[shader]
	if !ok {
		return ""
	}
	return truncateLog(s.Log, length)
}

// truncateLog mimics glGet*InfoLog: at most length-1 characters plus NUL.
func truncateLog(log string, length int32) string {
	if length <= 0 {
		return ""
	}
	if int(length-1) < len(log) {
		return log[:length-1]
	}
	return log
}

func (d *Device) DeleteShader(shader uint32) {
	delete(d.Shaders, shader)
}

func (d *Device) CreateProgram() uint32 {
	h := d.handle()
	d.Programs[h] = &Program{}
	return h
}

func (d *Device) AttachShader(program, shader uint32) {
	if p, ok := d.Programs[program]; ok {
		p.Attached = append(p.Attached, shader)
	}
}

func (d *Device) LinkProgram(program uint32) {
	p, ok := d.Programs[program]
	if !ok {
		return
	}
	if d.LinkError != "" {
		p.Linked, p.Log = false, d.LinkError
		return
	}
	p.Sources = p.Sources[:0]
	for _, sh := range p.Attached {
		s, ok := d.Shaders[sh]
		if !ok || !s.Compiled {
			p.Linked, p.Log = false, "error: attached shader is not compiled\n"
			return
		}
		p.Sources = append(p.Sources, s.Source)
	}
	p.Linked = true
}

func (d *Device) ProgramLinked(program uint32) bool {
	p, ok := d.Programs[program]
	return ok && p.Linked
}

func (d *Device) ProgramInfoLogLength(program uint32) int32 {
	p, ok := d.Programs[program]
	if !ok || p.Log == "" {
		return 0
	}
	return int32(len(p.Log) + 1)
}

func (d *Device) ProgramInfoLog(program uint32, length int32) string {
	d.LogLengths = append(d.LogLengths, length)
	p, ok := d.Programs[program]
	if !ok {
		return ""
	}
	return truncateLog(p.Log, length)
}

func (d *Device) UseProgram(program uint32) { d.program = program }

// UniformLocation hands out a location for any identifier that appears in
// the source the program was linked from, and -1 otherwise.
func (d *Device) UniformLocation(program uint32, name string) int32 {
	p, ok := d.Programs[program]
	if !ok {
		return -1
	}
	for _, src := range p.Sources {
		if !strings.Contains(src, name) {
			continue
		}
		for loc, n := range d.uniformName {
			if n == name {
				return loc
			}
		}
		loc := int32(len(d.uniformName))
		d.uniformName[loc] = name
		return loc
	}
	return -1
}

func (d *Device) Uniform1i(location, value int32) {
	if location >= 0 {
		d.Uniforms[location] = value
	}
}

func (d *Device) UniformMatrix4fv(location int32, m [16]float32) {
	if location >= 0 {
		d.Matrices[location] = m
	}
}

func (d *Device) DeleteProgram(program uint32) {
	delete(d.Programs, program)
	if d.program == program {
		d.program = 0
	}
}

func (d *Device) CreateTexture() uint32 {
	h := d.handle()
	d.Textures[h] = &Texture{}
	return h
}

func (d *Device) ActiveTexture(unit uint32) { d.activeUnit = unit }

func (d *Device) BindTexture(texture uint32) { d.texture = texture }

// BoundTexture returns the texture bound to the active unit.
func (d *Device) BoundTexture() uint32 { return d.texture }

func (d *Device) TextureParameters(p gpu.TextureParams) {
	if t, ok := d.Textures[d.texture]; ok {
		t.Params = p
	}
}

func (d *Device) TexImage2D(width, height int32, pixels []byte) {
	t, ok := d.Textures[d.texture]
	if !ok {
		return
	}
	t.Width, t.Height = width, height
	t.Pixels = make([]byte, int(width*height*3))
	copy(t.Pixels, pixels)
	t.Uploads++
}

func (d *Device) TexSubImage2D(x, y, width, height int32, pixels []byte) {
	t, ok := d.Textures[d.texture]
	if !ok {
		return
	}
	row := int(width * 3)
	for r := int32(0); r < height; r++ {
		dst := int(((y+r)*t.Width + x) * 3)
		src := int(r) * row
		copy(t.Pixels[dst:dst+row], pixels[src:src+row])
	}
	t.Uploads++
}

func (d *Device) DeleteTexture(texture uint32) {
	delete(d.Textures, texture)
	if d.texture == texture {
		d.texture = 0
	}
}

func (d *Device) CreateVertexArray() uint32 {
	h := d.handle()
	d.VAOs[h] = true
	return h
}

func (d *Device) BindVertexArray(vao uint32) { d.vao = vao }

func (d *Device) DeleteVertexArray(vao uint32) {
	delete(d.VAOs, vao)
	if d.vao == vao {
		d.vao = 0
	}
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.Viewports = append(d.Viewports, [4]int32{x, y, width, height})
}

func (d *Device) ClearColor(r, g, b, a float32) { d.ClearRGBA = [4]float32{r, g, b, a} }

func (d *Device) Clear() { d.Clears++ }

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	d.Draws = append(d.Draws, Draw{
		Mode:    mode,
		First:   first,
		Count:   count,
		Program: d.program,
		VAO:     d.vao,
		Texture: d.texture,
	})
}

func (d *Device) ReadPixels(x, y, width, height int32, dst []byte) {
	d.Reads++
	for i := range dst {
		dst[i] = byte(i)
	}
}

var _ gpu.Device = (*Device)(nil)
