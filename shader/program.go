package shader

import (
	"fmt"
	"io/fs"
	"log"
	"maps"

	"github.com/richinsley/texflip/gpu"
	"github.com/richinsley/texflip/loader"
)

// Program is a linked, executable shader program.
type Program struct {
	Handle uint32
	names  map[string]string
}

// Uniform returns the location of the named uniform, or -1 if the program
// does not use it. Names are given as they appear in the source files; any
// renaming done by a Translator is undone here.
func (p *Program) Uniform(dev gpu.Device, name string) int32 {
	if mapped, ok := p.names[name]; ok {
		name = mapped
	}
	return dev.UniformLocation(p.Handle, name)
}

// Use makes p the current program.
func (p *Program) Use(dev gpu.Device) {
	dev.UseProgram(p.Handle)
}

// Delete releases the program object.
func (p *Program) Delete(dev gpu.Device) {
	if p.Handle == 0 {
		return
	}
	dev.DeleteProgram(p.Handle)
	p.Handle = 0
}

// Option configures Build.
type Option func(*builder)

// WithTranslator runs both sources through t before compiling them.
func WithTranslator(t Translator) Option {
	return func(b *builder) {
		b.translator = t
	}
}

// WithLogger sends build progress to l instead of the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(b *builder) {
		b.logger = l
	}
}

type builder struct {
	dev        gpu.Device
	fsys       fs.FS
	translator Translator
	logger     *log.Logger
	names      map[string]string
}

// Build compiles the vertex and fragment shader files and links them. Both
// stages are always attempted so that all diagnostics surface together. The
// shader objects never outlive the call.
func Build(dev gpu.Device, fsys fs.FS, vertexPath, fragmentPath string, opts ...Option) (*Program, error) {
	b := &builder{
		dev:    dev,
		fsys:   fsys,
		logger: log.Default(),
		names:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}

	vert := NewStage(dev, gpu.VertexStage)
	defer vert.Delete(dev)
	frag := NewStage(dev, gpu.FragmentStage)
	defer frag.Delete(dev)

	var errs []error
	if err := b.compileFile(vert, vertexPath); err != nil {
		errs = append(errs, err)
	}
	if err := b.compileFile(frag, fragmentPath); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, &BuildError{Errs: errs}
	}

	program := dev.CreateProgram()
	dev.AttachShader(program, vert.Handle)
	dev.AttachShader(program, frag.Handle)
	dev.LinkProgram(program)

	if !dev.ProgramLinked(program) {
		logLength := dev.ProgramInfoLogLength(program)
		diag := &Diagnostic{
			Linking: true,
			Origin:  vertexPath + ", " + fragmentPath,
			Log:     dev.ProgramInfoLog(program, logLength),
		}
		dev.DeleteProgram(program)
		return nil, &BuildError{Errs: []error{diag}}
	}

	return &Program{Handle: program, names: b.names}, nil
}

func (b *builder) compileFile(cs *CompiledStage, path string) error {
	text, err := loader.Load(b.fsys, path)
	if err != nil {
		return fmt.Errorf("could not read %s shader file: %w", cs.Stage, err)
	}
	src := Source{Stage: cs.Stage, Origin: path, Text: text}

	if b.translator != nil {
		tr, err := b.translator.Translate(cs.Stage, src.String())
		if err != nil {
			return fmt.Errorf("%s shader %q translation failed: %w", cs.Stage, path, err)
		}
		src.Text = []byte(tr.Code)
		maps.Copy(b.names, tr.Names)
	}

	b.logger.Printf("Compiling shader : %s", path)
	return Compile(b.dev, cs, src)
}
