package shader

import (
	"fmt"

	"github.com/richinsley/texflip/gpu"
)

// CompiledStage is one shader object. The caller that created it owns it,
// including after a failed Compile.
type CompiledStage struct {
	Stage    gpu.Stage
	Handle   uint32
	Compiled bool
}

// NewStage allocates a shader object for stage.
func NewStage(dev gpu.Device, stage gpu.Stage) *CompiledStage {
	return &CompiledStage{Stage: stage, Handle: dev.CreateShader(stage)}
}

// Delete releases the shader object. Calling it twice is harmless.
func (cs *CompiledStage) Delete(dev gpu.Device) {
	if cs.Handle == 0 {
		return
	}
	dev.DeleteShader(cs.Handle)
	cs.Handle = 0
	cs.Compiled = false
}

// Compile compiles src into cs. On failure the returned error is a
// *Diagnostic holding the full compiler log; cs is left for the caller to
// delete.
func Compile(dev gpu.Device, cs *CompiledStage, src Source) error {
	if cs.Stage != src.Stage {
		return fmt.Errorf("cannot compile %s source %q into a %s shader", src.Stage, src.Origin, cs.Stage)
	}

	dev.ShaderSource(cs.Handle, src.cstring())
	dev.CompileShader(cs.Handle)
	if dev.ShaderCompiled(cs.Handle) {
		cs.Compiled = true
		return nil
	}

	logLength := dev.ShaderInfoLogLength(cs.Handle)
	return &Diagnostic{
		Stage:  src.Stage,
		Origin: src.Origin,
		Log:    dev.ShaderInfoLog(cs.Handle, logLength),
	}
}
