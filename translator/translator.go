// Package translator converts WebGL2 (GLSL ES 3.00) shaders into the dialect
// of the current context, using the ANGLE translator compiled to WebAssembly.
package translator

import (
	"context"
	"fmt"
	"log"

	gst "github.com/richinsley/goshadertranslator"

	"github.com/richinsley/texflip/gpu"
	"github.com/richinsley/texflip/shader"
)

// Supported source dialects. DialectNone disables translation.
const (
	DialectNone   = ""
	DialectWebGL2 = "webgl2"
)

// Validate reports whether dialect is one New accepts.
func Validate(dialect string) error {
	switch dialect {
	case DialectNone, DialectWebGL2:
		return nil
	default:
		return fmt.Errorf("unsupported shader dialect %q (want %q)", dialect, DialectWebGL2)
	}
}

// Translator implements shader.Translator.
type Translator struct {
	translate func(source, stage string) (shader.Translation, error)
}

// New starts a translator for dialect. Output targets GLSL 4.10 core, or
// GLSL ES when gles is set. A nil Translator and nil error are returned for
// DialectNone.
func New(ctx context.Context, dialect string, gles bool) (*Translator, error) {
	if err := Validate(dialect); err != nil {
		return nil, err
	}
	if dialect == DialectNone {
		return nil, nil
	}

	st, err := gst.NewShaderTranslator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start shader translator: %w", err)
	}

	outputFormat := gst.OutputFormatGLSL410
	if gles {
		outputFormat = gst.OutputFormatESSL
	}
	log.Printf("Shader translator ready (%s, gles=%v)", dialect, gles)

	return &Translator{
		translate: func(source, stage string) (shader.Translation, error) {
			res, err := st.TranslateShader(source, stage, gst.ShaderSpecWebGL2, outputFormat)
			if err != nil {
				return shader.Translation{}, err
			}
			names := make(map[string]string, len(res.Variables))
			for name, v := range res.Variables {
				names[name] = v.MappedName
			}
			return shader.Translation{Code: res.Code, Names: names}, nil
		},
	}, nil
}

// Translate rewrites source for the target dialect.
func (t *Translator) Translate(stage gpu.Stage, source string) (shader.Translation, error) {
	return t.translate(source, stage.String())
}
