package shader

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/texflip/gpu"
	"github.com/richinsley/texflip/gpu/gputest"
	"github.com/richinsley/texflip/loader"
)

const passVertex = `#version 330 core
out vec2 uv;
void main() {
    vec2 pos = vec2(gl_VertexID & 1, gl_VertexID >> 1);
    uv = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

const passFragment = `#version 330 core
in vec2 uv;
out vec4 color;
uniform sampler2D texture_sampler;
void main() { color = texture(texture_sampler, uv); }
`

const brokenShader = "#version 330 core\n#error broken\n"

func quietLogger() Option {
	return WithLogger(log.New(&bytes.Buffer{}, "", 0))
}

func files(vs, fs string) fstest.MapFS {
	return fstest.MapFS{
		"quad.vs": {Data: []byte(vs)},
		"quad.fs": {Data: []byte(fs)},
	}
}

func TestBuildSuccess(t *testing.T) {
	dev := gputest.New()
	prog, err := Build(dev, files(passVertex, passFragment), "quad.vs", "quad.fs", quietLogger())
	require.NoError(t, err)
	require.NotNil(t, prog)

	assert.NotZero(t, prog.Handle)
	assert.True(t, dev.ProgramLinked(prog.Handle))
	assert.Equal(t, 0, dev.LiveShaders(), "stage objects must not outlive Build")
	assert.Equal(t, 1, dev.LivePrograms())
	assert.GreaterOrEqual(t, prog.Uniform(dev, "texture_sampler"), int32(0))
	assert.Equal(t, int32(-1), prog.Uniform(dev, "not_declared"))

	prog.Delete(dev)
	assert.Equal(t, 0, dev.LivePrograms())
	prog.Delete(dev)
}

func TestBuildOneStageFails(t *testing.T) {
	cases := []struct {
		name   string
		vs, fs string
		failed gpu.Stage
	}{
		{"vertex", brokenShader, passFragment, gpu.VertexStage},
		{"fragment", passVertex, brokenShader, gpu.FragmentStage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dev := gputest.New()
			prog, err := Build(dev, files(tc.vs, tc.fs), "quad.vs", "quad.fs", quietLogger())
			assert.Nil(t, prog)
			require.ErrorIs(t, err, ErrCompile)
			assert.NotErrorIs(t, err, ErrLink)

			assert.Equal(t, 0, dev.LiveShaders(), "both stage handles must be released")
			assert.Equal(t, 0, dev.LivePrograms(), "no program object on compile failure")

			var be *BuildError
			require.ErrorAs(t, err, &be)
			diags := be.Diagnostics()
			require.Len(t, diags, 1)
			assert.Equal(t, tc.failed, diags[0].Stage)
			assert.Contains(t, diags[0].Log, "#error")
		})
	}
}

func TestBuildBothStagesFailReportsBoth(t *testing.T) {
	dev := gputest.New()
	_, err := Build(dev, files(brokenShader, brokenShader), "quad.vs", "quad.fs", quietLogger())

	var be *BuildError
	require.ErrorAs(t, err, &be)
	diags := be.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, gpu.VertexStage, diags[0].Stage)
	assert.Equal(t, gpu.FragmentStage, diags[1].Stage)
	assert.Equal(t, "quad.vs", diags[0].Origin)
	assert.Equal(t, "quad.fs", diags[1].Origin)
	assert.Equal(t, 0, dev.LiveShaders())
}

func TestBuildMissingFile(t *testing.T) {
	dev := gputest.New()
	fsys := fstest.MapFS{"quad.fs": {Data: []byte(passFragment)}}
	prog, err := Build(dev, fsys, "quad.vs", "quad.fs", quietLogger())
	assert.Nil(t, prog)
	assert.ErrorIs(t, err, loader.ErrNotFound)
	assert.NotErrorIs(t, err, ErrCompile)
	assert.Equal(t, 0, dev.LiveShaders())
	assert.Equal(t, 0, dev.LivePrograms())

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Empty(t, be.Diagnostics())
}

func TestBuildLinkFailure(t *testing.T) {
	dev := gputest.New()
	dev.LinkError = "error: varying uv not written by vertex shader\n"

	prog, err := Build(dev, files(passVertex, passFragment), "quad.vs", "quad.fs", quietLogger())
	assert.Nil(t, prog)
	require.ErrorIs(t, err, ErrLink)
	assert.Equal(t, 0, dev.LiveShaders())
	assert.Equal(t, 0, dev.LivePrograms())

	var be *BuildError
	require.ErrorAs(t, err, &be)
	diags := be.Diagnostics()
	require.Len(t, diags, 1)
	assert.True(t, diags[0].Linking)
	assert.Equal(t, dev.LinkError, diags[0].Log)
	assert.True(t, strings.HasPrefix(diags[0].Error(), "error while linking program:"))
}

func TestDiagnosticUsesReportedLength(t *testing.T) {
	longLog := strings.Repeat("0:1(1): error: syntax error\n", 200)
	dev := gputest.New()
	dev.CompileFunc = func(stage gpu.Stage, source string) (bool, string) {
		return false, longLog
	}

	cs := NewStage(dev, gpu.FragmentStage)
	defer cs.Delete(dev)
	err := Compile(dev, cs, Source{Stage: gpu.FragmentStage, Origin: "big.fs", Text: []byte("x\x00")})

	var d *Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, longLog, d.Log, "log must not be truncated")
	require.NotEmpty(t, dev.LogLengths)
	assert.Equal(t, int32(len(longLog)+1), dev.LogLengths[0])
	assert.False(t, cs.Compiled)
	assert.Equal(t, 1, dev.LiveShaders(), "Compile leaves the handle to its owner")
}

func TestCompileStageMismatch(t *testing.T) {
	dev := gputest.New()
	cs := NewStage(dev, gpu.VertexStage)
	defer cs.Delete(dev)
	err := Compile(dev, cs, Source{Stage: gpu.FragmentStage, Origin: "a.fs"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCompile)
}

func TestSourceTerminator(t *testing.T) {
	src := Source{Text: []byte("void main() {}\x00")}
	assert.Equal(t, "void main() {}", src.String())
	assert.Equal(t, "void main() {}\x00", src.cstring())

	bare := Source{Text: []byte("void main() {}")}
	assert.Equal(t, "void main() {}\x00", bare.cstring())
}

type renamingTranslator struct {
	calls []gpu.Stage
	fail  bool
}

func (r *renamingTranslator) Translate(stage gpu.Stage, source string) (Translation, error) {
	r.calls = append(r.calls, stage)
	if r.fail {
		return Translation{}, errors.New("unsupported dialect")
	}
	code := strings.ReplaceAll(source, "texture_sampler", "_utexture_sampler")
	return Translation{
		Code:  code,
		Names: map[string]string{"texture_sampler": "_utexture_sampler"},
	}, nil
}

func TestBuildWithTranslator(t *testing.T) {
	dev := gputest.New()
	tr := &renamingTranslator{}
	prog, err := Build(dev, files(passVertex, passFragment), "quad.vs", "quad.fs", WithTranslator(tr), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []gpu.Stage{gpu.VertexStage, gpu.FragmentStage}, tr.calls)
	loc := prog.Uniform(dev, "texture_sampler")
	assert.GreaterOrEqual(t, loc, int32(0), "original name resolves through the rename table")
	assert.Equal(t, loc, dev.UniformLocation(prog.Handle, "_utexture_sampler"))
}

func TestBuildTranslatorFailure(t *testing.T) {
	dev := gputest.New()
	tr := &renamingTranslator{fail: true}
	prog, err := Build(dev, files(passVertex, passFragment), "quad.vs", "quad.fs", WithTranslator(tr), quietLogger())
	assert.Nil(t, prog)
	require.Error(t, err)
	assert.Len(t, tr.calls, 2, "both stages are attempted")
	assert.Equal(t, 0, dev.LiveShaders())
}

func TestBuildLogsProgress(t *testing.T) {
	var buf bytes.Buffer
	dev := gputest.New()
	_, err := Build(dev, files(passVertex, passFragment), "quad.vs", "quad.fs", WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	assert.Equal(t, "Compiling shader : quad.vs\nCompiling shader : quad.fs\n", buf.String())
}
