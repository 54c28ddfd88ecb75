package options

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("texflip", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "texflip.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	o, err := Parse(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, "shaders/vertex_shader.vs", *o.VertexShader)
	assert.Equal(t, "shaders/fragment_shader.fs", *o.FragmentShader)
	assert.Equal(t, 640, *o.Width)
	assert.Equal(t, 480, *o.Height)
	assert.False(t, *o.VSync)
	assert.Equal(t, "space", *o.InvertKey)
	assert.Equal(t, 0, *o.Frames)
}

func TestConfigFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
width = 800
height = 800
invert-key = "i"
dialect = "webgl2"
vsync = true
`)
	o, err := Parse(newFlagSet(), []string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, 800, *o.Width)
	assert.Equal(t, 800, *o.Height)
	assert.Equal(t, "i", *o.InvertKey)
	assert.Equal(t, "webgl2", *o.Dialect)
	assert.True(t, *o.VSync)
	assert.Equal(t, "nearest", *o.Filter, "keys absent from the file keep flag defaults")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, "width = 800\nheight = 600\n")
	o, err := Parse(newFlagSet(), []string{"-width", "1024", "-config", path})
	require.NoError(t, err)
	assert.Equal(t, 1024, *o.Width)
	assert.Equal(t, 600, *o.Height)
}

func TestConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, "colour = \"red\"\n")
	_, err := Parse(newFlagSet(), []string{"-config", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestConfigMissingFile(t *testing.T) {
	_, err := Parse(newFlagSet(), []string{"-config", filepath.Join(t.TempDir(), "nope.toml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cases := [][]string{
		{"-width", "0"},
		{"-frames", "-1"},
		{"-record-fps", "0"},
		{"-headless"},
	}
	for _, args := range cases {
		_, err := Parse(newFlagSet(), args)
		assert.Error(t, err, "%v", args)
	}

	_, err := Parse(newFlagSet(), []string{"-headless", "-frames", "10"})
	assert.NoError(t, err)
}

func TestHelpSkipsValidation(t *testing.T) {
	o, err := Parse(newFlagSet(), []string{"-help", "-width", "0"})
	require.NoError(t, err)
	assert.True(t, *o.Help)
}

func TestShaderPaths(t *testing.T) {
	o, err := Parse(newFlagSet(), nil)
	require.NoError(t, err)

	vs, fs := o.ShaderPaths(false)
	assert.Equal(t, DefaultVertexShader, vs)
	assert.Equal(t, DefaultFragmentShader, fs)

	vs, fs = o.ShaderPaths(true)
	assert.Equal(t, DefaultESVertexShader, vs)
	assert.Equal(t, DefaultESFragmentShader, fs)

	o, err = Parse(newFlagSet(), []string{"-fragment", "mine.fs"})
	require.NoError(t, err)
	vs, fs = o.ShaderPaths(true)
	assert.Equal(t, DefaultESVertexShader, vs)
	assert.Equal(t, "mine.fs", fs, "explicit paths are kept")
}

func TestShaderPathsKeepsExplicitDefault(t *testing.T) {
	o, err := Parse(newFlagSet(), []string{"-vertex", DefaultVertexShader})
	require.NoError(t, err)
	vs, fs := o.ShaderPaths(true)
	assert.Equal(t, DefaultVertexShader, vs, "a path given on the command line is kept even if it is the default")
	assert.Equal(t, DefaultESFragmentShader, fs)

	path := writeConfig(t, "fragment = \"shaders/fragment_shader.fs\"\n")
	o, err = Parse(newFlagSet(), []string{"-config", path})
	require.NoError(t, err)
	vs, fs = o.ShaderPaths(true)
	assert.Equal(t, DefaultESVertexShader, vs)
	assert.Equal(t, DefaultFragmentShader, fs, "a path set in the config file is kept")
}
