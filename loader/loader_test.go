package loader

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 1 << 20} {
		content := bytes.Repeat([]byte{'x'}, n)
		fsys := fstest.MapFS{"shader.vs": {Data: content}}

		got, err := Load(fsys, "shader.vs")
		require.NoError(t, err, "n=%d", n)
		require.Len(t, got, n+1)
		assert.Equal(t, content, got[:n])
		assert.Equal(t, byte(0), got[n])
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	src := []byte("#version 330 core\nvoid main() {}\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.fs"), src, 0o644))

	got, err := Load(Dir(dir), "a.fs")
	require.NoError(t, err)
	assert.Equal(t, append(src, 0), got)
}

func TestLoadMissing(t *testing.T) {
	got, err := Load(fstest.MapFS{}, "nope.vs")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}

func TestLoadDirectory(t *testing.T) {
	fsys := fstest.MapFS{"shaders/a.vs": {Data: []byte("x")}}
	got, err := Load(fsys, "shaders")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}

// shortFS claims a larger size than it can deliver.
type shortFS struct{}

func (shortFS) Open(name string) (fs.File, error) {
	return &shortFile{data: []byte("abc")}, nil
}

type shortFile struct {
	data []byte
	off  int
}

func (f *shortFile) Stat() (fs.FileInfo, error) { return shortInfo{}, nil }
func (f *shortFile) Close() error               { return nil }
func (f *shortFile) Read(p []byte) (int, error) {
	if f.off >= len(f.data) {
		return 0, fs.ErrClosed
	}
	n := copy(p, f.data[f.off:])
	f.off += n
	return n, nil
}

type shortInfo struct{}

func (shortInfo) Name() string       { return "short" }
func (shortInfo) Size() int64        { return 10 }
func (shortInfo) Mode() fs.FileMode  { return 0o644 }
func (shortInfo) ModTime() time.Time { return time.Time{} }
func (shortInfo) IsDir() bool        { return false }
func (shortInfo) Sys() any           { return nil }

func TestLoadShortRead(t *testing.T) {
	got, err := Load(shortFS{}, "short")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}

func TestResolveRelative(t *testing.T) {
	_, names, err := Resolve("shaders/a.vs", "./shaders/../shaders/a.fs")
	require.NoError(t, err)
	assert.Equal(t, []string{"shaders/a.vs", "shaders/a.fs"}, names)
}

func TestResolveParentRelative(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shaders"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "run"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shaders", "v.vs"), []byte("void main() {}"), 0o644))
	t.Chdir(filepath.Join(dir, "run"))

	fsys, names, err := Resolve("../shaders/v.vs", "local.fs")
	require.NoError(t, err)
	require.Len(t, names, 2)
	for _, name := range names {
		assert.True(t, fs.ValidPath(name), name)
	}

	got, err := Load(fsys, names[0])
	require.NoError(t, err)
	assert.Equal(t, "void main() {}\x00", string(got))
}

func TestResolveAbsolute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fs")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}"), 0o644))

	fsys, names, err := Resolve(path)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.True(t, fs.ValidPath(names[0]), names[0])

	got, err := Load(fsys, names[0])
	require.NoError(t, err)
	assert.Equal(t, "void main() {}\x00", string(got))
}
