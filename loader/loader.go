// Package loader reads whole files into memory for the shader build.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a file cannot be opened or cannot be read in
// full. Callers cannot tell the two apart and are not meant to.
var ErrNotFound = errors.New("resource not found")

// Dir returns a file system rooted at path.
func Dir(path string) fs.FS {
	return os.DirFS(path)
}

// Resolve returns a file system in which every path in paths can be opened,
// and the names to open. Relative paths resolve against the working
// directory and are returned cleaned as long as every path stays below it.
// If any path is absolute or climbs out through "..", all names are rewritten
// relative to the file system root.
func Resolve(paths ...string) (fs.FS, []string, error) {
	names := append([]string(nil), paths...)
	absolute := false
	for _, p := range paths {
		if !filepath.IsLocal(p) {
			absolute = true
		}
	}
	if !absolute {
		for i, p := range names {
			names[i] = filepath.ToSlash(filepath.Clean(p))
		}
		return Dir("."), names, nil
	}

	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q: %v", ErrNotFound, p, err)
		}
		names[i] = strings.TrimPrefix(filepath.ToSlash(abs), "/")
	}
	return Dir("/"), names, nil
}

// Load returns the full content of name followed by a single NUL byte, so the
// result can be handed to a C string consumer as is. The returned length is
// always the file size plus one.
func Load(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNotFound, name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNotFound, name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", ErrNotFound, name)
	}

	size := info.Size()
	buf := make([]byte, size+1)
	n, err := io.ReadFull(f, buf[:size])
	if err != nil || int64(n) != size {
		return nil, fmt.Errorf("%w: %q: read %d of %d bytes", ErrNotFound, name, n, size)
	}
	buf[size] = 0
	return buf, nil
}
