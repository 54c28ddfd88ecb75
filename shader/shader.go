// Package shader builds GPU programs from shader source files.
//
// Build loads both stages, compiles them, and links them into a Program. Every
// intermediate shader object is deleted before Build returns, whether the
// build succeeded or not. A failed build returns a *BuildError carrying the
// diagnostics for every stage that failed.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/richinsley/texflip/gpu"
)

var (
	// ErrCompile marks a stage the compiler rejected.
	ErrCompile = errors.New("shader compilation failed")
	// ErrLink marks a program the linker rejected.
	ErrLink = errors.New("program link failed")
)

// Source is the text of one shader stage as read from disk.
type Source struct {
	Stage  gpu.Stage
	Origin string
	Text   []byte
}

// String returns the source without its NUL terminator.
func (s Source) String() string {
	return strings.TrimRight(string(s.Text), "\x00")
}

// cstring returns the source with exactly one trailing NUL.
func (s Source) cstring() string {
	return s.String() + "\x00"
}

// Diagnostic is the compiler or linker output for a rejected stage or program.
type Diagnostic struct {
	Linking bool
	Stage   gpu.Stage
	Origin  string
	Log     string
}

func (d *Diagnostic) Error() string {
	if d.Linking {
		return fmt.Sprintf("error while linking program:\n%s", d.Log)
	}
	return fmt.Sprintf("error while compiling %s shader %q:\n%s", d.Stage, d.Origin, d.Log)
}

func (d *Diagnostic) Unwrap() error {
	if d.Linking {
		return ErrLink
	}
	return ErrCompile
}

// BuildError collects every failure of one Build call.
type BuildError struct {
	Errs []error
}

func (e *BuildError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return "could not build shader program: " + strings.Join(msgs, "\n")
}

func (e *BuildError) Unwrap() []error {
	return e.Errs
}

// Diagnostics returns the compiler and linker diagnostics, skipping failures
// that never reached the backend, such as unreadable files.
func (e *BuildError) Diagnostics() []*Diagnostic {
	var out []*Diagnostic
	for _, err := range e.Errs {
		var d *Diagnostic
		if errors.As(err, &d) {
			out = append(out, d)
		}
	}
	return out
}

// Translation is the result of running a source through a Translator.
// Names maps identifiers in the original source to the names the
// translated code uses for them.
type Translation struct {
	Code  string
	Names map[string]string
}

// Translator rewrites shader source from one dialect to another before it is
// compiled.
type Translator interface {
	Translate(stage gpu.Stage, source string) (Translation, error)
}
