package options

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// HarnessOptions holds every command line setting. Fields point at the flag
// values registered by Register.
type HarnessOptions struct {
	ConfigFile     *string
	Help           *bool
	VertexShader   *string
	FragmentShader *string
	Width          *int
	Height         *int
	Title          *string
	VSync          *bool
	Dialect        *string // Source dialect to translate from; empty disables translation.
	InvertKey      *string
	Filter         *string
	Wrap           *string
	KeepAspect     *bool
	Watch          *bool // Rebuild the shader program when a source file changes.
	Headless       *bool // Render into an EGL pbuffer instead of a window (linux only).
	Frames         *int  // Stop after this many frames; 0 runs until the window closes.
	Record         *string
	RecordFPS      *int
	FFMPEGPath     *string

	// given names the settings set on the command line or in the config file.
	given map[string]bool
}

// Default shader sources, and the GLSL ES 3.00 variants used when the
// context is GLES or the sources are translated from WebGL2.
const (
	DefaultVertexShader     = "shaders/vertex_shader.vs"
	DefaultFragmentShader   = "shaders/fragment_shader.fs"
	DefaultESVertexShader   = "shaders/es/vertex_shader.vs"
	DefaultESFragmentShader = "shaders/es/fragment_shader.fs"
)

// Register defines the harness flags on fs.
func Register(fs *flag.FlagSet) *HarnessOptions {
	return &HarnessOptions{
		ConfigFile:     fs.String("config", "", "TOML file with default settings; flags override it"),
		Help:           fs.Bool("help", false, "Show help message"),
		VertexShader:   fs.String("vertex", DefaultVertexShader, "Vertex shader source file"),
		FragmentShader: fs.String("fragment", DefaultFragmentShader, "Fragment shader source file"),
		Width:          fs.Int("width", 640, "Window width"),
		Height:         fs.Int("height", 480, "Window height"),
		Title:          fs.String("title", "texflip", "Initial window title"),
		VSync:          fs.Bool("vsync", false, "Wait for vertical sync on present"),
		Dialect:        fs.String("dialect", "", "Translate shaders from this dialect before compiling (webgl2)"),
		InvertKey:      fs.String("invert-key", "space", "Key that inverts the texture colors"),
		Filter:         fs.String("filter", "nearest", "Texture filter (nearest, linear)"),
		Wrap:           fs.String("wrap", "repeat", "Texture wrap mode (repeat, clamp)"),
		KeepAspect:     fs.Bool("keep-aspect", false, "Letterbox the quad to keep the texture square"),
		Watch:          fs.Bool("watch", false, "Rebuild the shaders when their files change"),
		Headless:       fs.Bool("headless", false, "Render offscreen through EGL (linux only)"),
		Frames:         fs.Int("frames", 0, "Number of frames to render; 0 renders until the window closes"),
		Record:         fs.String("record", "", "Capture every frame to this video file through ffmpeg"),
		RecordFPS:      fs.Int("record-fps", 60, "Frame rate written to the recording"),
		FFMPEGPath:     fs.String("ffmpeg", "", "Path to ffmpeg executable"),
	}
}

// fileOptions mirrors HarnessOptions for the config file. Keys match the
// flag names.
type fileOptions struct {
	VertexShader   *string `toml:"vertex"`
	FragmentShader *string `toml:"fragment"`
	Width          *int    `toml:"width"`
	Height         *int    `toml:"height"`
	Title          *string `toml:"title"`
	VSync          *bool   `toml:"vsync"`
	Dialect        *string `toml:"dialect"`
	InvertKey      *string `toml:"invert-key"`
	Filter         *string `toml:"filter"`
	Wrap           *string `toml:"wrap"`
	KeepAspect     *bool   `toml:"keep-aspect"`
	Watch          *bool   `toml:"watch"`
	Headless       *bool   `toml:"headless"`
	Frames         *int    `toml:"frames"`
	Record         *string `toml:"record"`
	RecordFPS      *int    `toml:"record-fps"`
	FFMPEGPath     *string `toml:"ffmpeg"`
}

func applyString(explicit map[string]bool, name string, dst *string, src *string) {
	if src != nil && !explicit[name] {
		*dst = *src
	}
}

func applyInt(explicit map[string]bool, name string, dst *int, src *int) {
	if src != nil && !explicit[name] {
		*dst = *src
	}
}

func applyBool(explicit map[string]bool, name string, dst *bool, src *bool) {
	if src != nil && !explicit[name] {
		*dst = *src
	}
}

// ApplyConfig decodes a TOML document and copies every value it sets into o,
// except for the flags named in explicit. Unknown keys are an error.
func (o *HarnessOptions) ApplyConfig(data []byte, explicit map[string]bool) error {
	var f fileOptions
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("invalid config: %s", strict.String())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	applyString(explicit, "vertex", o.VertexShader, f.VertexShader)
	applyString(explicit, "fragment", o.FragmentShader, f.FragmentShader)
	if f.VertexShader != nil {
		o.markGiven("vertex")
	}
	if f.FragmentShader != nil {
		o.markGiven("fragment")
	}
	applyInt(explicit, "width", o.Width, f.Width)
	applyInt(explicit, "height", o.Height, f.Height)
	applyString(explicit, "title", o.Title, f.Title)
	applyBool(explicit, "vsync", o.VSync, f.VSync)
	applyString(explicit, "dialect", o.Dialect, f.Dialect)
	applyString(explicit, "invert-key", o.InvertKey, f.InvertKey)
	applyString(explicit, "filter", o.Filter, f.Filter)
	applyString(explicit, "wrap", o.Wrap, f.Wrap)
	applyBool(explicit, "keep-aspect", o.KeepAspect, f.KeepAspect)
	applyBool(explicit, "watch", o.Watch, f.Watch)
	applyBool(explicit, "headless", o.Headless, f.Headless)
	applyInt(explicit, "frames", o.Frames, f.Frames)
	applyString(explicit, "record", o.Record, f.Record)
	applyInt(explicit, "record-fps", o.RecordFPS, f.RecordFPS)
	applyString(explicit, "ffmpeg", o.FFMPEGPath, f.FFMPEGPath)
	return nil
}

// Validate checks values that no later stage would reject on its own.
func (o *HarnessOptions) Validate() error {
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", *o.Width, *o.Height)
	}
	if *o.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", *o.Frames)
	}
	if *o.RecordFPS <= 0 {
		return fmt.Errorf("record-fps must be positive, got %d", *o.RecordFPS)
	}
	if *o.Headless && *o.Frames == 0 {
		return errors.New("headless rendering needs -frames, there is no window to close")
	}
	return nil
}

// Parse registers the flags on fs, parses args, merges the config file if
// one was given, and validates the result.
func Parse(fs *flag.FlagSet, args []string) (*HarnessOptions, error) {
	o := Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *o.Help {
		return o, nil
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
		o.markGiven(f.Name)
	})

	if *o.ConfigFile != "" {
		data, err := os.ReadFile(*o.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := o.ApplyConfig(data, explicit); err != nil {
			return nil, fmt.Errorf("%s: %w", *o.ConfigFile, err)
		}
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *HarnessOptions) markGiven(name string) {
	if o.given == nil {
		o.given = make(map[string]bool)
	}
	o.given[name] = true
}

// ShaderPaths returns the shader files to build. Paths nobody set, on the
// command line or in the config file, switch to the ES variants when es is
// set.
func (o *HarnessOptions) ShaderPaths(es bool) (vertex, fragment string) {
	vertex, fragment = *o.VertexShader, *o.FragmentShader
	if !es {
		return vertex, fragment
	}
	if !o.given["vertex"] {
		vertex = DefaultESVertexShader
	}
	if !o.given["fragment"] {
		fragment = DefaultESFragmentShader
	}
	return vertex, fragment
}
