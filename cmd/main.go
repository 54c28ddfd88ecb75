package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/richinsley/texflip/encoder"
	"github.com/richinsley/texflip/glfwcontext"
	"github.com/richinsley/texflip/gpu"
	"github.com/richinsley/texflip/graphics"
	"github.com/richinsley/texflip/headless"
	"github.com/richinsley/texflip/loader"
	"github.com/richinsley/texflip/opengl"
	"github.com/richinsley/texflip/options"
	"github.com/richinsley/texflip/renderer"
	"github.com/richinsley/texflip/texture"
	"github.com/richinsley/texflip/translator"
	"github.com/richinsley/texflip/watcher"
)

// Process exit codes.
const (
	exitUsage       = 2
	exitWindowInit  = -1
	exitWindow      = -2
	exitGLLoad      = -3
	exitShaderBuild = -4
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

// settings are the option values that need parsing beyond the flag package.
type settings struct {
	invertKey graphics.Key
	params    gpu.TextureParams
}

func parseSettings(o *options.HarnessOptions) (settings, error) {
	var s settings
	var err error
	if s.invertKey, err = graphics.ParseKey(*o.InvertKey); err != nil {
		return s, err
	}
	filter, err := texture.ParseFilter(*o.Filter)
	if err != nil {
		return s, err
	}
	wrap, err := texture.ParseWrap(*o.Wrap)
	if err != nil {
		return s, err
	}
	s.params = gpu.TextureParams{MinFilter: filter, MagFilter: filter, WrapS: wrap, WrapT: wrap}
	if err := translator.Validate(*o.Dialect); err != nil {
		return s, err
	}
	return s, nil
}

// openContext creates the window, or the pbuffer in headless mode, and makes
// it current. The returned cleanup tears down whatever was created.
func openContext(o *options.HarnessOptions) (graphics.Context, func(), int, error) {
	if *o.Headless {
		h, err := headless.NewHeadless(*o.Width, *o.Height)
		if err != nil {
			return nil, nil, exitWindow, err
		}
		return h, h.Shutdown, 0, nil
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return nil, nil, exitWindowInit, err
	}
	win, err := glfwcontext.New(o)
	if err != nil {
		glfwcontext.TerminateGraphics()
		return nil, nil, exitWindow, err
	}
	win.MakeCurrent()
	swap := 0
	if *o.VSync {
		swap = 1
	}
	win.SetSwapInterval(swap)
	return win, func() {
		win.Shutdown()
		glfwcontext.TerminateGraphics()
	}, 0, nil
}

func run(o *options.HarnessOptions) int {
	s, err := parseSettings(o)
	if err != nil {
		log.Printf("Error: %v", err)
		return exitUsage
	}

	ctx, closeContext, code, err := openContext(o)
	if err != nil {
		log.Printf("Error: %v", err)
		return code
	}
	defer closeContext()

	if err := opengl.Init(); err != nil {
		log.Printf("Error: %v", err)
		return exitGLLoad
	}
	log.Printf("OpenGL version: %s", opengl.Version())
	dev := opengl.New()

	vertexPath, fragmentPath := o.ShaderPaths(ctx.IsGLES() || *o.Dialect != translator.DialectNone)
	shaderFS, names, err := loader.Resolve(vertexPath, fragmentPath)
	if err != nil {
		log.Printf("Error: %v", err)
		return exitShaderBuild
	}
	cfg := renderer.Config{
		VertexShader:   names[0],
		FragmentShader: names[1],
		InvertKey:      s.invertKey,
		TextureParams:  s.params,
		KeepAspect:     *o.KeepAspect,
		MaxFrames:      *o.Frames,
	}

	tr, err := translator.New(context.Background(), *o.Dialect, ctx.IsGLES())
	if err != nil {
		log.Printf("Error: %v", err)
		return exitShaderBuild
	}
	if tr != nil {
		cfg.Translator = tr
	}

	if *o.Record != "" {
		width, height := ctx.GetFramebufferSize()
		enc, err := encoder.NewFFmpegEncoder(encoder.Config{
			OutputFile: *o.Record,
			Width:      width,
			Height:     height,
			FPS:        *o.RecordFPS,
			FFMPEGPath: *o.FFMPEGPath,
		})
		if err != nil {
			log.Printf("Error: recording disabled: %v", err)
		} else {
			cfg.Recorder = enc
			cfg.CaptureWidth, cfg.CaptureHeight = width, height
		}
	}

	if *o.Watch {
		w, err := watcher.New(vertexPath, fragmentPath)
		if err != nil {
			log.Printf("Error: shader reload disabled: %v", err)
		} else {
			defer w.Close()
			cfg.Reload = w.Changed()
		}
	}

	r := renderer.New(ctx, dev, cfg)
	if err := r.Init(shaderFS); err != nil {
		log.Printf("Error: %v", err)
		r.Shutdown()
		return exitShaderBuild
	}

	log.Println("Starting render loop...")
	r.Run()
	return 0
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	o, err := options.Parse(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	if *o.Help {
		fmt.Println("texflip: render a texture and invert it on a key press")
		fs.PrintDefaults()
		return
	}

	os.Exit(run(o))
}
