// Package encoder records rendered frames to a video file by piping raw RGB
// frames into an ffmpeg process.
package encoder

import (
	"fmt"
	"io"
	"log"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Frame is one captured frame: tightly packed RGB rows, bottom row first, as
// returned by glReadPixels.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// Config describes the recording.
type Config struct {
	OutputFile string
	Width      int
	Height     int
	FPS        int
	// FFMPEGPath overrides the ffmpeg binary looked up in PATH.
	FFMPEGPath string
}

// FrameSize is the byte length of one frame.
func (c Config) FrameSize() int {
	return c.Width * c.Height * 3
}

func (c Config) validate() error {
	if c.OutputFile == "" {
		return fmt.Errorf("no output file")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", c.FPS)
	}
	return nil
}

// getArgs returns the ffmpeg input and output keyword arguments.
func (c Config) getArgs() (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgb24",
		"s":         fmt.Sprintf("%dx%d", c.Width, c.Height),
		"framerate": strconv.Itoa(c.FPS),
	}
	outputArgs = ffmpeg.KwArgs{
		// GL rows arrive bottom-up.
		"vf":      "vflip",
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
	}
	return inputArgs, outputArgs
}

// stream builds the ffmpeg command reading frames from r.
func (c Config) stream(r io.Reader) *ffmpeg.Stream {
	inputArgs, outputArgs := c.getArgs()
	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(c.OutputFile, outputArgs).
		OverWriteOutput().WithInput(r).ErrorToStdOut()
	if c.FFMPEGPath != "" {
		cmd = cmd.SetFfmpegPath(c.FFMPEGPath)
	}
	return cmd
}

// FFmpegEncoder feeds frames to ffmpeg from its own goroutine. SendVideo and
// Close are called from the render loop; the encoder never touches GPU state.
type FFmpegEncoder struct {
	cfg    Config
	frames chan *Frame
	done   chan error
	sinkc  chan error
	pipe   *io.PipeWriter

	written int64
	dropped int64
}

// NewFFmpegEncoder starts ffmpeg and the frame consumer.
func NewFFmpegEncoder(cfg Config) (*FFmpegEncoder, error) {
	return newEncoder(cfg, func(r io.Reader) error {
		return cfg.stream(r).Run()
	})
}

// newEncoder starts sink on the read end of the frame pipe.
func newEncoder(cfg Config, sink func(r io.Reader) error) (*FFmpegEncoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}

	pipeReader, pipeWriter := io.Pipe()
	e := &FFmpegEncoder{
		cfg:    cfg,
		frames: make(chan *Frame, 5),
		done:   make(chan error, 1),
		sinkc:  make(chan error, 1),
		pipe:   pipeWriter,
	}

	go func() {
		err := sink(pipeReader)
		// Unblock the writer if ffmpeg exits before the input ends.
		if err != nil {
			pipeReader.CloseWithError(err)
		} else {
			pipeReader.Close()
		}
		e.sinkc <- err
	}()
	go e.run()

	log.Printf("Recording %dx%d @ %d fps to %s", cfg.Width, cfg.Height, cfg.FPS, cfg.OutputFile)
	return e, nil
}

func (e *FFmpegEncoder) run() {
	var writeErr error
	for frame := range e.frames {
		if writeErr != nil {
			e.dropped++
			continue
		}
		if len(frame.Pixels) != e.cfg.FrameSize() {
			log.Printf("Dropping frame %d: got %d bytes, want %d", frame.PTS, len(frame.Pixels), e.cfg.FrameSize())
			e.dropped++
			continue
		}
		if _, err := e.pipe.Write(frame.Pixels); err != nil {
			log.Printf("Error writing frame %d to ffmpeg: %v", frame.PTS, err)
			writeErr = err
			e.dropped++
			continue
		}
		e.written++
	}
	e.pipe.Close()

	if err := <-e.sinkc; err != nil {
		e.done <- fmt.Errorf("ffmpeg: %w", err)
		return
	}
	e.done <- writeErr
}

// SendVideo queues a frame. The caller must not reuse frame.Pixels.
func (e *FFmpegEncoder) SendVideo(frame *Frame) {
	e.frames <- frame
}

// Close flushes queued frames, waits for ffmpeg to exit and reports the
// first error seen.
func (e *FFmpegEncoder) Close() error {
	close(e.frames)
	err := <-e.done
	log.Printf("Recording finished: %d frames written, %d dropped", e.written, e.dropped)
	return err
}
