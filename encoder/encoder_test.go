package encoder

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{OutputFile: "out.mp4", Width: 4, Height: 2, FPS: 30}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, testConfig().validate())

	bad := testConfig()
	bad.OutputFile = ""
	assert.Error(t, bad.validate())

	bad = testConfig()
	bad.Height = 0
	assert.Error(t, bad.validate())

	bad = testConfig()
	bad.FPS = -1
	assert.Error(t, bad.validate())
}

func TestStreamArgs(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 640, 480
	args := cfg.stream(&bytes.Buffer{}).GetArgs()

	assert.Contains(t, args, "rawvideo")
	assert.Contains(t, args, "rgb24")
	assert.Contains(t, args, "640x480")
	assert.Contains(t, args, "pipe:")
	assert.Contains(t, args, "vflip")
	assert.Contains(t, args, "-y")
	assert.Contains(t, args, "out.mp4")
}

func TestEncoderWritesFrames(t *testing.T) {
	cfg := testConfig()
	var got bytes.Buffer
	e, err := newEncoder(cfg, func(r io.Reader) error {
		_, err := io.Copy(&got, r)
		return err
	})
	require.NoError(t, err)

	first := bytes.Repeat([]byte{1}, cfg.FrameSize())
	second := bytes.Repeat([]byte{2}, cfg.FrameSize())
	e.SendVideo(&Frame{Pixels: first, PTS: 0})
	e.SendVideo(&Frame{Pixels: []byte{9, 9}, PTS: 1})
	e.SendVideo(&Frame{Pixels: second, PTS: 2})
	require.NoError(t, e.Close())

	assert.Equal(t, append(append([]byte{}, first...), second...), got.Bytes())
	assert.Equal(t, int64(2), e.written)
	assert.Equal(t, int64(1), e.dropped, "short frame is dropped")
}

func TestEncoderSinkFailure(t *testing.T) {
	cfg := testConfig()
	failure := errors.New("exit status 1")
	e, err := newEncoder(cfg, func(r io.Reader) error {
		return failure
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		e.SendVideo(&Frame{Pixels: make([]byte, cfg.FrameSize()), PTS: int64(i)})
	}
	err = e.Close()
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, int64(0), e.written)
}

func TestNewEncoderRejectsBadConfig(t *testing.T) {
	_, err := NewFFmpegEncoder(Config{})
	assert.Error(t, err)
}
