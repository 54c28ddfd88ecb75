// Package texture owns an RGB pixel buffer and its GPU copy.
package texture

import (
	"fmt"

	"github.com/richinsley/texflip/gpu"
)

const bytesPerTexel = 3

// Palette dimensions.
const (
	PaletteWidth  = 4
	PaletteHeight = 4
)

// Palette is the seed image: sixteen Material colors, row by row.
var Palette = [PaletteWidth * PaletteHeight * bytesPerTexel]byte{
	255, 152, 0, // orange
	156, 39, 176, // purple
	3, 169, 244, // light blue
	139, 195, 74, // light green

	255, 87, 34, // deep orange
	103, 58, 183, // deep purple
	0, 188, 212, // cyan
	205, 220, 57, // lime

	244, 67, 54, // red
	63, 81, 181, // indigo
	0, 150, 137, // teal
	255, 235, 59, // yellow

	233, 30, 99, // pink
	33, 150, 243, // blue
	76, 175, 80, // green
	255, 193, 7, // amber
}

// DefaultParams samples texels as hard-edged blocks that tile.
var DefaultParams = gpu.TextureParams{
	MinFilter: gpu.FilterNearest,
	MagFilter: gpu.FilterNearest,
	WrapS:     gpu.WrapRepeat,
	WrapT:     gpu.WrapRepeat,
}

// ParseFilter converts a filter name ("nearest", "linear") to a gpu.Filter.
func ParseFilter(name string) (gpu.Filter, error) {
	switch name {
	case "", "nearest":
		return gpu.FilterNearest, nil
	case "linear":
		return gpu.FilterLinear, nil
	default:
		return 0, fmt.Errorf("unknown texture filter %q", name)
	}
}

// ParseWrap converts a wrap name ("repeat", "clamp") to a gpu.Wrap.
func ParseWrap(name string) (gpu.Wrap, error) {
	switch name {
	case "", "repeat":
		return gpu.WrapRepeat, nil
	case "clamp":
		return gpu.WrapClamp, nil
	default:
		return 0, fmt.Errorf("unknown texture wrap mode %q", name)
	}
}

// Texture is a fixed-size RGB texture bound to unit 0. The local buffer and
// the GPU copy hold the same bytes whenever no method is running.
type Texture struct {
	Width  int
	Height int
	Handle uint32

	dev    gpu.Device
	pixels []byte
}

// Create uploads a copy of pixels, which must hold width*height RGB texels.
func Create(dev gpu.Device, width, height int, pixels []byte, params gpu.TextureParams) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if want := width * height * bytesPerTexel; len(pixels) != want {
		return nil, fmt.Errorf("texture %dx%d needs %d bytes, got %d", width, height, want, len(pixels))
	}

	t := &Texture{
		Width:  width,
		Height: height,
		dev:    dev,
		pixels: append([]byte(nil), pixels...),
	}

	t.Handle = dev.CreateTexture()
	dev.ActiveTexture(0)
	dev.BindTexture(t.Handle)
	dev.TextureParameters(params)
	dev.TexImage2D(int32(width), int32(height), t.pixels)
	return t, nil
}

// Bind binds the texture to unit 0.
func (t *Texture) Bind() {
	t.dev.ActiveTexture(0)
	t.dev.BindTexture(t.Handle)
}

// Invert replaces every byte b with 255-b across the whole buffer and pushes
// the result to the GPU before returning.
func (t *Texture) Invert() {
	for i, b := range t.pixels {
		t.pixels[i] = 255 - b
	}
	t.Bind()
	t.dev.TexSubImage2D(0, 0, int32(t.Width), int32(t.Height), t.pixels)
}

// Pixels returns a copy of the local buffer.
func (t *Texture) Pixels() []byte {
	return append([]byte(nil), t.pixels...)
}

// Destroy releases the GPU texture.
func (t *Texture) Destroy() {
	if t.Handle == 0 {
		return
	}
	t.dev.DeleteTexture(t.Handle)
	t.Handle = 0
}
