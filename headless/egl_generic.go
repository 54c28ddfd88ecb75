//go:build !linux

package headless

import (
	"fmt"

	"github.com/richinsley/texflip/graphics"
)

// NewHeadless is only available on linux.
func NewHeadless(width, height int) (graphics.Context, error) {
	return nil, fmt.Errorf("egl headless rendering is not supported on this platform")
}
