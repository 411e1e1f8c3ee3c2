// Package display contains the CHIP-8 monochrome framebuffer.
package display

import "strings"

const (
	// Width is the number of horizontal pixels.
	Width = 64
	// Height is the number of vertical pixels.
	Height = 32
)

// Frame is a snapshot of all pixels, row major, each pixel is 0 or 1.
type Frame [Width * Height]byte

// Pixel returns whether the pixel at x, y is set. Coordinates wrap around.
func (f *Frame) Pixel(x, y int) bool {
	return f[index(x, y)] != 0
}

// String renders the frame as text, one line per row.
func (f *Frame) String() string {
	var b strings.Builder
	b.Grow((Width + 1) * Height)

	for y := range Height {
		for x := range Width {
			if f.Pixel(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Framebuffer holds the pixels and the redraw flag. The flag is set whenever
// the pixels change and has to be cleared by the consumer of a frame.
type Framebuffer struct {
	pixels Frame
	redraw bool
}

// New returns a cleared framebuffer.
func New() *Framebuffer {
	return &Framebuffer{}
}

// Reset clears all pixels and the redraw flag.
func (fb *Framebuffer) Reset() {
	fb.pixels = Frame{}
	fb.redraw = false
}

// Clear turns all pixels off and requests a redraw.
func (fb *Framebuffer) Clear() {
	fb.pixels = Frame{}
	fb.redraw = true
}

// Pixel returns whether the pixel at x, y is set. Coordinates wrap around.
func (fb *Framebuffer) Pixel(x, y int) bool {
	return fb.pixels.Pixel(x, y)
}

// Flip toggles the pixel at x, y and returns whether it was set before,
// which is a collision for the sprite being drawn. Coordinates wrap around.
func (fb *Framebuffer) Flip(x, y int) bool {
	i := index(x, y)
	collision := fb.pixels[i] != 0
	fb.pixels[i] ^= 1
	return collision
}

// RequestRedraw sets the redraw flag.
func (fb *Framebuffer) RequestRedraw() {
	fb.redraw = true
}

// Redraw returns whether the pixels changed since the flag was last cleared.
func (fb *Framebuffer) Redraw() bool {
	return fb.redraw
}

// ClearRedraw clears the redraw flag.
func (fb *Framebuffer) ClearRedraw() {
	fb.redraw = false
}

// Frame returns a copy of the current pixels.
func (fb *Framebuffer) Frame() Frame {
	return fb.pixels
}

func index(x, y int) int {
	x %= Width
	if x < 0 {
		x += Width
	}
	y %= Height
	if y < 0 {
		y += Height
	}
	return y*Width + x
}
