package runner

import (
	"fmt"
	"io"

	"github.com/retroenv/chip8vm/internal/display"
)

// TextDisplay keeps the last rendered frame and writes it as text on Flush.
// It is used for headless runs.
type TextDisplay struct {
	writer io.Writer
	frame  display.Frame
	frames int
	sounds int
}

// NewTextDisplay returns a display that writes to the given writer.
func NewTextDisplay(writer io.Writer) *TextDisplay {
	return &TextDisplay{writer: writer}
}

// Render stores the frame.
func (d *TextDisplay) Render(frame display.Frame) {
	d.frame = frame
	d.frames++
}

// Sound counts the number of times the tone was switched on.
func (d *TextDisplay) Sound(active bool) {
	if active {
		d.sounds++
	}
}

// Flush writes the last rendered frame followed by a summary line.
func (d *TextDisplay) Flush() error {
	if _, err := io.WriteString(d.writer, d.frame.String()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	if _, err := fmt.Fprintf(d.writer, "; %d frames rendered, tone started %d times\n", d.frames, d.sounds); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
