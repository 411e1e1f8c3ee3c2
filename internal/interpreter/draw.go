package interpreter

import (
	"github.com/retroenv/chip8vm/internal/cpu"
	"github.com/retroenv/chip8vm/internal/display"
	"github.com/retroenv/chip8vm/internal/memory"
)

// spriteWidth is the number of pixels per sprite row, one per bit.
const spriteWidth = 8

// Dxyn - DRW Vx, Vy, nibble
// Draws n rows of the sprite at I, XORed onto the framebuffer starting at
// (Vx mod 64, Vy mod 32). Pixels wrap around the screen edges. VF is set to 1
// if any set pixel was turned off, otherwise 0. Rows outside of memory are
// not drawn.
func draw(ip *Interpreter, ins instruction) error {
	s := ip.cpu
	x0 := int(s.V[ins.x]) % display.Width
	y0 := int(s.V[ins.y]) % display.Height
	s.V[cpu.FlagRegister] = 0

	for row := range int(ins.n) {
		address := int(s.I) + row
		if address >= memory.Size {
			continue
		}

		sprite := ip.memory.Read(address)
		for col := range spriteWidth {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			if ip.screen.Flip(x0+col, y0+row) {
				s.V[cpu.FlagRegister] = 1
			}
		}
	}

	ip.screen.RequestRedraw()
	ip.next()
	return nil
}
