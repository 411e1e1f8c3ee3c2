// Package cpu contains the CHIP-8 processor state.
package cpu

import (
	"fmt"
	"strings"

	"github.com/retroenv/chip8vm/internal/memory"
)

const (
	// RegisterCount is the number of general purpose registers V0-VF.
	RegisterCount = 16

	// StackDepth is the number of return addresses the call stack can hold.
	StackDepth = 16

	// FlagRegister is the index of VF, used for carry, borrow and collision flags.
	FlagRegister = 0xF
)

// State is the processor state. It is a passive value that is inspected and
// mutated by the interpreter, register arithmetic wraps at 8 bits.
type State struct {
	V  [RegisterCount]byte // general purpose registers
	I  uint16              // address register
	PC uint16              // program counter

	Stack [StackDepth]uint16 // return addresses
	SP    uint8              // number of used stack entries, 0-StackDepth

	DelayTimer byte
	SoundTimer byte
}

// Reset clears all registers, the stack and timers and points the program
// counter to the program start.
func (s *State) Reset() {
	*s = State{
		PC: memory.ProgramStart,
	}
}

// TickTimers decrements both timers by one, timers stop at 0.
func (s *State) TickTimers() {
	if s.DelayTimer > 0 {
		s.DelayTimer--
	}
	if s.SoundTimer > 0 {
		s.SoundTimer--
	}
}

// String returns a compact dump of the registers for debug output.
func (s State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PC=$%03X I=$%03X SP=%d DT=%d ST=%d", s.PC, s.I, s.SP, s.DelayTimer, s.SoundTimer)
	for i, v := range s.V {
		fmt.Fprintf(&b, " V%X=$%02X", i, v)
	}
	return b.String()
}
