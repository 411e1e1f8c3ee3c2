// Package memory provides the CHIP-8 address space.
package memory

import (
	"errors"
	"fmt"
)

// CHIP-8 memory map (4KB total):
//
//	0x000-0x1FF: Interpreter area, font set at FontBase
//	0x200-0xFFF: Program image
const (
	// Size is the number of addressable bytes.
	Size = 0x1000

	// ProgramStart is the address the program image is loaded to and where execution begins.
	ProgramStart = 0x200

	// MaxProgramSize is the largest program image that fits into memory.
	MaxProgramSize = Size - ProgramStart
)

var (
	// ErrEmptyRom is returned when loading a program image without any bytes.
	ErrEmptyRom = errors.New("empty rom")
	// ErrRomTooLarge is returned when a program image does not fit between ProgramStart and the end of memory.
	ErrRomTooLarge = errors.New("rom too large")
)

// AddressSpace is a flat 4KB byte store. Accesses outside of it never fail,
// reads return 0 and writes are dropped.
type AddressSpace struct {
	data [Size]byte
}

// New returns a zeroed address space.
func New() *AddressSpace {
	return &AddressSpace{}
}

// Reset zeroes the whole address space.
func (m *AddressSpace) Reset() {
	m.data = [Size]byte{}
}

// Read returns the byte at the given address or 0 if the address is out of range.
func (m *AddressSpace) Read(address int) byte {
	if address < 0 || address >= Size {
		return 0
	}
	return m.data[address]
}

// Write sets the byte at the given address, out of range writes are ignored.
func (m *AddressSpace) Write(address int, value byte) {
	if address < 0 || address >= Size {
		return
	}
	m.data[address] = value
}

// LoadProgram copies the program image to ProgramStart.
// All other addresses keep their current content.
func (m *AddressSpace) LoadProgram(program []byte) error {
	if len(program) == 0 {
		return ErrEmptyRom
	}
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes exceed the %d bytes available at $%03X",
			ErrRomTooLarge, len(program), MaxProgramSize, ProgramStart)
	}

	copy(m.data[ProgramStart:], program)
	return nil
}
