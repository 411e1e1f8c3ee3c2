// Package options contains the program options.
package options

import "time"

const (
	// DefaultCycles is the number of instructions executed per frame.
	DefaultCycles = 10
	// DefaultHz is the frame rate, the timers are decremented at the same rate.
	DefaultHz = 60
	// DefaultHeadlessFrames limits a headless run when no frame limit is given.
	DefaultHeadlessFrames = 600
)

// Parameters contains file path options. The ROM file can be passed with -i
// or as the last argument.
type Parameters struct {
	Input string `flag:"i" arg:"positional" usage:"name of the input ROM file"`
}

// Flags contains behavior options.
type Flags struct {
	System   string `flag:"s" usage:"system to emulate (chip8), auto-detected from the file extension if not set"`
	Cycles   int    `flag:"cycles" usage:"number of instructions executed per frame" default:"10"`
	Hz       int    `flag:"hz" usage:"frames per second, the timers are decremented at the same rate" default:"60"`
	Frames   int    `flag:"frames" usage:"stop after the given number of frames, 0 runs until interrupted (headless default 600)"`
	Seed     uint64 `flag:"seed" usage:"seed of the random number generator, 0 uses a random seed"`
	Headless bool   `flag:"headless" usage:"run without terminal output and print the final frame"`
	Disasm   bool   `flag:"disasm" usage:"print a disassembly listing of the ROM instead of running it"`
	Trace    bool   `flag:"trace" usage:"log every executed instruction, implies -debug"`
	Debug    bool   `flag:"debug" usage:"enable debugging options for extended logging"`
	Quiet    bool   `flag:"q" usage:"perform operations quietly"`
}

// Program options of the virtual machine.
type Program struct {
	Parameters
	Flags
}

// Emulation defines options to control the driving loop.
type Emulation struct {
	CyclesPerFrame int           // instructions executed per frame
	FrameDuration  time.Duration // time between two frames and timer ticks
	FrameLimit     int           // stop after this many frames, 0 for unlimited
	Seed           uint64        // random seed, 0 for a random seed
	Headless       bool
	Trace          bool
}

// NewEmulation returns a new options instance with default options.
func NewEmulation() Emulation {
	return Emulation{
		CyclesPerFrame: DefaultCycles,
		FrameDuration:  time.Second / DefaultHz,
	}
}
