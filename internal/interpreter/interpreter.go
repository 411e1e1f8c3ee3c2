// Package interpreter implements the CHIP-8 fetch-decode-execute cycle.
//
// Each call to Step executes exactly one instruction against the address
// space, processor state, framebuffer and key state it was created with.
// Opcodes that are not part of the instruction set are skipped, the
// interpreter always makes forward progress.
package interpreter

import (
	"errors"
	"math/rand/v2"

	"github.com/retroenv/chip8vm/internal/cpu"
	"github.com/retroenv/chip8vm/internal/disasm"
	"github.com/retroenv/chip8vm/internal/display"
	"github.com/retroenv/chip8vm/internal/keypad"
	"github.com/retroenv/chip8vm/internal/memory"
	"github.com/retroenv/retrogolib/log"
)

var (
	// ErrStackOverflow is returned when a subroutine call does not fit on the stack.
	// The call is dropped and execution continues with the next instruction.
	ErrStackOverflow = errors.New("stack overflow")
	// ErrStackUnderflow is returned for a return without a matching call.
	// Execution continues with the next instruction.
	ErrStackUnderflow = errors.New("stack underflow")
)

// RandomSource returns uniformly distributed random bytes.
type RandomSource func() byte

// NewRandomSource returns a deterministic random source for the given seed.
func NewRandomSource(seed uint64) RandomSource {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	return func() byte {
		return byte(rng.UintN(256))
	}
}

// defaultRandom is backed by the automatically seeded global generator.
func defaultRandom() byte {
	return byte(rand.UintN(256))
}

// Interpreter executes CHIP-8 instructions.
type Interpreter struct {
	logger *log.Logger
	memory *memory.AddressSpace
	cpu    *cpu.State
	screen *display.Framebuffer
	keys   *keypad.State
	random RandomSource
	trace  bool
}

// New returns a new interpreter operating on the given components.
// A nil random source uses a time seeded generator.
func New(logger *log.Logger, mem *memory.AddressSpace, state *cpu.State,
	screen *display.Framebuffer, keys *keypad.State, random RandomSource) *Interpreter {

	if random == nil {
		random = defaultRandom
	}
	return &Interpreter{
		logger: logger,
		memory: mem,
		cpu:    state,
		screen: screen,
		keys:   keys,
		random: random,
	}
}

// SetTrace enables logging of every executed instruction at debug level.
func (ip *Interpreter) SetTrace(enabled bool) {
	ip.trace = enabled
}

// Step fetches, decodes and executes a single instruction. The returned error
// is either nil, ErrStackOverflow or ErrStackUnderflow. In all cases the
// instruction has been committed and the next Step can be executed.
func (ip *Interpreter) Step() error {
	pc := ip.cpu.PC
	opcode := uint16(ip.memory.Read(int(pc)))<<8 | uint16(ip.memory.Read(int(pc)+1))
	ins := decode(opcode)

	if ip.trace {
		ip.logger.Debug("Executing instruction",
			log.Hex("pc", pc),
			log.Hex("opcode", opcode),
			log.String("code", disasm.Format(opcode)))
	}

	return families[ins.opcode>>12](ip, ins)
}

// next advances the program counter to the following instruction.
func (ip *Interpreter) next() {
	ip.cpu.PC += disasm.OpcodeSize
}

// skipIf advances the program counter over the following instruction if the
// condition is true, otherwise to the following instruction.
func (ip *Interpreter) skipIf(condition bool) {
	if condition {
		ip.cpu.PC += 2 * disasm.OpcodeSize
		return
	}
	ip.cpu.PC += disasm.OpcodeSize
}
