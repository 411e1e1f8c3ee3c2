// Package machine composes the CHIP-8 components into a single virtual
// machine instance.
//
// A Machine exclusively owns its address space, processor state, framebuffer
// and key state. All methods are safe for concurrent use, every call is
// executed atomically with respect to all other calls.
package machine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/retroenv/chip8vm/internal/cpu"
	"github.com/retroenv/chip8vm/internal/display"
	"github.com/retroenv/chip8vm/internal/interpreter"
	"github.com/retroenv/chip8vm/internal/keypad"
	"github.com/retroenv/chip8vm/internal/memory"
	"github.com/retroenv/retrogolib/log"
)

// Diagnostics counts the non-fatal faults that occurred since the last
// initialization.
type Diagnostics struct {
	Cycles          uint64
	StackOverflows  uint64
	StackUnderflows uint64
}

// Option configures a Machine.
type Option func(*config)

type config struct {
	random interpreter.RandomSource
	trace  bool
}

// WithRandomSource sets the source used by the RND instruction.
func WithRandomSource(random interpreter.RandomSource) Option {
	return func(c *config) {
		c.random = random
	}
}

// WithSeed makes the RND instruction deterministic for the given seed.
func WithSeed(seed uint64) Option {
	return WithRandomSource(interpreter.NewRandomSource(seed))
}

// WithTrace enables debug logging of every executed instruction.
func WithTrace(enabled bool) Option {
	return func(c *config) {
		c.trace = enabled
	}
}

// Machine is a single CHIP-8 virtual machine.
type Machine struct {
	mu sync.Mutex

	logger      *log.Logger
	memory      *memory.AddressSpace
	cpu         *cpu.State
	screen      *display.Framebuffer
	keys        *keypad.State
	interpreter *interpreter.Interpreter
	diagnostics Diagnostics
}

// New returns a new initialized machine without a loaded program.
func New(logger *log.Logger, options ...Option) *Machine {
	var cfg config
	for _, option := range options {
		option(&cfg)
	}

	m := &Machine{
		logger: logger,
		memory: memory.New(),
		cpu:    &cpu.State{},
		screen: display.New(),
		keys:   &keypad.State{},
	}
	m.interpreter = interpreter.New(logger, m.memory, m.cpu, m.screen, m.keys, cfg.random)
	m.interpreter.SetTrace(cfg.trace)

	m.Initialize()
	return m
}

// Initialize resets the machine to its power-on state: memory is zeroed and
// the font is loaded, the processor is reset, the screen and all keys are
// cleared.
func (m *Machine) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.memory.Reset()
	m.memory.LoadFont()
	m.cpu.Reset()
	m.screen.Reset()
	m.keys.Reset()
	m.diagnostics = Diagnostics{}
}

// LoadProgram copies the program image to the program start address.
func (m *Machine) LoadProgram(program []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.memory.LoadProgram(program); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	m.logger.Debug("Program loaded",
		log.Int("size", len(program)),
		log.Hex("start", uint16(memory.ProgramStart)))
	return nil
}

// SetKey sets the pressed state of a key. Indexes outside of 0-15 are ignored.
func (m *Machine) SetKey(index int, pressed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys.Set(index, pressed)
}

// StepCycle executes a single instruction. Stack faults are returned as
// errors but leave the machine in a consistent state, the next cycle can be
// executed regardless.
func (m *Machine) StepCycle() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pc := m.cpu.PC
	err := m.interpreter.Step()
	m.diagnostics.Cycles++
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, interpreter.ErrStackOverflow):
		m.diagnostics.StackOverflows++
	case errors.Is(err, interpreter.ErrStackUnderflow):
		m.diagnostics.StackUnderflows++
	}

	m.logger.Warn("Instruction fault",
		log.Hex("pc", pc),
		log.Uint8("sp", m.cpu.SP),
		log.Err(err))
	return err
}

// TickTimers decrements the delay and sound timers. It has to be called at
// 60 Hz independent of the instruction rate.
func (m *Machine) TickTimers() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cpu.TickTimers()
}

// Frame returns a snapshot of the framebuffer and whether it changed since
// the last call. The redraw flag is cleared.
func (m *Machine) Frame() (display.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	redraw := m.screen.Redraw()
	m.screen.ClearRedraw()
	return m.screen.Frame(), redraw
}

// SoundActive returns whether the tone should currently be played.
func (m *Machine) SoundActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cpu.SoundTimer > 0
}

// State returns a copy of the processor state.
func (m *Machine) State() cpu.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return *m.cpu
}

// Diagnostics returns the fault counters.
func (m *Machine) Diagnostics() Diagnostics {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.diagnostics
}
