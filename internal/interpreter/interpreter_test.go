package interpreter

import (
	"errors"
	"testing"

	"github.com/retroenv/chip8vm/internal/cpu"
	"github.com/retroenv/chip8vm/internal/display"
	"github.com/retroenv/chip8vm/internal/keypad"
	"github.com/retroenv/chip8vm/internal/memory"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

const testRandom = 0xAB

type fixture struct {
	ip     *Interpreter
	memory *memory.AddressSpace
	cpu    *cpu.State
	screen *display.Framebuffer
	keys   *keypad.State
}

func newFixture(t *testing.T, program ...byte) *fixture {
	t.Helper()

	f := &fixture{
		memory: memory.New(),
		cpu:    &cpu.State{},
		screen: display.New(),
		keys:   &keypad.State{},
	}
	f.memory.LoadFont()
	f.cpu.Reset()
	if len(program) > 0 {
		assert.NoError(t, f.memory.LoadProgram(program))
	}

	f.ip = New(log.NewTestLogger(t), f.memory, f.cpu, f.screen, f.keys, func() byte { return testRandom })
	return f
}

func (f *fixture) step(t *testing.T, count int) {
	t.Helper()
	for range count {
		assert.NoError(t, f.ip.Step())
	}
}

func (f *fixture) bytes(address, length int) []byte {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = f.memory.Read(address + i)
	}
	return buf
}

func TestDecode(t *testing.T) {
	ins := decode(0xD12F)
	assert.Equal(t, instruction{opcode: 0xD12F, x: 0x1, y: 0x2, n: 0xF, nn: 0x2F, nnn: 0x12F}, ins)
}

func TestStep_LoadAndAdd(t *testing.T) {
	f := newFixture(t, 0x60, 0x05, 0x70, 0x03)
	f.step(t, 2)

	assert.Equal(t, byte(8), f.cpu.V[0])
	assert.Equal(t, uint16(0x204), f.cpu.PC)
}

func TestStep_AddImmediateWraps(t *testing.T) {
	for x := range byte(cpu.RegisterCount) {
		f := newFixture(t,
			0x60|x, 0x2A, // LD Vx, $2A
			0x70|x, 0xC0, // ADD Vx, $C0
			0x70|x, 0x40, // ADD Vx, $40
		)
		f.step(t, 1)
		f.cpu.V[cpu.FlagRegister] = 0x55
		if x == cpu.FlagRegister {
			f.cpu.V[x] = 0x2A
		}

		f.step(t, 2)
		assert.Equal(t, byte(0x2A), f.cpu.V[x])
		if x != cpu.FlagRegister {
			assert.Equal(t, byte(0x55), f.cpu.V[cpu.FlagRegister])
		}
	}
}

func TestStep_AddRegisterWithCarry(t *testing.T) {
	tests := []struct {
		name      string
		program   []byte
		wantValue byte
		wantCarry byte
	}{
		{"without carry", []byte{0x6A, 0x02, 0x6B, 0x03, 0x8A, 0xB4}, 5, 0},
		{"with carry", []byte{0x6A, 0xFF, 0x6B, 0x02, 0x8A, 0xB4}, 1, 1},
		{"same register", []byte{0x6A, 0x80, 0x8A, 0xA4, 0x00, 0x00}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.program...)
			f.step(t, 3)
			assert.Equal(t, tt.wantValue, f.cpu.V[0xA])
			assert.Equal(t, tt.wantCarry, f.cpu.V[cpu.FlagRegister])
		})
	}
}

func TestStep_Arithmetic(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vx, vy byte
		wantVx byte
		wantVF byte
	}{
		{"load register", 0x8120, 0x11, 0x22, 0x22, 0x00},
		{"or", 0x8121, 0x0F, 0xF0, 0xFF, 0x00},
		{"and", 0x8122, 0x3C, 0x0F, 0x0C, 0x00},
		{"xor", 0x8123, 0xFF, 0x0F, 0xF0, 0x00},
		{"sub without borrow", 0x8125, 5, 3, 2, 1},
		{"sub equal", 0x8125, 4, 4, 0, 1},
		{"sub with borrow", 0x8125, 3, 5, 0xFE, 0},
		{"shr odd", 0x8126, 0x05, 0, 0x02, 1},
		{"shr even", 0x8126, 0x04, 0, 0x02, 0},
		{"subn without borrow", 0x8127, 3, 5, 2, 1},
		{"subn with borrow", 0x8127, 5, 3, 0xFE, 0},
		{"shl high bit", 0x812E, 0x81, 0, 0x02, 1},
		{"shl low bits", 0x812E, 0x41, 0, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, byte(tt.opcode>>8), byte(tt.opcode))
			f.cpu.V[1] = tt.vx
			f.cpu.V[2] = tt.vy

			f.step(t, 1)
			assert.Equal(t, tt.wantVx, f.cpu.V[1])
			assert.Equal(t, tt.wantVF, f.cpu.V[cpu.FlagRegister])
			assert.Equal(t, uint16(0x202), f.cpu.PC)
		})
	}
}

func TestStep_FlagWrittenBeforeResult(t *testing.T) {
	// with Vx = VF the flag is overwritten by the result
	f := newFixture(t, 0x8F, 0x15) // SUB VF, V1
	f.cpu.V[0xF] = 9
	f.cpu.V[1] = 4

	f.step(t, 1)
	assert.Equal(t, byte(0xFD), f.cpu.V[0xF])
}

func TestStep_Skips(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		setup  func(f *fixture)
		wantPC uint16
	}{
		{"se immediate equal", 0x3142, func(f *fixture) { f.cpu.V[1] = 0x42 }, 0x204},
		{"se immediate not equal", 0x3142, func(f *fixture) { f.cpu.V[1] = 0x41 }, 0x202},
		{"sne immediate equal", 0x4142, func(f *fixture) { f.cpu.V[1] = 0x42 }, 0x202},
		{"sne immediate not equal", 0x4142, func(f *fixture) { f.cpu.V[1] = 0x41 }, 0x204},
		{"se registers equal", 0x5120, func(f *fixture) { f.cpu.V[1], f.cpu.V[2] = 7, 7 }, 0x204},
		{"se registers not equal", 0x5120, func(f *fixture) { f.cpu.V[1], f.cpu.V[2] = 7, 8 }, 0x202},
		{"sne registers equal", 0x9120, func(f *fixture) { f.cpu.V[1], f.cpu.V[2] = 7, 7 }, 0x202},
		{"sne registers not equal", 0x9120, func(f *fixture) { f.cpu.V[1], f.cpu.V[2] = 7, 8 }, 0x204},
		{"skp pressed", 0xE19E, func(f *fixture) { f.cpu.V[1] = 0xA; f.keys.Set(0xA, true) }, 0x204},
		{"skp not pressed", 0xE19E, func(f *fixture) { f.cpu.V[1] = 0xA }, 0x202},
		{"skp key out of range", 0xE19E, func(f *fixture) { f.cpu.V[1] = 0x20; f.keys.Set(0, true) }, 0x202},
		{"sknp pressed", 0xE1A1, func(f *fixture) { f.cpu.V[1] = 0xA; f.keys.Set(0xA, true) }, 0x202},
		{"sknp not pressed", 0xE1A1, func(f *fixture) { f.cpu.V[1] = 0xA }, 0x204},
		{"sknp key out of range", 0xE1A1, func(f *fixture) { f.cpu.V[1] = 0x20 }, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, byte(tt.opcode>>8), byte(tt.opcode))
			tt.setup(f)

			f.step(t, 1)
			assert.Equal(t, tt.wantPC, f.cpu.PC)
		})
	}
}

func TestStep_Jumps(t *testing.T) {
	f := newFixture(t, 0x12, 0x34)
	f.step(t, 1)
	assert.Equal(t, uint16(0x234), f.cpu.PC)

	f = newFixture(t, 0xB3, 0x00)
	f.cpu.V[0] = 0x10
	f.step(t, 1)
	assert.Equal(t, uint16(0x310), f.cpu.PC)
}

func TestStep_CallAndReturn(t *testing.T) {
	f := newFixture(t,
		0x22, 0x06, // $200: CALL $206
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0xEE, // $206: RET
	)

	f.step(t, 1)
	assert.Equal(t, uint16(0x206), f.cpu.PC)
	assert.Equal(t, uint8(1), f.cpu.SP)
	assert.Equal(t, uint16(0x202), f.cpu.Stack[0])

	f.step(t, 1)
	assert.Equal(t, uint16(0x202), f.cpu.PC)
	assert.Equal(t, uint8(0), f.cpu.SP)
}

func TestStep_StackOverflow(t *testing.T) {
	// every instruction calls the following one
	var program []byte
	for i := range cpu.StackDepth + 1 {
		target := memory.ProgramStart + 2*(i+1)
		program = append(program, 0x20|byte(target>>8), byte(target))
	}
	f := newFixture(t, program...)

	f.step(t, cpu.StackDepth)
	assert.Equal(t, uint8(cpu.StackDepth), f.cpu.SP)
	stack := f.cpu.Stack
	pc := f.cpu.PC

	err := f.ip.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, uint8(cpu.StackDepth), f.cpu.SP)
	assert.Equal(t, stack, f.cpu.Stack)
	assert.Equal(t, pc+2, f.cpu.PC)
}

func TestStep_StackUnderflow(t *testing.T) {
	f := newFixture(t, 0x00, 0xEE)

	err := f.ip.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.Equal(t, uint16(0x202), f.cpu.PC)
	assert.Equal(t, uint8(0), f.cpu.SP)
}

func TestStep_ClearScreen(t *testing.T) {
	f := newFixture(t, 0x00, 0xE0)
	f.screen.Flip(10, 10)

	f.step(t, 1)
	assert.False(t, f.screen.Pixel(10, 10))
	assert.True(t, f.screen.Redraw())
	assert.Equal(t, uint16(0x202), f.cpu.PC)
}

func TestStep_Random(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		want   byte
	}{
		{"zero mask", 0xC300, 0x00},
		{"low nibble mask", 0xC30F, testRandom & 0x0F},
		{"full mask", 0xC3FF, testRandom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, byte(tt.opcode>>8), byte(tt.opcode))
			f.cpu.V[3] = 0x77
			f.step(t, 1)
			assert.Equal(t, tt.want, f.cpu.V[3])
		})
	}
}

func TestStep_RandomZeroMaskWithAnySource(t *testing.T) {
	f := newFixture(t, 0xC5, 0x00)
	f.ip.random = NewRandomSource(42)
	for range 64 {
		f.cpu.PC = memory.ProgramStart
		f.step(t, 1)
		assert.Equal(t, byte(0), f.cpu.V[5])
	}
}

func TestNewRandomSource(t *testing.T) {
	a := NewRandomSource(7)
	b := NewRandomSource(7)
	for range 16 {
		assert.Equal(t, a(), b())
	}
}

func TestStep_Index(t *testing.T) {
	f := newFixture(t,
		0xA2, 0x34, // LD I, $234
		0xF1, 0x1E, // ADD I, V1
		0xF2, 0x29, // LD F, V2
	)
	f.cpu.V[1] = 0x10
	f.cpu.V[2] = 0xA

	f.step(t, 1)
	assert.Equal(t, uint16(0x234), f.cpu.I)
	f.step(t, 1)
	assert.Equal(t, uint16(0x244), f.cpu.I)
	f.step(t, 1)
	assert.Equal(t, uint16(memory.FontBase+0xA*5), f.cpu.I)
}

func TestStep_AddIndexHas16Bits(t *testing.T) {
	f := newFixture(t, 0xF1, 0x1E)
	f.cpu.I = 0xFFF
	f.cpu.V[1] = 0x10
	f.cpu.V[cpu.FlagRegister] = 0

	f.step(t, 1)
	assert.Equal(t, uint16(0x100F), f.cpu.I)
	assert.Equal(t, byte(0), f.cpu.V[cpu.FlagRegister])
}

func TestStep_Timers(t *testing.T) {
	f := newFixture(t,
		0xF1, 0x15, // LD DT, V1
		0xF2, 0x18, // LD ST, V2
		0xF3, 0x07, // LD V3, DT
	)
	f.cpu.V[1] = 30
	f.cpu.V[2] = 40

	f.step(t, 2)
	assert.Equal(t, byte(30), f.cpu.DelayTimer)
	assert.Equal(t, byte(40), f.cpu.SoundTimer)

	f.cpu.TickTimers()
	f.step(t, 1)
	assert.Equal(t, byte(29), f.cpu.V[3])
}

func TestStep_BCD(t *testing.T) {
	tests := []struct {
		value byte
		want  []byte
	}{
		{255, []byte{2, 5, 5}},
		{128, []byte{1, 2, 8}},
		{7, []byte{0, 0, 7}},
		{0, []byte{0, 0, 0}},
	}

	for _, tt := range tests {
		f := newFixture(t, 0xF4, 0x33)
		f.cpu.V[4] = tt.value
		f.cpu.I = 0x300

		f.step(t, 1)
		assert.Equal(t, tt.want, f.bytes(0x300, 3))
		assert.Equal(t, uint16(0x300), f.cpu.I)
	}
}

func TestStep_StoreAndLoadRegisters(t *testing.T) {
	f := newFixture(t,
		0xF3, 0x55, // LD [I], V3
		0x00, 0xE0,
		0xF3, 0x65, // LD V3, [I]
	)
	f.cpu.I = 0x400
	for i := range byte(5) {
		f.cpu.V[i] = 0x10 + i
	}

	f.step(t, 1)
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13, 0x00}, f.bytes(0x400, 5))
	assert.Equal(t, uint16(0x400), f.cpu.I)

	f.cpu.V = [cpu.RegisterCount]byte{}
	f.memory.Write(0x404, 0x99)
	f.step(t, 2)
	assert.Equal(t, byte(0x10), f.cpu.V[0])
	assert.Equal(t, byte(0x13), f.cpu.V[3])
	assert.Equal(t, byte(0), f.cpu.V[4])
}

func TestStep_StoreRegistersOutOfRange(t *testing.T) {
	f := newFixture(t, 0xF2, 0x55, 0xF2, 0x65)
	f.cpu.I = 0xFFE
	f.cpu.V[0], f.cpu.V[1], f.cpu.V[2] = 1, 2, 3

	f.step(t, 1)
	assert.Equal(t, []byte{1, 2}, f.bytes(0xFFE, 2))

	f.step(t, 1)
	assert.Equal(t, byte(0), f.cpu.V[2])
}

func TestStep_MemoryAccessAboveAddressSpace(t *testing.T) {
	t.Run("BCD", func(t *testing.T) {
		f := newFixture(t, 0xF0, 0x33) // LD B, V0
		f.cpu.I = 0xFFFE
		f.cpu.V[0] = 123

		f.step(t, 1)
		assert.Equal(t, make([]byte, 3), f.bytes(0, 3))
	})

	t.Run("store registers", func(t *testing.T) {
		f := newFixture(t, 0xF1, 0x55) // LD [I], V1
		f.cpu.I = 0xFFFF
		f.cpu.V[0], f.cpu.V[1] = 0xCD, 0xAB

		f.step(t, 1)
		assert.Equal(t, byte(0), f.memory.Read(0))
		assert.Equal(t, byte(0), f.memory.Read(1))
	})

	t.Run("load registers", func(t *testing.T) {
		f := newFixture(t, 0xF1, 0x65) // LD V1, [I]
		f.memory.Write(0, 0x5A)
		f.cpu.I = 0xFFFF
		f.cpu.V[1] = 0x77

		f.step(t, 1)
		assert.Equal(t, byte(0), f.cpu.V[0])
		assert.Equal(t, byte(0), f.cpu.V[1])
	})

	t.Run("I grown by ADD I", func(t *testing.T) {
		f := newFixture(t,
			0xF0, 0x1E, // ADD I, V0
			0xF0, 0x33, // LD B, V0
		)
		f.cpu.I = 0xFF00
		f.cpu.V[0] = 0xFF

		f.step(t, 2)
		assert.Equal(t, uint16(0xFFFF), f.cpu.I)
		assert.Equal(t, make([]byte, 2), f.bytes(0, 2))
	})

	t.Run("fetch at end of address range", func(t *testing.T) {
		f := newFixture(t)
		f.memory.Write(0, 0xE0) // low byte of CLS if the fetch wrapped
		f.screen.Flip(0, 0)
		f.cpu.PC = 0xFFFF

		f.step(t, 1)
		assert.True(t, f.screen.Pixel(0, 0))
	})
}

func TestStep_WaitForKey(t *testing.T) {
	f := newFixture(t, 0xF6, 0x0A)

	for range 3 {
		f.step(t, 1)
		assert.Equal(t, uint16(0x200), f.cpu.PC)
	}

	f.keys.Set(0x9, true)
	f.keys.Set(0x4, true)
	f.step(t, 1)
	assert.Equal(t, uint16(0x202), f.cpu.PC)
	assert.Equal(t, byte(0x4), f.cpu.V[6])
}

func TestStep_UnknownOpcodes(t *testing.T) {
	opcodes := []uint16{0x0000, 0x0123, 0x00FF, 0x5121, 0x912F, 0x8128, 0x812D, 0xE1FF, 0xF1FF}

	for _, opcode := range opcodes {
		f := newFixture(t, byte(opcode>>8), byte(opcode))
		f.cpu.V[1] = 0x42
		before := *f.cpu

		f.step(t, 1)
		before.PC += 2
		assert.Equal(t, before, *f.cpu)
		assert.False(t, f.screen.Redraw())
	}
}

func TestStep_FetchOutsideMemory(t *testing.T) {
	f := newFixture(t, 0x60, 0x01)
	f.cpu.PC = 0xFFF

	f.step(t, 1)
	assert.Equal(t, uint16(0x1001), f.cpu.PC)
}

func TestStep_Trace(t *testing.T) {
	f := newFixture(t, 0x60, 0x05)
	f.ip.SetTrace(true)

	f.step(t, 1)
	assert.Equal(t, byte(5), f.cpu.V[0])
}
