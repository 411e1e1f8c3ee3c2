package interpreter

import (
	"fmt"

	"github.com/retroenv/chip8vm/internal/cpu"
	"github.com/retroenv/chip8vm/internal/memory"
)

// instruction contains the decoded bit fields of an opcode.
type instruction struct {
	opcode uint16
	x      byte   // register index, bits 8-11
	y      byte   // register index, bits 4-7
	n      byte   // nibble, bits 0-3
	nn     byte   // byte, bits 0-7
	nnn    uint16 // address, bits 0-11
}

func decode(opcode uint16) instruction {
	return instruction{
		opcode: opcode,
		x:      byte(opcode>>8) & 0xF,
		y:      byte(opcode>>4) & 0xF,
		n:      byte(opcode) & 0xF,
		nn:     byte(opcode),
		nnn:    opcode & 0xFFF,
	}
}

// handler executes a decoded instruction and updates the program counter.
type handler func(ip *Interpreter, ins instruction) error

// families is indexed by the high nibble of the opcode. The families 0x0,
// 0x8, 0xE and 0xF dispatch a second time on the low byte or nibble.
var families = [16]handler{
	0x0: dispatchSystem,
	0x1: jump,
	0x2: call,
	0x3: skipEqualImmediate,
	0x4: skipNotEqualImmediate,
	0x5: skipEqualRegisters,
	0x6: loadImmediate,
	0x7: addImmediate,
	0x8: dispatchArithmetic,
	0x9: skipNotEqualRegisters,
	0xA: loadIndex,
	0xB: jumpOffset,
	0xC: random,
	0xD: draw,
	0xE: dispatchKeys,
	0xF: dispatchMisc,
}

// system is indexed by the low byte of 0x0*** opcodes.
var system = map[byte]handler{
	0xE0: clearScreen,
	0xEE: returnFromSubroutine,
}

// arithmetic is indexed by the low nibble of 0x8*** opcodes.
var arithmetic = [16]handler{
	0x0: loadRegister,
	0x1: or,
	0x2: and,
	0x3: xor,
	0x4: addRegister,
	0x5: subtract,
	0x6: shiftRight,
	0x7: subtractReverse,
	0xE: shiftLeft,
}

// keys is indexed by the low byte of 0xE*** opcodes.
var keys = map[byte]handler{
	0x9E: skipPressed,
	0xA1: skipNotPressed,
}

// misc is indexed by the low byte of 0xF*** opcodes.
var misc = map[byte]handler{
	0x07: loadDelayTimer,
	0x0A: waitForKey,
	0x15: setDelayTimer,
	0x18: setSoundTimer,
	0x1E: addIndex,
	0x29: loadFontAddress,
	0x33: storeBCD,
	0x55: storeRegisters,
	0x65: loadRegisters,
}

func dispatchSystem(ip *Interpreter, ins instruction) error {
	if ins.nnn>>8 != 0 {
		return unknown(ip, ins) // 0nnn machine code routines are not supported
	}
	return dispatchTable(system, ip, ins, ins.nn)
}

func dispatchArithmetic(ip *Interpreter, ins instruction) error {
	if h := arithmetic[ins.n]; h != nil {
		return h(ip, ins)
	}
	return unknown(ip, ins)
}

func dispatchKeys(ip *Interpreter, ins instruction) error {
	return dispatchTable(keys, ip, ins, ins.nn)
}

func dispatchMisc(ip *Interpreter, ins instruction) error {
	return dispatchTable(misc, ip, ins, ins.nn)
}

func dispatchTable(table map[byte]handler, ip *Interpreter, ins instruction, key byte) error {
	if h, ok := table[key]; ok {
		return h(ip, ins)
	}
	return unknown(ip, ins)
}

// unknown skips any opcode that is not part of the instruction set.
func unknown(ip *Interpreter, _ instruction) error {
	ip.next()
	return nil
}

// 00E0 - CLS
func clearScreen(ip *Interpreter, _ instruction) error {
	ip.screen.Clear()
	ip.next()
	return nil
}

// 00EE - RET
func returnFromSubroutine(ip *Interpreter, _ instruction) error {
	s := ip.cpu
	if s.SP == 0 {
		pc := s.PC
		ip.next()
		return fmt.Errorf("%w: return at $%03X", ErrStackUnderflow, pc)
	}

	s.SP--
	s.PC = s.Stack[s.SP]
	return nil
}

// 1nnn - JP addr
func jump(ip *Interpreter, ins instruction) error {
	ip.cpu.PC = ins.nnn
	return nil
}

// 2nnn - CALL addr
func call(ip *Interpreter, ins instruction) error {
	s := ip.cpu
	if int(s.SP) >= cpu.StackDepth {
		pc := s.PC
		ip.next()
		return fmt.Errorf("%w: call to $%03X at $%03X", ErrStackOverflow, ins.nnn, pc)
	}

	s.Stack[s.SP] = s.PC + 2
	s.SP++
	s.PC = ins.nnn
	return nil
}

// 3xkk - SE Vx, byte
func skipEqualImmediate(ip *Interpreter, ins instruction) error {
	ip.skipIf(ip.cpu.V[ins.x] == ins.nn)
	return nil
}

// 4xkk - SNE Vx, byte
func skipNotEqualImmediate(ip *Interpreter, ins instruction) error {
	ip.skipIf(ip.cpu.V[ins.x] != ins.nn)
	return nil
}

// 5xy0 - SE Vx, Vy
func skipEqualRegisters(ip *Interpreter, ins instruction) error {
	if ins.n != 0 {
		return unknown(ip, ins)
	}
	ip.skipIf(ip.cpu.V[ins.x] == ip.cpu.V[ins.y])
	return nil
}

// 9xy0 - SNE Vx, Vy
func skipNotEqualRegisters(ip *Interpreter, ins instruction) error {
	if ins.n != 0 {
		return unknown(ip, ins)
	}
	ip.skipIf(ip.cpu.V[ins.x] != ip.cpu.V[ins.y])
	return nil
}

// 6xkk - LD Vx, byte
func loadImmediate(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] = ins.nn
	ip.next()
	return nil
}

// 7xkk - ADD Vx, byte, wraps without touching VF
func addImmediate(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] += ins.nn
	ip.next()
	return nil
}

// 8xy0 - LD Vx, Vy
func loadRegister(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] = ip.cpu.V[ins.y]
	ip.next()
	return nil
}

// 8xy1 - OR Vx, Vy
func or(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] |= ip.cpu.V[ins.y]
	ip.next()
	return nil
}

// 8xy2 - AND Vx, Vy
func and(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] &= ip.cpu.V[ins.y]
	ip.next()
	return nil
}

// 8xy3 - XOR Vx, Vy
func xor(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] ^= ip.cpu.V[ins.y]
	ip.next()
	return nil
}

// 8xy4 - ADD Vx, Vy, VF is set to the carry after the sum is stored.
func addRegister(ip *Interpreter, ins instruction) error {
	v := &ip.cpu.V
	sum := uint16(v[ins.x]) + uint16(v[ins.y])
	v[ins.x] = byte(sum)
	v[cpu.FlagRegister] = byte(sum >> 8)
	ip.next()
	return nil
}

// 8xy5 - SUB Vx, Vy, VF is set to NOT borrow before the difference is stored.
func subtract(ip *Interpreter, ins instruction) error {
	v := &ip.cpu.V
	v[cpu.FlagRegister] = flag(v[ins.x] >= v[ins.y])
	v[ins.x] -= v[ins.y]
	ip.next()
	return nil
}

// 8xy6 - SHR Vx
func shiftRight(ip *Interpreter, ins instruction) error {
	v := &ip.cpu.V
	v[cpu.FlagRegister] = v[ins.x] & 1
	v[ins.x] >>= 1
	ip.next()
	return nil
}

// 8xy7 - SUBN Vx, Vy, VF is set to NOT borrow before the difference is stored.
func subtractReverse(ip *Interpreter, ins instruction) error {
	v := &ip.cpu.V
	v[cpu.FlagRegister] = flag(v[ins.y] >= v[ins.x])
	v[ins.x] = v[ins.y] - v[ins.x]
	ip.next()
	return nil
}

// 8xyE - SHL Vx
func shiftLeft(ip *Interpreter, ins instruction) error {
	v := &ip.cpu.V
	v[cpu.FlagRegister] = (v[ins.x] & 0x80) >> 7
	v[ins.x] <<= 1
	ip.next()
	return nil
}

// Annn - LD I, addr
func loadIndex(ip *Interpreter, ins instruction) error {
	ip.cpu.I = ins.nnn
	ip.next()
	return nil
}

// Bnnn - JP V0, addr
func jumpOffset(ip *Interpreter, ins instruction) error {
	ip.cpu.PC = ins.nnn + uint16(ip.cpu.V[0])
	return nil
}

// Cxkk - RND Vx, byte
func random(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] = ip.random() & ins.nn
	ip.next()
	return nil
}

// Ex9E - SKP Vx
func skipPressed(ip *Interpreter, ins instruction) error {
	ip.skipIf(ip.keys.Pressed(ip.cpu.V[ins.x]))
	return nil
}

// ExA1 - SKNP Vx
func skipNotPressed(ip *Interpreter, ins instruction) error {
	ip.skipIf(!ip.keys.Pressed(ip.cpu.V[ins.x]))
	return nil
}

// Fx07 - LD Vx, DT
func loadDelayTimer(ip *Interpreter, ins instruction) error {
	ip.cpu.V[ins.x] = ip.cpu.DelayTimer
	ip.next()
	return nil
}

// Fx0A - LD Vx, K
// The program counter is only advanced once a key is pressed, until then the
// instruction is executed again on every cycle.
func waitForKey(ip *Interpreter, ins instruction) error {
	key, ok := ip.keys.FirstPressed()
	if !ok {
		return nil
	}
	ip.cpu.V[ins.x] = key
	ip.next()
	return nil
}

// Fx15 - LD DT, Vx
func setDelayTimer(ip *Interpreter, ins instruction) error {
	ip.cpu.DelayTimer = ip.cpu.V[ins.x]
	ip.next()
	return nil
}

// Fx18 - LD ST, Vx
func setSoundTimer(ip *Interpreter, ins instruction) error {
	ip.cpu.SoundTimer = ip.cpu.V[ins.x]
	ip.next()
	return nil
}

// Fx1E - ADD I, Vx
func addIndex(ip *Interpreter, ins instruction) error {
	ip.cpu.I += uint16(ip.cpu.V[ins.x])
	ip.next()
	return nil
}

// Fx29 - LD F, Vx
func loadFontAddress(ip *Interpreter, ins instruction) error {
	ip.cpu.I = memory.FontAddress(ip.cpu.V[ins.x])
	ip.next()
	return nil
}

// Fx33 - LD B, Vx
func storeBCD(ip *Interpreter, ins instruction) error {
	value := ip.cpu.V[ins.x]
	i := int(ip.cpu.I)
	ip.memory.Write(i, value/100)
	ip.memory.Write(i+1, value/10%10)
	ip.memory.Write(i+2, value%10)
	ip.next()
	return nil
}

// Fx55 - LD [I], Vx, stores V0 to Vx inclusive.
func storeRegisters(ip *Interpreter, ins instruction) error {
	base := int(ip.cpu.I)
	for i := range int(ins.x) + 1 {
		ip.memory.Write(base+i, ip.cpu.V[i])
	}
	ip.next()
	return nil
}

// Fx65 - LD Vx, [I], loads V0 to Vx inclusive.
func loadRegisters(ip *Interpreter, ins instruction) error {
	base := int(ip.cpu.I)
	for i := range int(ins.x) + 1 {
		ip.cpu.V[i] = ip.memory.Read(base + i)
	}
	ip.next()
	return nil
}

func flag(set bool) byte {
	if set {
		return 1
	}
	return 0
}
