package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

const (
	funcNaming  = "_func_%04x"
	labelNaming = "_label_%04x"
)

// Line is a single disassembled instruction or data byte of a listing.
type Line struct {
	Address uint16
	Data    []byte
	Code    string
	Label   string
}

// Disassemble decodes a program image linearly, starting at the given base
// address. Targets of jumps, calls and address register loads inside the
// program get a label.
func Disassemble(program []byte, base uint16) []Line {
	lines := make([]Line, 0, len(program)/OpcodeSize+1)
	end := int(base) + len(program)

	for i := 0; i < len(program); i += OpcodeSize {
		address := base + uint16(i)
		if i+1 >= len(program) {
			lines = append(lines, Line{
				Address: address,
				Data:    program[i : i+1],
				Code:    fmt.Sprintf(".byte $%02X", program[i]),
			})
			break
		}

		opcode := uint16(program[i])<<8 | uint16(program[i+1])
		lines = append(lines, Line{
			Address: address,
			Data:    program[i : i+2],
			Code:    Format(opcode),
		})
	}

	targets := map[uint16]bool{} // address -> is a call destination
	for _, line := range lines {
		target, isCall, ok := referencedAddress(line.Data)
		if !ok || int(target) < int(base) || int(target) >= end {
			continue
		}
		targets[target] = targets[target] || isCall
	}
	for i := range lines {
		isCall, ok := targets[lines[i].Address]
		if ok {
			lines[i].Label = labelName(lines[i].Address, base, isCall)
		}
	}
	return lines
}

// Write outputs a listing of the program image loaded at the given base address.
func Write(w io.Writer, program []byte, base uint16) error {
	if _, err := fmt.Fprintf(w, "; CHIP-8 ROM Disassembly\n; Program starts at $%03X in CHIP-8 memory space\n\n.org $%03X\n\n", base, base); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	lines := Disassemble(program, base)
	for _, line := range lines {
		if line.Label != "" {
			if _, err := fmt.Fprintf(w, "%s:\n", line.Label); err != nil {
				return fmt.Errorf("writing label %s: %w", line.Label, err)
			}
		}
		if _, err := fmt.Fprintf(w, "%-32s ; $%03X %s\n", "    "+line.Code, line.Address, hexBytes(line.Data)); err != nil {
			return fmt.Errorf("writing code at $%03X: %w", line.Address, err)
		}
	}
	return nil
}

// referencedAddress returns the address referenced by JP, CALL and LD I and
// whether it is a subroutine call. JP V0, addr is skipped as the target depends
// on a register.
func referencedAddress(data []byte) (uint16, bool, bool) {
	if len(data) < OpcodeSize {
		return 0, false, false
	}
	opcode := uint16(data[0])<<8 | uint16(data[1])
	op, ok := Lookup(opcode)
	if !ok {
		return 0, false, false
	}

	switch op.Instruction {
	case chip8.CallInst:
		return opcode & 0x0FFF, true, true
	case chip8.JpInst:
		if opcode&0xF000 == 0xB000 {
			return 0, false, false
		}
	case chip8.LdInst:
		if opcode&0xF000 != 0xA000 {
			return 0, false, false
		}
	default:
		return 0, false, false
	}
	return opcode & 0x0FFF, false, true
}

func labelName(address, base uint16, isCall bool) string {
	switch {
	case address == base:
		return "Start"
	case isCall:
		return fmt.Sprintf(funcNaming, address)
	default:
		return fmt.Sprintf(labelNaming, address)
	}
}

func hexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
