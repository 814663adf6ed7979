// Package insts provides the MIPS-subset instruction model and assembly parsing.
//
// The simulated subset covers R-type arithmetic (ADD, SUB, AND, OR, SLT),
// I-type arithmetic (ADDI, SLTI), word loads and stores (LW, SW), and NOP.
// Instructions are parsed once at load time into immutable Instruction
// values; the pipeline never re-parses text per cycle.
//
// Usage:
//
//	inst, err := insts.ParseInstruction("add $3, $1, $2")
//	rd, ok := inst.Dest() // rd = 3, ok = true
package insts

import (
	"errors"
	"fmt"
)

// NumRegs is the number of architectural registers.
const NumRegs = 32

// Instruction validation errors.
var (
	// ErrMalformedInstruction indicates an instruction with missing or
	// extra operand fields for its opcode.
	ErrMalformedInstruction = errors.New("malformed instruction")

	// ErrRegisterOutOfRange indicates an operand register index outside 0-31.
	ErrRegisterOutOfRange = errors.New("register index out of range")
)

// Op represents an opcode of the simulated subset.
type Op uint8

// Opcodes.
const (
	OpNOP Op = iota
	OpADD
	OpSUB
	OpAND
	OpOR
	OpSLT
	OpADDI
	OpSLTI
	OpLW
	OpSW
)

// String returns the assembly mnemonic.
func (o Op) String() string {
	switch o {
	case OpNOP:
		return "nop"
	case OpADD:
		return "add"
	case OpSUB:
		return "sub"
	case OpAND:
		return "and"
	case OpOR:
		return "or"
	case OpSLT:
		return "slt"
	case OpADDI:
		return "addi"
	case OpSLTI:
		return "slti"
	case OpLW:
		return "lw"
	case OpSW:
		return "sw"
	default:
		return "unknown"
	}
}

// Format represents an instruction operand format.
type Format uint8

// Instruction formats.
const (
	FormatNOP  Format = iota
	FormatRType       // op rd, rs, rt
	FormatIType       // op rt, rs, imm
	FormatMem         // op rt, imm(rs)
)

// Format returns the operand format for the opcode.
func (o Op) Format() Format {
	switch o {
	case OpADD, OpSUB, OpAND, OpOR, OpSLT:
		return FormatRType
	case OpADDI, OpSLTI:
		return FormatIType
	case OpLW, OpSW:
		return FormatMem
	default:
		return FormatNOP
	}
}

// Instruction represents one decoded instruction. Fields not used by the
// opcode's format stay zero; Dest, ReadsRs, and ReadsRt are the only
// correct ways to interpret the register fields.
type Instruction struct {
	Op Op

	Rd uint8 // Destination register (R-type only)
	Rs uint8 // First source register
	Rt uint8 // Second source register, or destination for I-type/LW, or store data for SW

	Imm int32 // Immediate operand (I-type and memory offset)
}

// NOP returns the canonical no-operation instruction.
func NOP() Instruction {
	return Instruction{Op: OpNOP}
}

// Dest returns the destination register and whether the opcode writes one.
// R-type opcodes write rd; ADDI, SLTI, and LW write rt; SW and NOP write
// nothing.
func (i Instruction) Dest() (uint8, bool) {
	switch i.Op.Format() {
	case FormatRType:
		return i.Rd, true
	case FormatIType:
		return i.Rt, true
	case FormatMem:
		if i.Op == OpLW {
			return i.Rt, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ReadsRs reports whether the opcode reads the rs field as a source.
func (i Instruction) ReadsRs() bool {
	return i.Op != OpNOP
}

// ReadsRt reports whether the opcode reads the rt field as a source.
// For ADDI, SLTI, and LW rt is a destination, never a source.
func (i Instruction) ReadsRt() bool {
	switch i.Op {
	case OpADD, OpSUB, OpAND, OpOR, OpSLT, OpSW:
		return true
	default:
		return false
	}
}

// IsLoad reports whether the instruction reads data memory.
func (i Instruction) IsLoad() bool {
	return i.Op == OpLW
}

// IsStore reports whether the instruction writes data memory.
func (i Instruction) IsStore() bool {
	return i.Op == OpSW
}

// Validate checks that the opcode is a member of the subset and that every
// register field the format uses is a legal index.
func (i Instruction) Validate() error {
	switch i.Op.Format() {
	case FormatRType:
		return checkRegs(i.Op, i.Rd, i.Rs, i.Rt)
	case FormatIType:
		return checkRegs(i.Op, i.Rt, i.Rs)
	case FormatMem:
		return checkRegs(i.Op, i.Rt, i.Rs)
	default:
		if i.Op != OpNOP {
			return fmt.Errorf("%w: opcode %d outside the simulated subset",
				ErrMalformedInstruction, i.Op)
		}
		return nil
	}
}

func checkRegs(op Op, regs ...uint8) error {
	for _, r := range regs {
		if r >= NumRegs {
			return fmt.Errorf("%w: %s uses $%d", ErrRegisterOutOfRange, op, r)
		}
	}
	return nil
}

// String renders the instruction in assembly notation.
func (i Instruction) String() string {
	switch i.Op.Format() {
	case FormatRType:
		return fmt.Sprintf("%s $%d, $%d, $%d", i.Op, i.Rd, i.Rs, i.Rt)
	case FormatIType:
		return fmt.Sprintf("%s $%d, $%d, %d", i.Op, i.Rt, i.Rs, i.Imm)
	case FormatMem:
		return fmt.Sprintf("%s $%d, %d($%d)", i.Op, i.Rt, i.Imm, i.Rs)
	default:
		return "nop"
	}
}
