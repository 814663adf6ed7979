package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInstruction parses one line of assembly text into an Instruction.
// Commas are optional separators. A blank line parses as NOP. Unknown
// mnemonics and operand-count mismatches are rejected as
// ErrMalformedInstruction; register indexes outside 0-31 as
// ErrRegisterOutOfRange.
//
// Accepted forms:
//
//	add $rd, $rs, $rt      (also sub, and, or, slt)
//	addi $rt, $rs, imm     (also slti)
//	lw $rt, imm($rs)       (also sw)
//	nop
func ParseInstruction(line string) (Instruction, error) {
	tokens := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(tokens) == 0 {
		return NOP(), nil
	}

	mnemonic := strings.ToLower(tokens[0])
	op, ok := opForMnemonic(mnemonic)
	if !ok {
		return Instruction{}, fmt.Errorf("%w: unknown mnemonic %q", ErrMalformedInstruction, mnemonic)
	}

	switch op.Format() {
	case FormatRType:
		return parseRType(op, tokens)
	case FormatIType:
		return parseIType(op, tokens)
	case FormatMem:
		return parseMem(op, tokens)
	default:
		if len(tokens) != 1 {
			return Instruction{}, fmt.Errorf("%w: nop takes no operands", ErrMalformedInstruction)
		}
		return NOP(), nil
	}
}

func opForMnemonic(mnemonic string) (Op, bool) {
	for op := OpNOP; op <= OpSW; op++ {
		if op.String() == mnemonic {
			return op, true
		}
	}
	return OpNOP, false
}

// parseRType handles "op rd, rs, rt".
func parseRType(op Op, tokens []string) (Instruction, error) {
	if len(tokens) != 4 {
		return Instruction{}, operandCountErr(op, 3, len(tokens)-1)
	}
	rd, err := parseReg(op, tokens[1])
	if err != nil {
		return Instruction{}, err
	}
	rs, err := parseReg(op, tokens[2])
	if err != nil {
		return Instruction{}, err
	}
	rt, err := parseReg(op, tokens[3])
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Op: op, Rd: rd, Rs: rs, Rt: rt}, nil
}

// parseIType handles "op rt, rs, imm".
func parseIType(op Op, tokens []string) (Instruction, error) {
	if len(tokens) != 4 {
		return Instruction{}, operandCountErr(op, 3, len(tokens)-1)
	}
	rt, err := parseReg(op, tokens[1])
	if err != nil {
		return Instruction{}, err
	}
	rs, err := parseReg(op, tokens[2])
	if err != nil {
		return Instruction{}, err
	}
	imm, err := parseImm(op, tokens[3])
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Op: op, Rt: rt, Rs: rs, Imm: imm}, nil
}

// parseMem handles "op rt, imm(rs)".
func parseMem(op Op, tokens []string) (Instruction, error) {
	if len(tokens) != 3 {
		return Instruction{}, operandCountErr(op, 2, len(tokens)-1)
	}
	rt, err := parseReg(op, tokens[1])
	if err != nil {
		return Instruction{}, err
	}

	offset, base, found := strings.Cut(strings.TrimSuffix(tokens[2], ")"), "(")
	if !found {
		return Instruction{}, fmt.Errorf("%w: %s needs an offset(base) operand, got %q",
			ErrMalformedInstruction, op, tokens[2])
	}
	imm, err := parseImm(op, offset)
	if err != nil {
		return Instruction{}, err
	}
	rs, err := parseReg(op, base)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Op: op, Rt: rt, Rs: rs, Imm: imm}, nil
}

func parseReg(op Op, token string) (uint8, error) {
	name, ok := strings.CutPrefix(token, "$")
	if !ok {
		return 0, fmt.Errorf("%w: %s expects a $-prefixed register, got %q",
			ErrMalformedInstruction, op, token)
	}
	n, err := strconv.ParseUint(name, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s register %q", ErrMalformedInstruction, op, token)
	}
	if n >= NumRegs {
		return 0, fmt.Errorf("%w: %s uses $%d", ErrRegisterOutOfRange, op, n)
	}
	return uint8(n), nil
}

func parseImm(op Op, token string) (int32, error) {
	n, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s immediate %q", ErrMalformedInstruction, op, token)
	}
	return int32(n), nil
}

func operandCountErr(op Op, want, got int) error {
	return fmt.Errorf("%w: %s expects %d operands, got %d",
		ErrMalformedInstruction, op, want, got)
}
