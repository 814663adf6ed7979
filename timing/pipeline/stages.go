package pipeline

import (
	"fmt"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// FetchStage reads instructions from the loaded program.
type FetchStage struct {
	program []insts.Instruction
}

// NewFetchStage creates a new fetch stage with no program loaded.
func NewFetchStage() *FetchStage {
	return &FetchStage{}
}

// SetProgram replaces the program the stage fetches from.
func (s *FetchStage) SetProgram(program []insts.Instruction) {
	s.program = program
}

// ProgramLen returns the number of instructions in the loaded program.
func (s *FetchStage) ProgramLen() int {
	return len(s.program)
}

// Fetch reads the instruction at the given program index. It reports
// false past the end of the program, which is normal drain, not an error.
func (s *FetchStage) Fetch(pc int) (insts.Instruction, bool) {
	if pc < 0 || pc >= len(s.program) {
		return insts.NOP(), false
	}
	return s.program[pc], true
}

// DecodeStage reads register operands and derives control signals.
type DecodeStage struct {
	regFile *emu.RegFile
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{regFile: regFile}
}

// DecodeResult holds the result of the decode stage.
type DecodeResult struct {
	Inst insts.Instruction

	// Operand values read from the register file. Forwarding may
	// override them in Execute.
	RsValue int32
	RtValue int32

	// Dest is the destination register number.
	Dest uint8

	// Control signals.
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
}

// Decode reads register values and sets control signals for the
// instruction. Instructions are already parsed at load time; no text
// handling happens here.
func (s *DecodeStage) Decode(inst insts.Instruction) DecodeResult {
	result := DecodeResult{
		Inst:    inst,
		RsValue: s.regFile.Read(inst.Rs),
		RtValue: s.regFile.Read(inst.Rt),
	}

	if dest, ok := inst.Dest(); ok {
		result.Dest = dest
		// $0 writes are architectural no-ops; don't drive RegWrite.
		result.RegWrite = dest != 0
	}

	switch {
	case inst.IsLoad():
		result.MemRead = true
		result.MemToReg = true
	case inst.IsStore():
		result.MemWrite = true
	}

	return result
}

// ExecuteStage performs ALU operations and effective address calculation.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// ExecuteResult holds the result of the execute stage.
type ExecuteResult struct {
	// Result is the ALU result for arithmetic instructions.
	Result int32

	// Addr is the effective byte address for loads and stores.
	Addr int32

	// StoreValue is the (possibly forwarded) rt value for stores.
	StoreValue int32
}

// Execute computes the ALU result or effective address for the
// instruction in ID/EX, using operand values already resolved through
// the forwarding unit.
func (s *ExecuteStage) Execute(idex *IDEXRegister, rsValue, rtValue int32) ExecuteResult {
	result := ExecuteResult{}

	switch idex.Inst.Op {
	case insts.OpADD:
		result.Result = rsValue + rtValue
	case insts.OpSUB:
		result.Result = rsValue - rtValue
	case insts.OpAND:
		result.Result = rsValue & rtValue
	case insts.OpOR:
		result.Result = rsValue | rtValue
	case insts.OpSLT:
		if rsValue < rtValue {
			result.Result = 1
		}
	case insts.OpADDI:
		result.Result = rsValue + idex.Inst.Imm
	case insts.OpSLTI:
		if rsValue < idex.Inst.Imm {
			result.Result = 1
		}
	case insts.OpLW:
		result.Addr = rsValue + idex.Inst.Imm
	case insts.OpSW:
		result.Addr = rsValue + idex.Inst.Imm
		result.StoreValue = rtValue
	}

	return result
}

// MemoryStage performs data memory loads and stores.
type MemoryStage struct {
	memory *emu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory) *MemoryStage {
	return &MemoryStage{memory: memory}
}

// MemoryResult holds the result of the memory stage.
type MemoryResult struct {
	MemData int32
}

// Access performs the memory read or write for the instruction in EX/MEM.
// Unaligned and out-of-range effective addresses surface as errors.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (MemoryResult, error) {
	result := MemoryResult{}

	if !exmem.Valid {
		return result, nil
	}

	if exmem.MemRead {
		data, err := s.memory.ReadWord(exmem.Addr)
		if err != nil {
			return result, fmt.Errorf("%s at slot %d: %w", exmem.Inst, exmem.PC, err)
		}
		result.MemData = data
	} else if exmem.MemWrite {
		if err := s.memory.WriteWord(exmem.Addr, exmem.StoreValue); err != nil {
			return result, fmt.Errorf("%s at slot %d: %w", exmem.Inst, exmem.PC, err)
		}
	}

	return result, nil
}

// WritebackStage commits results to the register file.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new write-back stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback writes the committed value to the register file. Loads commit
// the loaded word, every other register-writing opcode the ALU result.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Valid || !memwb.RegWrite {
		return
	}

	var value int32
	if memwb.MemToReg {
		value = memwb.MemData
	} else {
		value = memwb.Result
	}

	s.regFile.Write(memwb.Dest, value)
}
