// Package pipeline provides the 5-stage pipeline engine for cycle-accurate
// simulation of the MIPS subset.
package pipeline

import "github.com/sarchlab/mipsim/insts"

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	// An invalid register is a bubble.
	Valid bool

	// PC is the program index of the fetched instruction.
	PC int

	// Inst is the fetched instruction.
	Inst insts.Instruction
}

// Clear resets the IF/ID register to a bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program index of the instruction.
	PC int

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// Register values read from the register file.
	RsValue int32
	RtValue int32

	// Dest is the destination register number for hazard detection.
	Dest uint8

	// Control signals.
	MemRead  bool // True for loads
	MemWrite bool // True for stores
	RegWrite bool // True if the instruction writes a register other than $0
	MemToReg bool // True if the committed value comes from memory
}

// Clear resets the ID/EX register to a bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program index of the instruction.
	PC int

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// Result is the ALU result for arithmetic instructions.
	Result int32

	// Addr is the effective byte address for loads and stores.
	Addr int32

	// StoreValue is the value to store for store instructions.
	StoreValue int32

	// Dest is the destination register number.
	Dest uint8

	// Control signals (propagated from ID/EX).
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
}

// Clear resets the EX/MEM register to a bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Write-Back stages.
type MEMWBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program index of the instruction.
	PC int

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// Result is the ALU result for arithmetic instructions.
	Result int32

	// MemData is the word read from memory for load instructions.
	MemData int32

	// Dest is the destination register number.
	Dest uint8

	// Control signals.
	RegWrite bool
	MemToReg bool
}

// Clear resets the MEM/WB register to a bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
