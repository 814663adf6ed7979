package pipeline

import "github.com/sarchlab/mipsim/emu"

// Snapshot is the public per-cycle state published by Step. It is the
// contract external loggers depend on. Snapshots are plain comparable
// values: running the same program from the same state reproduces an
// identical snapshot sequence.
type Snapshot struct {
	// Cycle is the cycle number this snapshot was produced in, starting
	// at 1.
	Cycle uint64

	// PC is the program counter after the cycle.
	PC int

	// Stalled reports whether this cycle inserted a load-use bubble.
	Stalled bool

	// The four pipeline registers as published at the cycle boundary.
	IFID  IFIDRegister
	IDEX  IDEXRegister
	EXMEM EXMEMRegister
	MEMWB MEMWBRegister

	// Registers is the full architectural register file.
	Registers [emu.NumRegs]int32

	// Memory is the full data memory.
	Memory [emu.MemoryWords]int32

	// Retired is the number of instructions that have completed
	// Write-Back so far.
	Retired uint64
}

// snapshot captures the state published at the current cycle boundary.
func (p *Pipeline) snapshot(stalled bool) Snapshot {
	return Snapshot{
		Cycle:     p.stats.Cycles,
		PC:        p.pc,
		Stalled:   stalled,
		IFID:      p.ifid,
		IDEX:      p.idex,
		EXMEM:     p.exmem,
		MEMWB:     p.memwb,
		Registers: p.regFile.Values(),
		Memory:    p.memory.Values(),
		Retired:   p.stats.Instructions,
	}
}
