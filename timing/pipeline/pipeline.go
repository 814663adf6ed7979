package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired through
	// Write-Back. Bubbles and explicit NOPs do not count.
	Instructions uint64
	// Stalls is the number of load-use stall cycles.
	Stalls uint64
}

// CPI returns the cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithClearArchStateOnLoad makes Load clear registers and data memory in
// addition to the latches and counters it always resets. By default Load
// keeps architectural state so data preloaded into memory survives a
// program reload.
func WithClearArchStateOnLoad() Option {
	return func(p *Pipeline) {
		p.clearArchOnLoad = true
	}
}

// Pipeline implements the 5-stage in-order pipeline model.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) ->
// Write-Back (WB), connected by the IF/ID, ID/EX, EX/MEM, and MEM/WB
// pipeline registers. Load-use hazards stall for exactly one cycle; all
// other read-after-write dependencies resolve through forwarding.
type Pipeline struct {
	// Pipeline registers.
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages.
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Hazard detection and forwarding.
	hazardUnit *HazardUnit

	// Shared architectural state.
	regFile *emu.RegFile
	memory  *emu.Memory

	// Program counter: an index into the loaded program. It only ever
	// advances; there is no control-flow redirection in the subset.
	pc int

	stats Statistics

	clearArchOnLoad bool
}

// NewPipeline creates a new 5-stage pipeline over the given register file
// and data memory.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetchStage:     NewFetchStage(),
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(memory),
		writebackStage: NewWritebackStage(regFile),
		hazardUnit:     NewHazardUnit(),
		regFile:        regFile,
		memory:         memory,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PC returns the current program counter.
func (p *Pipeline) PC() int {
	return p.pc
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// GetIFID returns the IF/ID pipeline register.
func (p *Pipeline) GetIFID() *IFIDRegister {
	return &p.ifid
}

// GetIDEX returns the ID/EX pipeline register.
func (p *Pipeline) GetIDEX() *IDEXRegister {
	return &p.idex
}

// GetEXMEM returns the EX/MEM pipeline register.
func (p *Pipeline) GetEXMEM() *EXMEMRegister {
	return &p.exmem
}

// GetMEMWB returns the MEM/WB pipeline register.
func (p *Pipeline) GetMEMWB() *MEMWBRegister {
	return &p.memwb
}

// Load validates the program and replaces the current one. The PC, all
// four latches, and the cycle/retire counters are reset; registers and
// data memory are kept unless the pipeline was built with
// WithClearArchStateOnLoad.
func (p *Pipeline) Load(program []insts.Instruction) error {
	for i, inst := range program {
		if err := inst.Validate(); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, inst, err)
		}
	}

	p.fetchStage.SetProgram(append([]insts.Instruction(nil), program...))
	p.pc = 0
	p.stats = Statistics{}
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()

	if p.clearArchOnLoad {
		p.regFile.Reset()
		p.memory.Reset()
	}

	return nil
}

// Reset clears all state: registers, data memory, latches, PC, and
// counters. The loaded program is kept.
func (p *Pipeline) Reset() {
	p.regFile.Reset()
	p.memory.Reset()
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.pc = 0
	p.stats = Statistics{}
}

// Step advances the pipeline by exactly one cycle and returns the
// post-cycle snapshot.
//
// Stages are evaluated in reverse pipeline order (WB, MEM, EX, ID, IF) so
// that every stage reads the latch values produced by the previous cycle
// before they are overwritten. The new latch set is published together at
// the cycle boundary. On a load-use hazard the cycle inserts a bubble
// into ID/EX and holds IF/ID and the PC; the same fetched instruction is
// re-decoded next cycle.
//
// A memory-stage error (unaligned or out-of-range effective address)
// aborts the latch publish and surfaces to the caller.
func (p *Pipeline) Step() (Snapshot, error) {
	p.stats.Cycles++

	// Hazard and forwarding decisions read the previous cycle's latches.
	forwarding := p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &p.memwb)

	loadUseHazard := false
	if p.ifid.Valid {
		loadUseHazard = p.hazardUnit.DetectLoadUseHazard(&p.idex, p.ifid.Inst)
	}
	stallResult := p.hazardUnit.ComputeStalls(loadUseHazard)

	// Stage 5: Write-Back. The pre-WB MEM/WB value is saved so Execute
	// forwards from the previous cycle's snapshot, not a consumed latch.
	savedMEMWB := p.memwb
	p.writebackStage.Writeback(&p.memwb)
	if p.memwb.Valid && p.memwb.Inst.Op != insts.OpNOP {
		p.stats.Instructions++
	}

	// Stage 4: Memory.
	var nextMEMWB MEMWBRegister
	if p.exmem.Valid {
		memResult, err := p.memoryStage.Access(&p.exmem)
		if err != nil {
			return Snapshot{}, fmt.Errorf("cycle %d: %w", p.stats.Cycles, err)
		}
		nextMEMWB = MEMWBRegister{
			Valid:    true,
			PC:       p.exmem.PC,
			Inst:     p.exmem.Inst,
			Result:   p.exmem.Result,
			MemData:  memResult.MemData,
			Dest:     p.exmem.Dest,
			RegWrite: p.exmem.RegWrite,
			MemToReg: p.exmem.MemToReg,
		}
	}

	// Stage 3: Execute.
	var nextEXMEM EXMEMRegister
	if p.idex.Valid {
		rsValue := p.hazardUnit.GetForwardedValue(
			forwarding.ForwardRs, p.idex.RsValue, &p.exmem, &savedMEMWB)
		rtValue := p.hazardUnit.GetForwardedValue(
			forwarding.ForwardRt, p.idex.RtValue, &p.exmem, &savedMEMWB)

		execResult := p.executeStage.Execute(&p.idex, rsValue, rtValue)

		nextEXMEM = EXMEMRegister{
			Valid:      true,
			PC:         p.idex.PC,
			Inst:       p.idex.Inst,
			Result:     execResult.Result,
			Addr:       execResult.Addr,
			StoreValue: execResult.StoreValue,
			Dest:       p.idex.Dest,
			MemRead:    p.idex.MemRead,
			MemWrite:   p.idex.MemWrite,
			RegWrite:   p.idex.RegWrite,
			MemToReg:   p.idex.MemToReg,
		}
	}

	// Stage 2: Decode. On a stall the bubble enters ID/EX instead and
	// IF/ID is not consumed.
	var nextIDEX IDEXRegister
	if p.ifid.Valid && !stallResult.StallID {
		decResult := p.decodeStage.Decode(p.ifid.Inst)
		nextIDEX = IDEXRegister{
			Valid:    true,
			PC:       p.ifid.PC,
			Inst:     decResult.Inst,
			RsValue:  decResult.RsValue,
			RtValue:  decResult.RtValue,
			Dest:     decResult.Dest,
			MemRead:  decResult.MemRead,
			MemWrite: decResult.MemWrite,
			RegWrite: decResult.RegWrite,
			MemToReg: decResult.MemToReg,
		}
	}

	// Stage 1: Fetch. Past the end of the program bubbles drain in.
	var nextIFID IFIDRegister
	if stallResult.StallIF {
		nextIFID = p.ifid
		p.stats.Stalls++
	} else if inst, ok := p.fetchStage.Fetch(p.pc); ok {
		nextIFID = IFIDRegister{Valid: true, PC: p.pc, Inst: inst}
		p.pc++
	}

	// Publish the new latch set atomically at the cycle boundary.
	p.memwb = nextMEMWB
	p.exmem = nextEXMEM
	p.idex = nextIDEX
	p.ifid = nextIFID

	return p.snapshot(loadUseHazard), nil
}

// Run invokes Step exactly cycles times, returning the final snapshot.
// It stops at the first error.
func (p *Pipeline) Run(cycles uint64) (Snapshot, error) {
	if cycles == 0 {
		return Snapshot{}, errors.New("cycle count must be positive")
	}

	var snap Snapshot
	var err error
	for i := uint64(0); i < cycles; i++ {
		snap, err = p.Step()
		if err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}
