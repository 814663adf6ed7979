// Package core provides the high-level simulator core.
// It owns the architectural state and wraps the pipeline engine behind a
// simple Load/Step/Run/Reset surface.
package core

import (
	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of load-use stall cycles.
	Stalls uint64
	// CPI is the cycles per retired instruction.
	CPI float64
}

// Core represents one independent simulator instance. Multiple cores can
// run side by side; nothing is shared between them.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline engine.
	Pipeline *pipeline.Pipeline

	regFile *emu.RegFile
	memory  *emu.Memory
}

// NewCore creates a core with fresh architectural state.
func NewCore(opts ...pipeline.Option) *Core {
	regFile := emu.NewRegFile()
	memory := emu.NewMemory()
	return &Core{
		Pipeline: pipeline.NewPipeline(regFile, memory, opts...),
		regFile:  regFile,
		memory:   memory,
	}
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Memory returns the core's data memory.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Load validates and installs a program. See pipeline.Pipeline.Load for
// the reset semantics.
func (c *Core) Load(program []insts.Instruction) error {
	return c.Pipeline.Load(program)
}

// Step advances the core by one cycle.
func (c *Core) Step() (pipeline.Snapshot, error) {
	return c.Pipeline.Step()
}

// Run advances the core by the given number of cycles and returns the
// final snapshot.
func (c *Core) Run(cycles uint64) (pipeline.Snapshot, error) {
	return c.Pipeline.Run(cycles)
}

// RunWith advances the core by the given number of cycles, calling
// observe with every per-cycle snapshot. This is the hook external
// loggers attach to.
func (c *Core) RunWith(cycles uint64, observe func(pipeline.Snapshot)) error {
	for i := uint64(0); i < cycles; i++ {
		snap, err := c.Pipeline.Step()
		if err != nil {
			return err
		}
		if observe != nil {
			observe(snap)
		}
	}
	return nil
}

// Reset clears all core state. The loaded program is kept.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Stalls:       pipeStats.Stalls,
		CPI:          pipeStats.CPI(),
	}
}
