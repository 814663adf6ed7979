// Package emu provides the architectural state of the simulated machine:
// the general-purpose register file and the word-addressable data memory.
package emu

// NumRegs is the number of general-purpose registers.
const NumRegs = 32

// RegFile represents the register file: 32 signed words, $0 through $31.
// Register 0 is hardwired to zero; writes to it are discarded and reads
// always yield 0.
type RegFile struct {
	x [NumRegs]int32
}

// NewRegFile creates a register file with all registers zero.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// Read reads a register value. Register 0 and out-of-range indexes read as 0.
func (r *RegFile) Read(reg uint8) int32 {
	if reg == 0 || reg >= NumRegs {
		return 0
	}
	return r.x[reg]
}

// Write writes a value to a register. Writes to register 0 and to
// out-of-range indexes are ignored.
func (r *RegFile) Write(reg uint8, value int32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.x[reg] = value
}

// Values returns a copy of all register values.
func (r *RegFile) Values() [NumRegs]int32 {
	return r.x
}

// Reset sets every register to zero.
func (r *RegFile) Reset() {
	r.x = [NumRegs]int32{}
}
