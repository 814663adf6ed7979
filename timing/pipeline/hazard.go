package pipeline

import "github.com/sarchlab/mipsim/insts"

// ForwardSource indicates where a forwarded operand value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use the register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from the EX/MEM pipeline register.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from the MEM/WB pipeline register.
	ForwardFromMEMWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardRs specifies the forwarding source for the rs operand.
	ForwardRs ForwardSource
	// ForwardRt specifies the forwarding source for the rt operand.
	// For stores this covers the store-data value as well, since sw
	// sources its data from rt.
	ForwardRt ForwardSource
}

// StallResult contains stall control signals.
type StallResult struct {
	// StallIF indicates the Fetch stage should hold the PC and IF/ID.
	StallIF bool
	// StallID indicates the Decode stage should not consume IF/ID.
	StallID bool
	// InsertBubbleEX indicates a bubble should enter ID/EX this cycle.
	InsertBubbleEX bool
}

// HazardUnit detects data hazards and resolves operand forwarding.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines forwarding for the instruction entering
// Execute. A source register matches when a downstream latch holds a
// non-bubble instruction whose destination equals it and is not $0.
func (h *HazardUnit) DetectForwarding(
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardingResult {
	result := ForwardingResult{
		ForwardRs: ForwardNone,
		ForwardRt: ForwardNone,
	}

	if !idex.Valid {
		return result
	}

	if idex.Inst.ReadsRs() {
		result.ForwardRs = h.detectForwardForReg(idex.Inst.Rs, exmem, memwb)
	}
	if idex.Inst.ReadsRt() {
		result.ForwardRt = h.detectForwardForReg(idex.Inst.Rt, exmem, memwb)
	}

	return result
}

// detectForwardForReg checks if a specific register needs forwarding.
func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	// $0 always reads as zero, never forwarded.
	if reg == 0 {
		return ForwardNone
	}

	// EX/MEM has precedence over MEM/WB: it holds the more recently
	// produced value when both write the same register.
	if exmem.Valid && exmem.RegWrite && exmem.Dest == reg {
		return ForwardFromEXMEM
	}

	if memwb.Valid && memwb.RegWrite && memwb.Dest == reg {
		return ForwardFromMEMWB
	}

	return ForwardNone
}

// DetectLoadUseHazard detects a load-use hazard between the instruction in
// ID/EX (about to execute) and the candidate instruction leaving Decode.
// A hazard exists when ID/EX holds a load whose destination is read as a
// source by the candidate. The loaded value cannot be forwarded in time
// for the candidate's own Execute, so one stall cycle is required.
func (h *HazardUnit) DetectLoadUseHazard(idex *IDEXRegister, candidate insts.Instruction) bool {
	if !idex.Valid || !idex.MemRead {
		return false
	}

	// $0 is always correctly zero regardless of timing.
	if idex.Dest == 0 {
		return false
	}

	if candidate.ReadsRs() && candidate.Rs == idex.Dest {
		return true
	}
	if candidate.ReadsRt() && candidate.Rt == idex.Dest {
		return true
	}

	return false
}

// ComputeStalls turns the hazard decision into per-stage stall signals.
func (h *HazardUnit) ComputeStalls(loadUseHazard bool) StallResult {
	result := StallResult{}

	// Load-use hazard: hold IF and ID, insert a bubble into EX.
	if loadUseHazard {
		result.StallIF = true
		result.StallID = true
		result.InsertBubbleEX = true
	}

	return result
}

// GetForwardedValue returns the operand value to use based on the
// forwarding decision. For MEM/WB the loaded word is used for loads and
// the ALU result otherwise.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	regFileValue int32,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) int32 {
	switch forward {
	case ForwardFromEXMEM:
		return exmem.Result
	case ForwardFromMEMWB:
		if memwb.MemToReg {
			return memwb.MemData
		}
		return memwb.Result
	default:
		return regFileValue
	}
}
