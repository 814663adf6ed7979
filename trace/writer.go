// Package trace renders per-cycle pipeline state for human consumption:
// the classic text trace teaching material expects, plus an HTML activity
// chart.
package trace

import (
	"fmt"
	"io"

	"github.com/sarchlab/mipsim/timing/pipeline"
)

// WriterOption is a functional option for configuring the Writer.
type WriterOption func(*Writer)

// WithRegisterWindow sets how many registers, starting at $0, each cycle
// prints. The default is 8.
func WithRegisterWindow(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 && n <= len(pipeline.Snapshot{}.Registers) {
			w.window = n
		}
	}
}

// Writer renders per-cycle snapshots as a text trace.
type Writer struct {
	out    io.Writer
	window int
}

// NewWriter creates a trace writer targeting out.
func NewWriter(out io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{out: out, window: 8}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteCycle renders one cycle of pipeline state.
func (w *Writer) WriteCycle(s pipeline.Snapshot) error {
	fmt.Fprintf(w.out, "\nCycle %d\n", s.Cycle)
	if s.Stalled {
		fmt.Fprintln(w.out, "Data hazard detected, stalling")
	}
	fmt.Fprintln(w.out, "Pipeline state:")
	fmt.Fprintf(w.out, "  IF/ID:  %s\n", ifidString(s.IFID))
	fmt.Fprintf(w.out, "  ID/EX:  %s\n", idexString(s.IDEX))
	fmt.Fprintf(w.out, "  EX/MEM: %s\n", exmemString(s.EXMEM))
	fmt.Fprintf(w.out, "  MEM/WB: %s\n", memwbString(s.MEMWB))
	fmt.Fprintf(w.out, "  Registers [0-%d]: %v\n", w.window-1, s.Registers[:w.window])
	_, err := fmt.Fprintf(w.out, "  Instructions retired: %d\n", s.Retired)
	return err
}

// WriteSummary appends the end-of-run totals.
func (w *Writer) WriteSummary(stats pipeline.Statistics) error {
	fmt.Fprintf(w.out, "\nTotal cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w.out, "Total stall cycles: %d\n", stats.Stalls)
	_, err := fmt.Fprintf(w.out, "Total instructions executed: %d\n", stats.Instructions)
	return err
}

const bubble = "bubble"

func ifidString(r pipeline.IFIDRegister) string {
	if !r.Valid {
		return bubble
	}
	return fmt.Sprintf("%s (slot %d)", r.Inst, r.PC)
}

func idexString(r pipeline.IDEXRegister) string {
	if !r.Valid {
		return bubble
	}
	return fmt.Sprintf("%s (rs=%d rt=%d)", r.Inst, r.RsValue, r.RtValue)
}

func exmemString(r pipeline.EXMEMRegister) string {
	if !r.Valid {
		return bubble
	}
	if r.MemRead || r.MemWrite {
		return fmt.Sprintf("%s (addr=%d)", r.Inst, r.Addr)
	}
	return fmt.Sprintf("%s (result=%d)", r.Inst, r.Result)
}

func memwbString(r pipeline.MEMWBRegister) string {
	if !r.Valid {
		return bubble
	}
	if r.MemToReg {
		return fmt.Sprintf("%s (mem=%d)", r.Inst, r.MemData)
	}
	return fmt.Sprintf("%s (result=%d)", r.Inst, r.Result)
}
