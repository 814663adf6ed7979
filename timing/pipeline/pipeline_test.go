package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsim/emu"
	"github.com/sarchlab/mipsim/insts"
	"github.com/sarchlab/mipsim/timing/pipeline"
)

func mustParse(lines ...string) []insts.Instruction {
	program := make([]insts.Instruction, 0, len(lines))
	for _, line := range lines {
		inst, err := insts.ParseInstruction(line)
		Expect(err).ToNot(HaveOccurred())
		program = append(program, inst)
	}
	return program
}

var _ = Describe("Pipeline", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		pipe    *pipeline.Pipeline
	)

	BeforeEach(func() {
		regFile = emu.NewRegFile()
		memory = emu.NewMemory()
		pipe = pipeline.NewPipeline(regFile, memory)
	})

	Describe("Load", func() {
		It("should reset the PC, latches, and counters", func() {
			Expect(pipe.Load(mustParse("addi $1, $0, 5"))).To(Succeed())
			_, err := pipe.Run(3)
			Expect(err).ToNot(HaveOccurred())

			Expect(pipe.Load(mustParse("addi $2, $0, 6"))).To(Succeed())

			Expect(pipe.PC()).To(Equal(0))
			Expect(pipe.Stats()).To(Equal(pipeline.Statistics{}))
			Expect(pipe.GetIFID().Valid).To(BeFalse())
			Expect(pipe.GetIDEX().Valid).To(BeFalse())
		})

		It("should keep architectural state by default", func() {
			memory.SetWord(0, 42)
			regFile.Write(1, 7)

			Expect(pipe.Load(mustParse("lw $2, 0($0)"))).To(Succeed())

			Expect(memory.Word(0)).To(Equal(int32(42)))
			Expect(regFile.Read(1)).To(Equal(int32(7)))
		})

		It("should clear architectural state when configured to", func() {
			pipe = pipeline.NewPipeline(regFile, memory,
				pipeline.WithClearArchStateOnLoad())
			memory.SetWord(0, 42)
			regFile.Write(1, 7)

			Expect(pipe.Load(mustParse("nop"))).To(Succeed())

			Expect(memory.Word(0)).To(Equal(int32(0)))
			Expect(regFile.Read(1)).To(Equal(int32(0)))
		})

		It("should reject an invalid instruction", func() {
			program := []insts.Instruction{
				{Op: insts.OpADD, Rd: 40, Rs: 1, Rt: 2},
			}

			err := pipe.Load(program)

			Expect(err).To(MatchError(insts.ErrRegisterOutOfRange))
		})
	})

	Describe("Run", func() {
		It("should reject a zero cycle budget", func() {
			Expect(pipe.Load(mustParse("nop"))).To(Succeed())

			_, err := pipe.Run(0)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("executing a straight-line program", func() {
		BeforeEach(func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 5",
				"addi $2, $0, 10",
				"add $3, $1, $2",
				"sw $3, 0($0)",
				"lw $4, 0($0)",
			))).To(Succeed())
		})

		It("should retire all five instructions in nine cycles", func() {
			snap, err := pipe.Run(9)

			Expect(err).ToNot(HaveOccurred())
			Expect(snap.Retired).To(Equal(uint64(5)))
			Expect(snap.Cycle).To(Equal(uint64(9)))
			Expect(pipe.Stats().Stalls).To(Equal(uint64(0)))
		})

		It("should produce the correct architectural result", func() {
			_, err := pipe.Run(9)

			Expect(err).ToNot(HaveOccurred())
			Expect(regFile.Read(1)).To(Equal(int32(5)))
			Expect(regFile.Read(2)).To(Equal(int32(10)))
			Expect(regFile.Read(3)).To(Equal(int32(15)))
			Expect(regFile.Read(4)).To(Equal(int32(15)))
			Expect(memory.Word(0)).To(Equal(int32(15)))
		})

		It("should drain to an empty pipeline without extra retires", func() {
			snap, err := pipe.Run(20)

			Expect(err).ToNot(HaveOccurred())
			Expect(snap.Retired).To(Equal(uint64(5)))
			Expect(snap.IFID.Valid).To(BeFalse())
			Expect(snap.IDEX.Valid).To(BeFalse())
			Expect(snap.EXMEM.Valid).To(BeFalse())
			Expect(snap.MEMWB.Valid).To(BeFalse())
		})
	})

	Describe("load-use hazards", func() {
		BeforeEach(func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 7",
				"sw $1, 0($0)",
				"lw $2, 0($0)",
				"add $3, $2, $2",
			))).To(Succeed())
		})

		It("should stall exactly one cycle", func() {
			var stalledCycles []uint64
			for i := 0; i < 9; i++ {
				snap, err := pipe.Step()
				Expect(err).ToNot(HaveOccurred())
				if snap.Stalled {
					stalledCycles = append(stalledCycles, snap.Cycle)
				}
			}

			Expect(stalledCycles).To(Equal([]uint64{5}))
			Expect(pipe.Stats().Stalls).To(Equal(uint64(1)))
		})

		It("should forward the loaded word to the dependent instruction", func() {
			snap, err := pipe.Run(9)

			Expect(err).ToNot(HaveOccurred())
			Expect(regFile.Read(2)).To(Equal(int32(7)))
			Expect(regFile.Read(3)).To(Equal(int32(14)))
			Expect(snap.Retired).To(Equal(uint64(4)))
		})

		It("should hold IF/ID across the stall cycle", func() {
			var before, after pipeline.Snapshot
			for i := 0; i < 5; i++ {
				var err error
				if i == 3 {
					before, err = pipe.Step()
				} else {
					after, err = pipe.Step()
				}
				Expect(err).ToNot(HaveOccurred())
			}

			// Cycle 5 stalled, so cycle 4 and 5 publish the same IF/ID.
			Expect(after.Stalled).To(BeTrue())
			Expect(after.IFID).To(Equal(before.IFID))
			Expect(after.PC).To(Equal(before.PC))
			Expect(after.IDEX.Valid).To(BeFalse())
		})
	})

	Describe("forwarding between back-to-back producers", func() {
		It("should resolve an arithmetic dependence chain without stalls", func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 1",
				"add $2, $1, $1",
				"add $3, $2, $2",
				"add $4, $3, $3",
			))).To(Succeed())

			snap, err := pipe.Run(8)

			Expect(err).ToNot(HaveOccurred())
			Expect(pipe.Stats().Stalls).To(Equal(uint64(0)))
			Expect(snap.Retired).To(Equal(uint64(4)))
			Expect(regFile.Read(2)).To(Equal(int32(2)))
			Expect(regFile.Read(3)).To(Equal(int32(4)))
			Expect(regFile.Read(4)).To(Equal(int32(8)))
		})

		It("should forward the store value for a dependent store", func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 9",
				"sw $1, 8($0)",
			))).To(Succeed())

			_, err := pipe.Run(6)

			Expect(err).ToNot(HaveOccurred())
			Expect(memory.Word(2)).To(Equal(int32(9)))
		})
	})

	Describe("register 0", func() {
		It("should stay zero through every cycle", func() {
			Expect(pipe.Load(mustParse(
				"addi $0, $0, 5",
				"add $0, $0, $0",
				"addi $1, $0, 3",
			))).To(Succeed())

			for i := 0; i < 8; i++ {
				snap, err := pipe.Step()
				Expect(err).ToNot(HaveOccurred())
				Expect(snap.Registers[0]).To(Equal(int32(0)))
			}
			Expect(regFile.Read(1)).To(Equal(int32(3)))
		})

		It("should not count writes to register 0 against retirement", func() {
			Expect(pipe.Load(mustParse("addi $0, $0, 5"))).To(Succeed())

			snap, err := pipe.Run(6)

			Expect(err).ToNot(HaveOccurred())
			// The instruction still flows through and retires. Only its
			// register write is suppressed.
			Expect(snap.Retired).To(Equal(uint64(1)))
			Expect(snap.Registers[0]).To(Equal(int32(0)))
		})
	})

	Describe("NOPs and bubbles", func() {
		It("should not retire explicit NOPs", func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 1",
				"nop",
				"nop",
				"addi $2, $0, 2",
			))).To(Succeed())

			snap, err := pipe.Run(10)

			Expect(err).ToNot(HaveOccurred())
			Expect(snap.Retired).To(Equal(uint64(2)))
			Expect(regFile.Read(1)).To(Equal(int32(1)))
			Expect(regFile.Read(2)).To(Equal(int32(2)))
		})

		It("should run an empty program as pure bubbles", func() {
			Expect(pipe.Load(nil)).To(Succeed())

			snap, err := pipe.Run(5)

			Expect(err).ToNot(HaveOccurred())
			Expect(snap.Retired).To(Equal(uint64(0)))
			Expect(snap.Cycle).To(Equal(uint64(5)))
		})
	})

	Describe("memory faults", func() {
		It("should surface an unaligned load address", func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 2",
				"lw $2, 0($1)",
			))).To(Succeed())

			_, err := pipe.Run(10)

			Expect(err).To(MatchError(emu.ErrUnalignedAddress))
		})

		It("should surface an out-of-range store address", func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 4096",
				"sw $1, 0($1)",
			))).To(Succeed())

			_, err := pipe.Run(10)

			Expect(err).To(MatchError(emu.ErrAddressOutOfRange))
		})
	})

	Describe("determinism", func() {
		It("should reproduce the same snapshot sequence after Reset", func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 7",
				"sw $1, 0($0)",
				"lw $2, 0($0)",
				"add $3, $2, $2",
			))).To(Succeed())

			first := make([]pipeline.Snapshot, 0, 9)
			for i := 0; i < 9; i++ {
				snap, err := pipe.Step()
				Expect(err).ToNot(HaveOccurred())
				first = append(first, snap)
			}

			pipe.Reset()

			second := make([]pipeline.Snapshot, 0, 9)
			for i := 0; i < 9; i++ {
				snap, err := pipe.Step()
				Expect(err).ToNot(HaveOccurred())
				second = append(second, snap)
			}

			Expect(second).To(Equal(first))
		})
	})

	Describe("Statistics", func() {
		It("should compute CPI over retired instructions", func() {
			Expect(pipe.Load(mustParse(
				"addi $1, $0, 1",
				"addi $2, $0, 2",
			))).To(Succeed())

			_, err := pipe.Run(6)

			Expect(err).ToNot(HaveOccurred())
			stats := pipe.Stats()
			Expect(stats.Instructions).To(Equal(uint64(2)))
			Expect(stats.CPI()).To(Equal(3.0))
		})

		It("should report zero CPI before anything retires", func() {
			Expect(pipeline.Statistics{}.CPI()).To(Equal(0.0))
		})
	})
})
