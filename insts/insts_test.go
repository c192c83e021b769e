package insts_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rlotlik1/apexsim/insts"
)

func TestInsts(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Insts Suite")
}

var _ = Describe("Instruction", func() {
	It("has a zero value that is a NOP-shaped struct", func() {
		var i insts.Instruction
		Expect(i.Op).To(Equal(insts.OpUnknown))
	})

	It("exposes a canonical NOP value", func() {
		Expect(insts.NOP.Op).To(Equal(insts.OpNOP))
	})

	DescribeTable("ReadsRs1",
		func(op insts.Opcode, want bool) {
			Expect(insts.Instruction{Op: op}.ReadsRs1()).To(Equal(want))
		},
		Entry("ADD", insts.OpADD, true),
		Entry("STORE", insts.OpSTORE, true),
		Entry("LOAD", insts.OpLOAD, true),
		Entry("JUMP", insts.OpJUMP, true),
		Entry("MOVC", insts.OpMOVC, false),
		Entry("BZ", insts.OpBZ, false),
		Entry("HALT", insts.OpHALT, false),
	)

	DescribeTable("ReadsRs2",
		func(op insts.Opcode, want bool) {
			Expect(insts.Instruction{Op: op}.ReadsRs2()).To(Equal(want))
		},
		Entry("ADD", insts.OpADD, true),
		Entry("STORE", insts.OpSTORE, true),
		Entry("LDR", insts.OpLDR, true),
		Entry("LOAD", insts.OpLOAD, false),
		Entry("JUMP", insts.OpJUMP, false),
	)

	DescribeTable("WritesRd",
		func(op insts.Opcode, want bool) {
			Expect(insts.Instruction{Op: op}.WritesRd()).To(Equal(want))
		},
		Entry("MOVC", insts.OpMOVC, true),
		Entry("LOAD", insts.OpLOAD, true),
		Entry("LDR", insts.OpLDR, true),
		Entry("STORE", insts.OpSTORE, false),
		Entry("BZ", insts.OpBZ, false),
		Entry("HALT", insts.OpHALT, false),
	)

	DescribeTable("UpdatesFlags",
		func(op insts.Opcode, want bool) {
			Expect(insts.Instruction{Op: op}.UpdatesFlags()).To(Equal(want))
		},
		Entry("ADD", insts.OpADD, true),
		Entry("SUB", insts.OpSUB, true),
		Entry("MUL", insts.OpMUL, true),
		Entry("AND", insts.OpAND, false),
		Entry("LOAD", insts.OpLOAD, false),
	)

	Describe("Disassemble", func() {
		It("renders MOVC", func() {
			s := insts.Disassemble(insts.Instruction{Op: insts.OpMOVC, Rd: 1, Imm: 5})
			Expect(s).To(Equal("MOVC,R1,#5"))
		})

		It("renders STORE with rs1 then rs2", func() {
			s := insts.Disassemble(insts.Instruction{Op: insts.OpSTORE, Rs1: 2, Rs2: 1, Imm: 0})
			Expect(s).To(Equal("STORE,R2,R1,#0"))
		})

		It("renders LOAD", func() {
			s := insts.Disassemble(insts.Instruction{Op: insts.OpLOAD, Rd: 3, Rs1: 1, Imm: 0})
			Expect(s).To(Equal("LOAD,R3,R1,#0"))
		})

		It("renders LDR with three registers", func() {
			s := insts.Disassemble(insts.Instruction{Op: insts.OpLDR, Rd: 3, Rs1: 1, Rs2: 2})
			Expect(s).To(Equal("LDR,R3,R1,R2"))
		})

		It("renders three-register ALU ops", func() {
			s := insts.Disassemble(insts.Instruction{Op: insts.OpADD, Rd: 3, Rs1: 1, Rs2: 2})
			Expect(s).To(Equal("ADD,R3,R1,R2"))
		})

		It("renders BZ/BNZ with only an immediate", func() {
			s := insts.Disassemble(insts.Instruction{Op: insts.OpBZ, Imm: 8})
			Expect(s).To(Equal("BZ,#8"))
		})

		It("renders JUMP", func() {
			s := insts.Disassemble(insts.Instruction{Op: insts.OpJUMP, Rs1: 1, Imm: 4000})
			Expect(s).To(Equal("JUMP,R1,#4000"))
		})

		It("renders bare mnemonics for HALT and NOP", func() {
			Expect(insts.Disassemble(insts.Instruction{Op: insts.OpHALT})).To(Equal("HALT"))
			Expect(insts.Disassemble(insts.NOP)).To(Equal("NOP"))
			Expect(insts.Disassemble(insts.Instruction{Op: insts.OpUnknown})).To(Equal("NOP"))
		})
	})
})
