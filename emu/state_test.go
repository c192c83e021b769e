package emu_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rlotlik1/apexsim/emu"
)

func TestEmu(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Emu Suite")
}

var _ = Describe("RegisterFile", func() {
	It("reads back what it writes", func() {
		var f emu.RegisterFile
		f.Write(3, 42)
		Expect(f.Read(3)).To(Equal(int64(42)))
	})

	It("reads zero for a fresh register", func() {
		var f emu.RegisterFile
		Expect(f.Read(0)).To(Equal(int64(0)))
	})

	It("ignores out-of-range reads and writes", func() {
		var f emu.RegisterFile
		f.Write(200, 7)
		Expect(f.Read(200)).To(Equal(int64(0)))
	})
})

var _ = Describe("Scoreboard", func() {
	var sb *emu.Scoreboard

	BeforeEach(func() {
		sb = emu.NewScoreboard()
	})

	It("starts with every register valid", func() {
		for r := uint8(0); r < emu.NumRegisters; r++ {
			Expect(sb.IsValid(r)).To(BeTrue())
		}
	})

	It("clears validity on MarkPending and restores it on MarkCommitted", func() {
		sb.MarkPending(5)
		Expect(sb.IsValid(5)).To(BeFalse())

		sb.MarkCommitted(5)
		Expect(sb.IsValid(5)).To(BeTrue())
	})
})

var _ = Describe("Flags", func() {
	It("sets Z and clears NZ for a zero result", func() {
		var f emu.Flags
		f.Update(0)
		Expect(f.Z).To(BeTrue())
		Expect(f.NZ).To(BeFalse())
	})

	It("clears Z and sets NZ for a non-zero result", func() {
		var f emu.Flags
		f.Update(-3)
		Expect(f.Z).To(BeFalse())
		Expect(f.NZ).To(BeTrue())
	})
})

var _ = Describe("DataMemory", func() {
	var mem *emu.DataMemory

	BeforeEach(func() {
		mem = emu.NewDataMemory()
	})

	It("reads back what it writes", func() {
		mem.Write(10, 99)
		Expect(mem.Read(10)).To(Equal(int64(99)))
	})

	It("wraps addresses at or beyond the memory size", func() {
		mem.Write(emu.DataMemorySize, 7)
		Expect(mem.Read(0)).To(Equal(int64(7)))
	})

	It("wraps negative addresses into range", func() {
		mem.Write(-1, 11)
		Expect(mem.Read(emu.DataMemorySize - 1)).To(Equal(int64(11)))
	})

	It("snapshots the first n cells", func() {
		mem.Write(0, 1)
		mem.Write(1, 2)
		snap := mem.Snapshot(3)
		Expect(snap).To(Equal([]int64{1, 2, 0}))
	})
})
