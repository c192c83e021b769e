package report_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rlotlik1/apexsim/emu"
	"github.com/rlotlik1/apexsim/timing/pipeline"
	"github.com/rlotlik1/apexsim/timing/report"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

var _ = Describe("WriteState", func() {
	It("tags a pending register INVALID and a committed one VALID", func() {
		var regs emu.RegisterFile
		regs.Write(2, 42)
		sb := emu.NewScoreboard()
		sb.MarkPending(5)
		mem := emu.NewDataMemory()

		var buf bytes.Buffer
		report.WriteState(&buf, &regs, sb, mem)
		out := buf.String()

		Expect(out).To(ContainSubstring("REG[ 2]   | Value = 42"))
		Expect(out).To(ContainSubstring("Status = VALID"))
		Expect(out).To(ContainSubstring("Status = INVALID"))
	})
})

var _ = Describe("WriteStats", func() {
	It("prints CPI computed from cycles and instructions", func() {
		var buf bytes.Buffer
		report.WriteStats(&buf, pipeline.Stats{Cycles: 10, Instructions: 4})
		Expect(buf.String()).To(ContainSubstring("CPI             : 2.500"))
	})
})
