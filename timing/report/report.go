// Package report formats the final architectural state and run
// statistics the way the original simulator's APEX_cpu_run dump loop
// does: registers with their valid/invalid tag, data memory cells 0..98,
// and the performance counters.
package report

import (
	"fmt"
	"io"

	"github.com/rlotlik1/apexsim/emu"
	"github.com/rlotlik1/apexsim/timing/pipeline"
)

// DumpMemoryCells is how many data memory cells the final dump prints.
const DumpMemoryCells = 99

// WriteState dumps R0..R{NumReportedRegisters-1} with their VALID/INVALID
// scoreboard tag and the first DumpMemoryCells data memory cells.
// Registers beyond NumReportedRegisters stay live during execution but
// are not part of the reported state, per §9 Open Question 4.
func WriteState(w io.Writer, regs *emu.RegisterFile, sb *emu.Scoreboard, mem *emu.DataMemory) {
	fmt.Fprintln(w, "================ STATE OF ARCHITECTURAL REGISTER FILE ================")
	for r := uint8(0); r < emu.NumReportedRegisters; r++ {
		tag := "INVALID"
		if sb.IsValid(r) {
			tag = "VALID"
		}
		fmt.Fprintf(w, "| REG[%2d]   | Value = %-8d | Status = %s |\n", r, regs.Read(r), tag)
	}

	fmt.Fprintln(w, "================ STATE OF DATA MEMORY ================")
	cells := mem.Snapshot(DumpMemoryCells)
	for addr, v := range cells {
		fmt.Fprintf(w, "| MEM[%4d] | Value = %d |\n", addr, v)
	}
}

// WriteStats prints the run's performance counters.
func WriteStats(w io.Writer, stats pipeline.Stats) {
	fmt.Fprintln(w, "================ PERFORMANCE COUNTERS ================")
	fmt.Fprintf(w, "Cycles          : %d\n", stats.Cycles)
	fmt.Fprintf(w, "Instructions    : %d\n", stats.Instructions)
	fmt.Fprintf(w, "CPI             : %.3f\n", stats.CPI())
	fmt.Fprintf(w, "Stalls          : %d\n", stats.Stalls)
	fmt.Fprintf(w, "Branches taken  : %d\n", stats.Branches)
	fmt.Fprintf(w, "Flushed slots   : %d\n", stats.Flushes)
}
