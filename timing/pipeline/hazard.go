package pipeline

import (
	"github.com/rlotlik1/apexsim/emu"
	"github.com/rlotlik1/apexsim/insts"
)

// operandResult is what resolving a source register during Decode comes
// back with: either a usable value, or a stall.
type operandResult struct {
	value int64
	stall bool
}

// hazardUnit owns the two forwarding buses and knows how to resolve a
// source operand against them, the scoreboard, and the register file.
// It holds no pipeline-cycle state of its own beyond the buses
// themselves; everything else about a stall (which latches hold, which
// advance) is decided by the pipeline driver.
type hazardUnit struct {
	forwardingEnabled bool
	exForward         bypassTable
	memForward        bypassTable
}

func newHazardUnit(forwarding bool) *hazardUnit {
	return &hazardUnit{forwardingEnabled: forwarding}
}

// resolve looks up the value of register r in priority order:
// EX-bypass, then MEM-bypass, then the register file (gated on the
// scoreboard), else a stall. In no-forwarding mode only the scoreboard
// and register file are consulted.
func (h *hazardUnit) resolve(r uint8, regs *emu.RegisterFile, sb *emu.Scoreboard) operandResult {
	if h.forwardingEnabled {
		if v, ok := h.exForward.get(r); ok {
			return operandResult{value: v}
		}
		if v, ok := h.memForward.get(r); ok {
			return operandResult{value: v}
		}
	}
	if sb.IsValid(r) {
		return operandResult{value: regs.Read(r)}
	}
	return operandResult{stall: true}
}

// publishEX records rd's freshly computed ALU result on the EX-bypass
// bus. LOAD/LDR never call this — their value isn't known until MEM, so
// they simply have nothing to publish here, which is what keeps an
// in-flight load from ever being consumed a cycle early off EX-bypass.
func (h *hazardUnit) publishEX(rd uint8, value int64) {
	h.exForward.set(rd, value)
}

// publishMEM records rd's value (a completed load, or an ALU result
// that has drained one stage further) on the MEM-bypass bus.
func (h *hazardUnit) publishMEM(rd uint8, value int64) {
	h.memForward.set(rd, value)
}

// advanceCycle is called once at the top of every Memory stage
// evaluation: whatever EX published last cycle becomes this cycle's
// MEM-bypass content, and the EX-bypass bus is cleared to make room for
// this cycle's own EX results.
func (h *hazardUnit) advanceCycle() {
	h.memForward = h.exForward
	h.exForward.clearAll()
}

// branchMustStall implements the BZ/BNZ hazard guard from §4.2: a
// conditional branch cannot read the flags in Decode while an ADD, SUB,
// or MUL that will update them is still sitting in MEM or WB. inMEM and
// inWB are the occupants of those pipeline registers at the start of
// the cycle, before this cycle's Memory/Writeback run.
func branchMustStall(inMEM, inWB insts.Instruction) bool {
	return updatesFlagsInFlight(inMEM) || updatesFlagsInFlight(inWB)
}

func updatesFlagsInFlight(i insts.Instruction) bool {
	return i.UpdatesFlags()
}
