package pipeline

import "github.com/rlotlik1/apexsim/insts"

// Latch is the payload carried on every pipeline register between two
// adjacent stages (F→DRF, DRF→EX, EX→MEM, MEM→WB). All four positions
// share this one shape, per SPEC_FULL.md §3: an "empty" latch is simply
// one whose Inst.Op is insts.OpNOP, with every other field at its zero
// value and no side effects anywhere downstream.
type Latch struct {
	// PC of the instruction occupying this latch.
	PC int64

	// Inst is the instruction itself.
	Inst insts.Instruction

	// Rs1Value/Rs2Value are the operand values resolved during Decode
	// (already forwarded, if forwarding is enabled).
	Rs1Value int64
	Rs2Value int64

	// Buffer is the ALU result (or MOVC immediate, or loaded value).
	Buffer int64

	// MemAddress is the computed effective address for LOAD/LDR/STORE.
	MemAddress int64
}

// emptyLatch is the canonical NOP-filled latch used to clear a pipeline
// register on squash or on startup.
var emptyLatch = Latch{Inst: insts.NOP}

// Clear resets the latch to the empty/NOP state.
func (l *Latch) Clear() {
	*l = emptyLatch
}

// IsEmpty reports whether the latch carries no in-flight instruction.
func (l *Latch) IsEmpty() bool {
	return l.Inst.Op == insts.OpNOP || l.Inst.Op == insts.OpUnknown
}
