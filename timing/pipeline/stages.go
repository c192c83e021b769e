package pipeline

import (
	"github.com/rlotlik1/apexsim/emu"
	"github.com/rlotlik1/apexsim/insts"
)

// computeALU evaluates the arithmetic/logic opcodes. Anything else
// passed in returns 0 — callers only call this for opcodes that are
// actually ALU ops.
func computeALU(op insts.Opcode, rs1, rs2 int64) int64 {
	switch op {
	case insts.OpADD:
		return rs1 + rs2
	case insts.OpSUB:
		return rs1 - rs2
	case insts.OpMUL:
		return rs1 * rs2
	case insts.OpAND:
		return rs1 & rs2
	case insts.OpOR:
		return rs1 | rs2
	case insts.OpXOR:
		return rs1 ^ rs2
	default:
		return 0
	}
}

// effectiveAddress computes the memory address for LOAD (rs1+imm) and
// STORE (rs2+imm per §9 Open Question 1 — confirmed against the
// original's execute() addressing, not the symmetric rs1+imm one might
// guess from LOAD's shape).
func effectiveAddress(op insts.Opcode, rs1Value, rs2Value, imm int64) int64 {
	switch op {
	case insts.OpLOAD:
		return rs1Value + imm
	case insts.OpSTORE:
		return rs2Value + imm
	default:
		return 0
	}
}

// branchTaken evaluates a resolved branch opcode against the current
// flags. JUMP is always taken; BZ/BNZ are gated on Z.
func branchTaken(op insts.Opcode, flags emu.Flags) bool {
	switch op {
	case insts.OpJUMP:
		return true
	case insts.OpBZ:
		return flags.Z
	case insts.OpBNZ:
		return !flags.Z
	default:
		return false
	}
}

// branchTarget computes the redirected PC for a taken branch. BZ/BNZ
// are PC-relative (pc + imm); JUMP is register-relative (rs1 + imm).
func branchTarget(op insts.Opcode, pc, rs1Value, imm int64) int64 {
	switch op {
	case insts.OpJUMP:
		return rs1Value + imm
	default:
		return pc + imm
	}
}
