// Package insts provides the APEX instruction set: a closed enum of
// opcode tags, the decoded Instruction representation, and a pure
// disassembler.
//
// Instructions are produced by the asm package (or constructed
// directly by tests) and consumed by timing/pipeline. Nothing in this
// package touches the filesystem or depends on timing/pipeline.
package insts

import "fmt"

// Opcode identifies an APEX instruction. It is a closed set — there is
// no "unknown but valid" opcode. The assembler rejects a mnemonic it
// can't resolve to one of these; OpUnknown is the zero value, which the
// pipeline treats as NOP.
type Opcode uint8

// APEX opcodes.
const (
	OpUnknown Opcode = iota
	OpNOP
	OpMOVC
	OpADD
	OpSUB
	OpMUL
	OpAND
	OpOR
	OpXOR
	OpLOAD
	OpLDR
	OpSTORE
	OpBZ
	OpBNZ
	OpJUMP
	OpHALT
)

// String returns the mnemonic for an opcode.
func (o Opcode) String() string {
	switch o {
	case OpNOP:
		return "NOP"
	case OpMOVC:
		return "MOVC"
	case OpADD:
		return "ADD"
	case OpSUB:
		return "SUB"
	case OpMUL:
		return "MUL"
	case OpAND:
		return "AND"
	case OpOR:
		return "OR"
	case OpXOR:
		return "XOR"
	case OpLOAD:
		return "LOAD"
	case OpLDR:
		return "LDR"
	case OpSTORE:
		return "STORE"
	case OpBZ:
		return "BZ"
	case OpBNZ:
		return "BNZ"
	case OpJUMP:
		return "JUMP"
	case OpHALT:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}

// Instruction is a decoded APEX instruction. Register fields that an
// opcode doesn't use are left at their zero value and simply ignored by
// every stage — callers never need to know which fields are "live" for
// a given opcode; the opcode's behavior decides that on its own.
type Instruction struct {
	Op  Opcode
	Rd  uint8
	Rs1 uint8
	Rs2 uint8
	Imm int64
}

// NOP is the canonical empty instruction used to fill latches that
// carry no in-flight work (initial pipeline state, stalls that must
// still present *something* to a stage, and squashed slots).
var NOP = Instruction{Op: OpNOP}

// ReadsRs1 reports whether the instruction reads Rs1 during decode.
func (i Instruction) ReadsRs1() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpLOAD, OpLDR, OpSTORE, OpJUMP:
		return true
	default:
		return false
	}
}

// ReadsRs2 reports whether the instruction reads Rs2 during decode.
func (i Instruction) ReadsRs2() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpLDR, OpSTORE:
		return true
	default:
		return false
	}
}

// WritesRd reports whether the instruction commits a value to Rd in
// writeback.
func (i Instruction) WritesRd() bool {
	switch i.Op {
	case OpMOVC, OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpLOAD, OpLDR:
		return true
	default:
		return false
	}
}

// UpdatesFlags reports whether writeback of this instruction updates
// the Z/NZ flags.
func (i Instruction) UpdatesFlags() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL:
		return true
	default:
		return false
	}
}

// IsMemory reports whether the instruction accesses data memory.
func (i Instruction) IsMemory() bool {
	return i.Op == OpLOAD || i.Op == OpLDR || i.Op == OpSTORE
}

// IsBranch reports whether the instruction is a control-flow
// instruction resolved in Execute.
func (i Instruction) IsBranch() bool {
	return i.Op == OpBZ || i.Op == OpBNZ || i.Op == OpJUMP
}

// Disassemble renders the instruction the way the trace sink and the
// assembler's text grammar both expect — the two are deliberately the
// same format so a printed trace line parses back to this struct.
func Disassemble(i Instruction) string {
	switch i.Op {
	case OpMOVC:
		return fmt.Sprintf("MOVC,R%d,#%d", i.Rd, i.Imm)
	case OpSTORE:
		return fmt.Sprintf("STORE,R%d,R%d,#%d", i.Rs1, i.Rs2, i.Imm)
	case OpLOAD:
		return fmt.Sprintf("LOAD,R%d,R%d,#%d", i.Rd, i.Rs1, i.Imm)
	case OpLDR:
		return fmt.Sprintf("LDR,R%d,R%d,R%d", i.Rd, i.Rs1, i.Rs2)
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR:
		return fmt.Sprintf("%s,R%d,R%d,R%d", i.Op, i.Rd, i.Rs1, i.Rs2)
	case OpBZ, OpBNZ:
		return fmt.Sprintf("%s,#%d", i.Op, i.Imm)
	case OpJUMP:
		return fmt.Sprintf("JUMP,R%d,#%d", i.Rs1, i.Imm)
	case OpHALT:
		return "HALT"
	default:
		return "NOP"
	}
}
