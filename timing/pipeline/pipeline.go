// Package pipeline drives the five APEX stages — Fetch, Decode/Register
// Read, Execute, Memory, Writeback — one cycle at a time. Stages are
// evaluated in reverse program order within a single Tick (WB, MEM, EX,
// DRF, F). Decode and Fetch read the pipeline registers as they stood
// at the end of the previous cycle, and the F->DRF, DRF->EX and EX->MEM
// registers commit together once every stage has run. The MEM->WB
// register is the exception: Memory overwrites it in place right after
// Writeback has consumed it, so Execute sees this cycle's Memory output
// (the branch flag backstop in doExecute relies on that).
package pipeline

import (
	"context"

	"github.com/rlotlik1/apexsim/emu"
	"github.com/rlotlik1/apexsim/insts"
)

// CodeBase is the starting program counter of the first instruction.
const CodeBase = 4000

// InstructionWidth is the byte width of one APEX instruction.
const InstructionWidth = 4

// DefaultHaltThreshold is how many cycles the pipeline runs once a
// fetched HALT has moved past Fetch before stopping; with HALT flowing
// one stage a cycle from Decode on, the fourth such cycle is the one in
// which it reaches Writeback. Per §9 Open Question 3 the counter is
// sticky and never reset by a later branch.
const DefaultHaltThreshold = 4

// Stats accumulates the run's performance counters.
type Stats struct {
	Cycles       int64
	Instructions int64
	Stalls       int64
	Branches     int64
	Flushes      int64
}

// CPI returns cycles per instruction, or 0 if no instruction has
// retired yet.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// CycleTrace is what a trace sink receives once per cycle: the
// disassembly currently occupying each of the five stages, "NOP" for a
// bubble.
type CycleTrace struct {
	Cycle                      int64
	Fetch, Decode              string
	Execute, Memory, Writeback string
}

// TraceSink receives one CycleTrace per Tick. Implementations live in
// timing/trace; the pipeline only depends on this narrow interface so
// it never has to import a rendering package.
type TraceSink interface {
	Record(CycleTrace)
}

// Pipeline holds the architectural state plus the four inter-stage
// latches and drives them forward one cycle at a time.
type Pipeline struct {
	code []insts.Instruction

	regs  *emu.RegisterFile
	score *emu.Scoreboard
	flags emu.Flags
	dmem  *emu.DataMemory
	hz    *hazardUnit

	pc     int64
	halted bool

	fetchOut   Latch // F  -> DRF
	decodeOut  Latch // DRF -> EX
	executeOut Latch // EX -> MEM
	memoryOut  Latch // MEM -> WB

	exBusy     bool
	exOccupant Latch

	// branchStall holds a BZ/BNZ that reached EX while the flag-producing
	// ADD/SUB/MUL ahead of it was still in MEM, per §4.3: the flags won't
	// commit until that instruction's Writeback, which runs before this
	// cycle's Execute, so holding one cycle is always enough.
	branchStall      bool
	branchStallLatch Latch

	haltThreshold int
	haltCount     int

	cycleBudget int64
	stats       Stats

	sink TraceSink
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithForwarding enables the EX-bypass/MEM-bypass forwarding network.
// Without it, Decode stalls on the scoreboard alone.
func WithForwarding() Option {
	return func(p *Pipeline) { p.hz.forwardingEnabled = true }
}

// WithTraceSink attaches a per-cycle trace sink.
func WithTraceSink(sink TraceSink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// WithCycleBudget bounds the run to at most n cycles (0 means
// unbounded, left to the program's own termination).
func WithCycleBudget(n int64) Option {
	return func(p *Pipeline) { p.cycleBudget = n }
}

// WithHaltThreshold overrides DefaultHaltThreshold.
func WithHaltThreshold(n int) Option {
	return func(p *Pipeline) { p.haltThreshold = n }
}

// New builds a Pipeline over a fixed program image. Registers, flags,
// and data memory start zeroed; the scoreboard starts fully valid.
func New(code []insts.Instruction, opts ...Option) *Pipeline {
	p := &Pipeline{
		code:          code,
		regs:          &emu.RegisterFile{},
		score:         emu.NewScoreboard(),
		dmem:          emu.NewDataMemory(),
		hz:            newHazardUnit(false),
		pc:            CodeBase,
		haltThreshold: DefaultHaltThreshold,
		fetchOut:      emptyLatch,
		decodeOut:     emptyLatch,
		executeOut:    emptyLatch,
		memoryOut:     emptyLatch,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registers exposes the register file for callers that need to read
// final architectural state (the report package, tests).
func (p *Pipeline) Registers() *emu.RegisterFile { return p.regs }

// Scoreboard exposes the scoreboard for the same reason.
func (p *Pipeline) Scoreboard() *emu.Scoreboard { return p.score }

// DataMemory exposes data memory for the same reason.
func (p *Pipeline) DataMemory() *emu.DataMemory { return p.dmem }

// Stats returns the accumulated performance counters.
func (p *Pipeline) Stats() Stats { return p.stats }

func pcToIndex(pc int64) int {
	return int((pc - CodeBase) / InstructionWidth)
}

// Done reports whether the pipeline has reached a termination
// condition: every instruction has retired, the cycle budget (if any)
// is spent, or the sticky halt counter has reached its threshold.
func (p *Pipeline) Done() bool {
	if int(p.stats.Instructions) >= len(p.code) {
		return true
	}
	if p.cycleBudget > 0 && p.stats.Cycles >= p.cycleBudget {
		return true
	}
	if p.haltCount >= p.haltThreshold {
		return true
	}
	return false
}

// Run ticks the pipeline until Done or ctx is cancelled, checking the
// context once per cycle.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	for !p.Done() {
		select {
		case <-ctx.Done():
			return p.stats, ctx.Err()
		default:
		}
		p.Tick()
	}
	return p.stats, nil
}

// Tick evaluates one cycle: Writeback, Memory, Execute, Decode, Fetch,
// in that order, then commits the F->DRF, DRF->EX and EX->MEM pipeline
// registers at once (Memory has already replaced MEM->WB in place).
func (p *Pipeline) Tick() {
	p.stats.Cycles++

	// Snapshot what's "in MEM" and "in WB" before this cycle's
	// Memory/Writeback touch them, for the branch hazard guard.
	inMEM := p.executeOut.Inst
	inWB := p.memoryOut.Inst

	p.doWriteback()
	p.doMemory()

	nextExecuteOut, exStructuralStall, branchTakenNow, branchPC := p.doExecute()
	nextDecodeOut, drfStall := p.doDecode(inMEM, inWB, exStructuralStall, branchTakenNow)
	nextFetchOut, nextPC := p.doFetch(drfStall || exStructuralStall, branchTakenNow, branchPC)

	if branchTakenNow {
		p.stats.Flushes += 2
	}

	if nextFetchOut.Inst.Op == insts.OpHALT {
		p.halted = true
	}

	p.executeOut = nextExecuteOut
	p.decodeOut = nextDecodeOut
	p.fetchOut = nextFetchOut
	p.pc = nextPC

	if drfStall || exStructuralStall {
		p.stats.Stalls++
	}
	// Sticky per §9 Open Question 3: once tripped, never cleared by a
	// later branch — it exists purely to force termination if a drain
	// stalls out after HALT has already been fetched. Cycles in which
	// HALT is still held in the F->DRF register are not counted, so the
	// instructions ahead of it get to retire.
	if p.halted && p.fetchOut.Inst.Op != insts.OpHALT {
		p.haltCount++
	}

	if p.sink != nil {
		p.sink.Record(CycleTrace{
			Cycle:      p.stats.Cycles,
			Fetch:      insts.Disassemble(p.fetchOut.Inst),
			Decode:     insts.Disassemble(p.decodeOut.Inst),
			Execute:    insts.Disassemble(p.executeOut.Inst),
			Memory:     insts.Disassemble(p.memoryOut.Inst),
			Writeback:  insts.Disassemble(inWB),
		})
	}
}

// doWriteback commits the MEM->WB latch: register write, flag update,
// scoreboard release, and the sticky halt counter.
func (p *Pipeline) doWriteback() {
	latch := p.memoryOut
	if latch.IsEmpty() {
		return
	}

	if latch.Inst.WritesRd() {
		p.regs.Write(latch.Inst.Rd, latch.Buffer)
		p.score.MarkCommitted(latch.Inst.Rd)
	}
	if latch.Inst.UpdatesFlags() {
		p.flags.Update(latch.Buffer)
	}

	p.stats.Instructions++
}

// doMemory refreshes the MEM-bypass bus from last cycle's EX-bypass
// bus, then services the EX->MEM latch: STORE writes, LOAD/LDR read
// and publish to MEM-bypass. The result replaces memoryOut.
func (p *Pipeline) doMemory() {
	p.hz.advanceCycle()

	latch := p.executeOut
	if latch.IsEmpty() {
		p.memoryOut = emptyLatch
		return
	}

	switch latch.Inst.Op {
	case insts.OpSTORE:
		p.dmem.Write(latch.MemAddress, latch.Rs1Value)
	case insts.OpLOAD, insts.OpLDR:
		value := p.dmem.Read(latch.MemAddress)
		latch.Buffer = value
		p.hz.publishMEM(latch.Inst.Rd, value)
	}

	p.memoryOut = latch
}

// doExecute evaluates the current EX occupant: either finishing a
// MUL's second cycle, retrying a branch that was held for the §4.3
// flag hazard, or consuming decodeOut fresh. It returns the latch to
// install as executeOut, whether EX just became structurally busy
// (MUL's first cycle or a held branch, either of which stalls DRF and
// F), and whether a branch resolved taken this cycle along with its
// target PC.
func (p *Pipeline) doExecute() (next Latch, structuralStall bool, taken bool, targetPC int64) {
	if p.exBusy {
		latch := p.exOccupant
		result := computeALU(insts.OpMUL, latch.Rs1Value, latch.Rs2Value)
		latch.Buffer = result
		p.hz.publishEX(latch.Inst.Rd, result)
		p.exBusy = false
		p.exOccupant = Latch{}
		return latch, false, false, 0
	}

	latch := p.decodeOut
	if p.branchStall {
		latch = p.branchStallLatch
		p.branchStall = false
		p.branchStallLatch = Latch{}
	}
	if latch.IsEmpty() {
		return emptyLatch, false, false, 0
	}

	switch latch.Inst.Op {
	case insts.OpMUL:
		p.exOccupant = latch
		p.exBusy = true
		return emptyLatch, true, false, 0

	case insts.OpBZ, insts.OpBNZ, insts.OpJUMP:
		// §4.3 backstop: the DRF-level branchMustStall guard only sees an
		// arithmetic flag-writer that is already in MEM or WB at decode
		// time. An ADD/SUB/MUL one instruction ahead of a branch is still
		// in EX at that point, so it lands in MEM the very cycle the
		// branch reaches EX, with its flags not yet committed. Hold the
		// branch here one cycle; Writeback always runs before Execute
		// within a Tick, so by the retry the flags are current.
		isConditional := latch.Inst.Op == insts.OpBZ || latch.Inst.Op == insts.OpBNZ
		if isConditional && p.memoryOut.Inst.UpdatesFlags() {
			p.branchStall = true
			p.branchStallLatch = latch
			return emptyLatch, true, false, 0
		}
		if branchTaken(latch.Inst.Op, p.flags) {
			target := branchTarget(latch.Inst.Op, latch.PC, latch.Rs1Value, latch.Inst.Imm)
			p.stats.Branches++
			return latch, false, true, target
		}
		return latch, false, false, 0

	case insts.OpSTORE:
		latch.MemAddress = effectiveAddress(insts.OpSTORE, latch.Rs1Value, latch.Rs2Value, latch.Inst.Imm)
		return latch, false, false, 0

	case insts.OpLOAD:
		latch.MemAddress = effectiveAddress(insts.OpLOAD, latch.Rs1Value, latch.Rs2Value, latch.Inst.Imm)
		return latch, false, false, 0

	case insts.OpLDR:
		latch.MemAddress = latch.Rs1Value + latch.Rs2Value
		return latch, false, false, 0

	case insts.OpMOVC:
		latch.Buffer = latch.Inst.Imm
		p.hz.publishEX(latch.Inst.Rd, latch.Buffer)
		return latch, false, false, 0

	case insts.OpHALT, insts.OpNOP:
		return latch, false, false, 0

	default: // ADD, SUB, AND, OR, XOR
		result := computeALU(latch.Inst.Op, latch.Rs1Value, latch.Rs2Value)
		latch.Buffer = result
		p.hz.publishEX(latch.Inst.Rd, result)
		return latch, false, false, 0
	}
}

// doDecode resolves the fetchOut latch's operands and produces the
// next decodeOut latch. It stalls — holding its output as an empty
// bubble so the same instruction re-enters next cycle from fetchOut —
// when EX just became structurally busy, when a pending BZ/BNZ would
// read stale flags, or when an operand isn't available yet.
func (p *Pipeline) doDecode(inMEM, inWB insts.Instruction, exStructuralStall, branchTakenNow bool) (next Latch, stalled bool) {
	if branchTakenNow {
		// The instruction sitting in fetchOut is one of the two slots
		// a taken branch squashes this cycle. Don't resolve it and
		// don't touch the scoreboard on its behalf — it will never
		// reach Execute to justify the pending bit.
		return emptyLatch, false
	}
	if exStructuralStall {
		return emptyLatch, true
	}

	latch := p.fetchOut
	if latch.IsEmpty() {
		return emptyLatch, false
	}

	if (latch.Inst.Op == insts.OpBZ || latch.Inst.Op == insts.OpBNZ) && branchMustStall(inMEM, inWB) {
		return emptyLatch, true
	}

	if latch.Inst.ReadsRs1() {
		res := p.hz.resolve(latch.Inst.Rs1, p.regs, p.score)
		if res.stall {
			return emptyLatch, true
		}
		latch.Rs1Value = res.value
	}
	if latch.Inst.ReadsRs2() {
		res := p.hz.resolve(latch.Inst.Rs2, p.regs, p.score)
		if res.stall {
			return emptyLatch, true
		}
		latch.Rs2Value = res.value
	}

	if latch.Inst.WritesRd() {
		p.score.MarkPending(latch.Inst.Rd)
	}

	return latch, false
}

// doFetch produces the next fetchOut latch and PC. hold keeps the
// current fetchOut and PC in place (DRF or EX is stalled downstream);
// branchTaken redirects the PC instead of advancing sequentially.
func (p *Pipeline) doFetch(hold, branchTakenNow bool, branchPC int64) (next Latch, nextPC int64) {
	if branchTakenNow {
		return emptyLatch, branchPC
	}
	if hold {
		return p.fetchOut, p.pc
	}
	if p.halted {
		return emptyLatch, p.pc
	}

	idx := pcToIndex(p.pc)
	if idx < 0 || idx >= len(p.code) {
		return emptyLatch, p.pc
	}

	inst := p.code[idx]
	return Latch{PC: p.pc, Inst: inst}, p.pc + InstructionWidth
}
