// Package asm reads ".apex" program text and produces the instruction
// slice timing/pipeline executes. The format is the mirror image of
// insts.Disassemble's output on purpose: printing a trace line and
// re-parsing it with ParseLine round-trips to the same Instruction,
// which is what the round-trip property in SPEC_FULL.md leans on.
//
// This format and loader sit outside the distilled model's own scope —
// there the program image simply exists — but a runnable command line
// needs some way to get one, so it is supplemented here in the
// teacher's own loader idiom.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rlotlik1/apexsim/insts"
)

// mnemonic to opcode, kept alongside insts.Opcode.String() so parsing
// and disassembly can never silently drift apart.
var mnemonics = map[string]insts.Opcode{
	"NOP":   insts.OpNOP,
	"MOVC":  insts.OpMOVC,
	"ADD":   insts.OpADD,
	"SUB":   insts.OpSUB,
	"MUL":   insts.OpMUL,
	"AND":   insts.OpAND,
	"OR":    insts.OpOR,
	"XOR":   insts.OpXOR,
	"LOAD":  insts.OpLOAD,
	"LDR":   insts.OpLDR,
	"STORE": insts.OpSTORE,
	"BZ":    insts.OpBZ,
	"BNZ":   insts.OpBNZ,
	"JUMP":  insts.OpJUMP,
	"HALT":  insts.OpHALT,
}

// ParseLine parses one comma-separated instruction line, e.g.
// "ADD,R3,R1,R2" or "MOVC,R1,#5". Leading/trailing whitespace and
// blank or "#"-prefixed comment lines are the caller's job to filter
// out — ParseLine itself expects exactly one instruction.
func ParseLine(line string) (insts.Instruction, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) == 0 || fields[0] == "" {
		return insts.Instruction{}, fmt.Errorf("asm: empty instruction line")
	}

	op, ok := mnemonics[strings.ToUpper(fields[0])]
	if !ok {
		return insts.Instruction{}, fmt.Errorf("asm: unknown mnemonic %q", fields[0])
	}

	rest := fields[1:]
	inst := insts.Instruction{Op: op}

	switch op {
	case insts.OpNOP, insts.OpHALT:
		return inst, nil

	case insts.OpMOVC:
		rd, imm, err := parseRegImm(rest, 0, 1)
		if err != nil {
			return insts.Instruction{}, err
		}
		inst.Rd, inst.Imm = rd, imm
		return inst, nil

	case insts.OpSTORE:
		rs1, err := parseReg(rest, 0)
		if err != nil {
			return insts.Instruction{}, err
		}
		rs2, err := parseReg(rest, 1)
		if err != nil {
			return insts.Instruction{}, err
		}
		imm, err := parseImm(rest, 2)
		if err != nil {
			return insts.Instruction{}, err
		}
		inst.Rs1, inst.Rs2, inst.Imm = rs1, rs2, imm
		return inst, nil

	case insts.OpLOAD:
		rd, err := parseReg(rest, 0)
		if err != nil {
			return insts.Instruction{}, err
		}
		rs1, err := parseReg(rest, 1)
		if err != nil {
			return insts.Instruction{}, err
		}
		imm, err := parseImm(rest, 2)
		if err != nil {
			return insts.Instruction{}, err
		}
		inst.Rd, inst.Rs1, inst.Imm = rd, rs1, imm
		return inst, nil

	case insts.OpLDR:
		regs, err := parseRegs(rest, 3)
		if err != nil {
			return insts.Instruction{}, err
		}
		inst.Rd, inst.Rs1, inst.Rs2 = regs[0], regs[1], regs[2]
		return inst, nil

	case insts.OpADD, insts.OpSUB, insts.OpMUL, insts.OpAND, insts.OpOR, insts.OpXOR:
		regs, err := parseRegs(rest, 3)
		if err != nil {
			return insts.Instruction{}, err
		}
		inst.Rd, inst.Rs1, inst.Rs2 = regs[0], regs[1], regs[2]
		return inst, nil

	case insts.OpBZ, insts.OpBNZ:
		imm, err := parseImm(rest, 0)
		if err != nil {
			return insts.Instruction{}, err
		}
		inst.Imm = imm
		return inst, nil

	case insts.OpJUMP:
		rs1, err := parseReg(rest, 0)
		if err != nil {
			return insts.Instruction{}, err
		}
		imm, err := parseImm(rest, 1)
		if err != nil {
			return insts.Instruction{}, err
		}
		inst.Rs1, inst.Imm = rs1, imm
		return inst, nil
	}

	return insts.Instruction{}, fmt.Errorf("asm: unhandled mnemonic %q", fields[0])
}

func parseReg(fields []string, idx int) (uint8, error) {
	if idx >= len(fields) {
		return 0, fmt.Errorf("asm: missing register operand %d", idx)
	}
	f := strings.TrimPrefix(strings.ToUpper(fields[idx]), "R")
	n, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("asm: bad register %q: %w", fields[idx], err)
	}
	return uint8(n), nil
}

func parseRegs(fields []string, n int) ([]uint8, error) {
	out := make([]uint8, n)
	for i := 0; i < n; i++ {
		r, err := parseReg(fields, i)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func parseImm(fields []string, idx int) (int64, error) {
	if idx >= len(fields) {
		return 0, fmt.Errorf("asm: missing immediate operand %d", idx)
	}
	f := strings.TrimPrefix(fields[idx], "#")
	n, err := strconv.ParseInt(f, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("asm: bad immediate %q: %w", fields[idx], err)
	}
	return n, nil
}

func parseRegImm(fields []string, regIdx, immIdx int) (uint8, int64, error) {
	r, err := parseReg(fields, regIdx)
	if err != nil {
		return 0, 0, err
	}
	imm, err := parseImm(fields, immIdx)
	if err != nil {
		return 0, 0, err
	}
	return r, imm, nil
}

// Parse reads a full program from r, one instruction per line. Blank
// lines and lines starting with "#" are skipped.
func Parse(r io.Reader) ([]insts.Instruction, error) {
	var program []insts.Instruction
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inst, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("asm: line %d: %w", lineNo, err)
		}
		program = append(program, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("asm: reading program: %w", err)
	}
	return program, nil
}

// Load reads and parses a .apex program file.
func Load(path string) ([]insts.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asm: opening %s: %w", path, err)
	}
	defer f.Close()

	program, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("asm: loading %s: %w", path, err)
	}
	return program, nil
}
