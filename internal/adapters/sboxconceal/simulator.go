package sboxconceal

import (
	"github.com/hailam/ghostclass/internal/classfile"
	"github.com/hailam/ghostclass/internal/ghosterr"
)

// readConst decodes the tightest-encoding push instruction at code[pc],
// mirroring emitPushInt/emitPushLong, and returns the value, the new pc,
// and whether code[pc] was recognized as such an instruction.
func readConst(pool *classfile.ConstantPool, code []byte, pc int) (int64, int, bool) {
	if pc >= len(code) {
		return 0, pc, false
	}
	op := code[pc]
	switch {
	case op == classfile.OpIconstM1:
		return -1, pc + 1, true
	case op >= classfile.OpIconst0 && op <= classfile.OpIconst5:
		return int64(op - classfile.OpIconst0), pc + 1, true
	case op == classfile.OpLconst0:
		return 0, pc + 1, true
	case op == classfile.OpLconst1:
		return 1, pc + 1, true
	case op == classfile.OpBipush:
		if pc+1 >= len(code) {
			return 0, pc, false
		}
		return int64(int8(code[pc+1])), pc + 2, true
	case op == classfile.OpSipush:
		if pc+2 >= len(code) {
			return 0, pc, false
		}
		v := int16(uint16(code[pc+1])<<8 | uint16(code[pc+2]))
		return int64(v), pc + 3, true
	case op == classfile.OpLdc:
		if pc+1 >= len(code) {
			return 0, pc, false
		}
		e := pool.Get(uint16(code[pc+1]))
		if e == nil || e.Tag != classfile.TagInteger {
			return 0, pc, false
		}
		return int64(int32(e.Bits4)), pc + 2, true
	case op == classfile.OpLdcW:
		if pc+2 >= len(code) {
			return 0, pc, false
		}
		idx := uint16(code[pc+1])<<8 | uint16(code[pc+2])
		e := pool.Get(idx)
		if e == nil || e.Tag != classfile.TagInteger {
			return 0, pc, false
		}
		return int64(int32(e.Bits4)), pc + 3, true
	case op == classfile.OpLdc2W:
		if pc+2 >= len(code) {
			return 0, pc, false
		}
		idx := uint16(code[pc+1])<<8 | uint16(code[pc+2])
		e := pool.Get(idx)
		if e == nil || e.Tag != classfile.TagLong {
			return 0, pc, false
		}
		return int64(e.Bits8), pc + 3, true
	default:
		return 0, pc, false
	}
}

// SimulateRecover scans a <clinit> method for the emitter's exact pattern
// — a newarray-driven array build followed by a putstatic to
// tableFieldRef — and returns the int32 literals written into the array,
// in index order. It is intentionally literal-minded (spec.md §9's open
// question on reveal-side robustness): it aborts the current candidate
// start on the first unrecognized instruction and resumes scanning for
// the next newarray, rather than attempting a general-purpose
// abstract interpreter.
func SimulateRecover(pool *classfile.ConstantPool, code []byte, tableFieldRef uint16) ([]int32, error) {
	for start := 0; start < len(code); start++ {
		if code[start] != classfile.OpSipush && code[start] != classfile.OpBipush {
			continue
		}
		n, pc, ok := readConst(pool, code, start)
		if !ok || pc >= len(code) || code[pc] != classfile.OpNewarray {
			continue
		}
		pc++ // past newarray opcode
		if pc >= len(code) || code[pc] != classfile.ATypeInt {
			continue
		}
		pc++

		table := make([]int32, n)
		seen := make([]bool, n)
		filled := 0
		ok = true
		for filled < int(n) {
			if pc >= len(code) || code[pc] != classfile.OpDup {
				ok = false
				break
			}
			pc++
			idx, next, good := readConst(pool, code, pc)
			if !good {
				ok = false
				break
			}
			pc = next
			val, next, good := readConst(pool, code, pc)
			if !good {
				ok = false
				break
			}
			pc = next
			if pc >= len(code) || code[pc] != classfile.OpIastore {
				ok = false
				break
			}
			pc++
			if idx < 0 || idx >= n || seen[idx] {
				ok = false
				break
			}
			table[idx] = int32(val)
			seen[idx] = true
			filled++
		}
		if !ok {
			continue
		}
		if pc+2 >= len(code) || code[pc] != classfile.OpPutstatic {
			continue
		}
		ref := uint16(code[pc+1])<<8 | uint16(code[pc+2])
		if ref != tableFieldRef {
			continue
		}
		return table, nil
	}
	return nil, ghosterr.New(ghosterr.KindNoPayload, "no S-Box array-build pattern found in <clinit>")
}
