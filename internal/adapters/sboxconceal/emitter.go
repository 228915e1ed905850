// Package sboxconceal implements the S-Box Concealer/Extractor of
// spec.md §4.4: two new static fields plus a synthesized
// class-initializer prefix that populates the table field and computes a
// derived checksum into the second field, and the reverse simulation
// that recovers the table literal.
package sboxconceal

import (
	"github.com/hailam/ghostclass/internal/classfile"
)

// accLocal is the local variable slot the emitted prefix uses for its
// long accumulator. <clinit> has no parameters, so slot 0 is free.
const accLocal = 0

// emitPushInt emits the tightest available encoding for pushing a 32-bit
// int constant (spec.md §4.4: "single-byte inline, signed-byte push,
// signed-short push, or constant-pool load, chosen by value range").
func emitPushInt(pool *classfile.ConstantPool, v int32) ([]byte, error) {
	switch {
	case v >= -1 && v <= 5:
		return []byte{byte(classfile.OpIconst0 + v)}, nil
	case v >= -128 && v <= 127:
		return []byte{classfile.OpBipush, byte(v)}, nil
	case v >= -32768 && v <= 32767:
		return []byte{classfile.OpSipush, byte(v >> 8), byte(v)}, nil
	default:
		idx, err := pool.InternInteger(v)
		if err != nil {
			return nil, err
		}
		if idx <= 255 {
			return []byte{classfile.OpLdc, byte(idx)}, nil
		}
		return []byte{classfile.OpLdcW, byte(idx >> 8), byte(idx)}, nil
	}
}

// emitPushLong emits a push of a long constant: lconst_0/lconst_1 for 0
// and 1, ldc2_w otherwise. EmitPrefix only pushes the literal 31 this way;
// table values are pushed as ints and widened with i2l.
func emitPushLong(pool *classfile.ConstantPool, v int64) ([]byte, error) {
	if v == 0 {
		return []byte{classfile.OpLconst0}, nil
	}
	if v == 1 {
		return []byte{classfile.OpLconst1}, nil
	}
	idx, err := pool.InternLong(v)
	if err != nil {
		return nil, err
	}
	return []byte{classfile.OpLdc2W, byte(idx >> 8), byte(idx)}, nil
}

// EmitPrefix synthesizes the <clinit> prefix described in spec.md §4.4:
// build the table array literal, store it to tableField, then fold the
// accumulator pattern into checksumField.
//
// It returns the bytecode and the stack depth (in words) and local-slot
// count it needs, for the caller to fold into the method's recomputed
// max_stack/max_locals.
func EmitPrefix(pool *classfile.ConstantPool, tableFieldRef, checksumFieldRef uint16, table []int32) (code []byte, maxStack, maxLocals uint16, err error) {
	var out []byte

	n := len(table)
	pushN, err := emitPushInt(pool, int32(n))
	if err != nil {
		return nil, 0, 0, err
	}
	out = append(out, pushN...)
	out = append(out, classfile.OpNewarray, classfile.ATypeInt)

	for i, v := range table {
		out = append(out, classfile.OpDup)
		pushIdx, err := emitPushInt(pool, int32(i))
		if err != nil {
			return nil, 0, 0, err
		}
		out = append(out, pushIdx...)
		pushVal, err := emitPushInt(pool, v)
		if err != nil {
			return nil, 0, 0, err
		}
		out = append(out, pushVal...)
		out = append(out, classfile.OpIastore)
	}

	out = append(out, classfile.OpPutstatic, byte(tableFieldRef>>8), byte(tableFieldRef))

	// acc = 0L
	out = append(out, classfile.OpLconst0, classfile.OpLstore, accLocal)

	push31, err := emitPushLong(pool, 31)
	if err != nil {
		return nil, 0, 0, err
	}
	for _, v := range table {
		out = append(out, classfile.OpLload, accLocal)
		pushVal, err := emitPushInt(pool, v)
		if err != nil {
			return nil, 0, 0, err
		}
		out = append(out, pushVal...)
		out = append(out, classfile.OpI2l)
		out = append(out, push31...)
		out = append(out, classfile.OpLmul)
		out = append(out, classfile.OpLxor)
		out = append(out, classfile.OpLstore, accLocal)
	}

	out = append(out, classfile.OpLload, accLocal)
	out = append(out, classfile.OpPutstatic, byte(checksumFieldRef>>8), byte(checksumFieldRef))

	return out, 6, 2, nil
}
