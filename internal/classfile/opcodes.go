package classfile

// Opcode constants for a small JVM instruction subset, covering what the
// S-Box emitter writes and its reveal-side simulator reads (spec.md
// §4.1's "well-defined instruction subset" and §4.4's emitter
// description) plus a few neighbours neither of them uses. This is not a
// general opcode table.
const (
	OpNop         = 0x00
	OpIconstM1    = 0x02
	OpIconst0     = 0x03
	OpIconst1     = 0x04
	OpIconst2     = 0x05
	OpIconst3     = 0x06
	OpIconst4     = 0x07
	OpIconst5     = 0x08
	OpLconst0     = 0x09
	OpLconst1     = 0x0a
	OpBipush      = 0x10
	OpSipush      = 0x11
	OpLdc         = 0x12
	OpLdcW        = 0x13
	OpLdc2W       = 0x14
	OpIload       = 0x15
	OpLload       = 0x16
	OpIstore      = 0x36
	OpLstore      = 0x37
	OpDup         = 0x59
	OpDupX1       = 0x5a
	OpDup2        = 0x5c
	OpSwap        = 0x5f
	OpI2l         = 0x85
	OpLmul        = 0x69
	OpLxor        = 0x83
	OpIastore     = 0x4f
	OpAnewarray   = 0xbd
	OpNewarray    = 0xbc
	OpPutstatic   = 0xb3
	OpGetstatic   = 0xb2
	OpReturn      = 0xb1
	OpGoto        = 0xa7
)

// AType values for the newarray instruction's operand (only T_INT is
// used; the S-Box table field is always int[]).
const ATypeInt = 10
