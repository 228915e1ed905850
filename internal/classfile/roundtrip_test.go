package classfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func minimalClass(t *testing.T) *ClassFile {
	t.Helper()
	pool := NewConstantPool()
	thisIdx, err := pool.InternClass("com/example/Ghost")
	require.NoError(t, err)
	superIdx, err := pool.InternClass("java/lang/Object")
	require.NoError(t, err)

	return &ClassFile{
		MinorVersion: 0,
		MajorVersion: 52,
		Pool:         pool,
		AccessFlags:  0x0021, // public, super
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
		Interfaces:   nil,
		Fields:       nil,
		Methods:      nil,
		Attributes:   nil,
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	cf := minimalClass(t)
	bytesOut := Serialize(cf)

	reparsed, err := Parse(bytesOut)
	require.NoError(t, err)
	require.Equal(t, cf.MajorVersion, reparsed.MajorVersion)
	require.Equal(t, cf.ThisClass, reparsed.ThisClass)
	require.Equal(t, cf.SuperClass, reparsed.SuperClass)

	// A second serialize of the reparsed structure is byte-for-byte
	// identical to the first.
	require.Equal(t, bytesOut, Serialize(reparsed))
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse([]byte{0, 0, 0, 0})
	require.Error(t, err)
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	cf := minimalClass(t)
	cf.MajorVersion = MaxMajorVersion + 1
	_, err := Parse(Serialize(cf))
	require.Error(t, err)
}

func TestConstantPoolInterningDedups(t *testing.T) {
	pool := NewConstantPool()
	a, err := pool.InternUTF8("hello")
	require.NoError(t, err)
	b, err := pool.InternUTF8("hello")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, 1, pool.Count())
}

func TestConstantPoolLongTakesTwoSlots(t *testing.T) {
	pool := NewConstantPool()
	idx, err := pool.InternLong(12345)
	require.NoError(t, err)
	next, err := pool.InternUTF8("after-long")
	require.NoError(t, err)
	require.Equal(t, idx+2, next)
}

func TestAppendFieldAndAttribute(t *testing.T) {
	cf := minimalClass(t)
	f, err := AppendField(cf, AccStatic, "_T3", "[I")
	require.NoError(t, err)
	require.Equal(t, "_T3", cf.Pool.Utf8At(f.NameIndex))

	require.NoError(t, AppendAttribute(cf, "GhostPayload", []byte{1, 2, 3}))
	require.Equal(t, 1, CountAttributes(cf, "GhostPayload"))

	require.NoError(t, AppendAttribute(cf, "GhostPayload", []byte{4, 5}))
	require.Equal(t, 2, CountAttributes(cf, "GhostPayload"))
	require.Equal(t, 2, RemoveAttribute(cf, "GhostPayload"))
	require.Nil(t, FindAttribute(cf, "GhostPayload"))
}

func TestEnsureClinitCreatesEmptyMethod(t *testing.T) {
	cf := minimalClass(t)
	require.Nil(t, FindMethod(cf, "<clinit>", "()V"))
	m, err := EnsureClinit(cf)
	require.NoError(t, err)
	require.Same(t, m, FindMethod(cf, "<clinit>", "()V"))

	code, err := DecodeCode(FindCodeAttribute(cf, m).Info)
	require.NoError(t, err)
	require.Equal(t, []byte{OpReturn}, code.Bytecode)
}

type stripAttributeVisitor struct {
	NoopVisitor
	name string
}

func (v stripAttributeVisitor) VisitAttribute(name string, a *Attribute) (*Attribute, bool) {
	if name != v.name {
		return nil, false
	}
	return &Attribute{NameIndex: a.NameIndex, Info: nil}, true
}

func TestWalkAppliesPerEventReplacement(t *testing.T) {
	cf := minimalClass(t)
	require.NoError(t, AppendAttribute(cf, "GhostPayload", []byte{1, 2, 3}))

	Walk(cf, stripAttributeVisitor{name: "GhostPayload"})

	attr := FindAttribute(cf, "GhostPayload")
	require.NotNil(t, attr)
	require.Empty(t, attr.Info)
}

func TestPrependClinitPrependsAndBumpsStackLocals(t *testing.T) {
	cf := minimalClass(t)
	_, err := EnsureClinit(cf)
	require.NoError(t, err)

	prefix := []byte{OpIconst1, OpPutstatic, 0, 1}
	require.NoError(t, PrependClinit(cf, prefix, 3, 2))

	m := FindMethod(cf, "<clinit>", "()V")
	code, err := DecodeCode(FindCodeAttribute(cf, m).Info)
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, prefix...), OpReturn), code.Bytecode)
	require.Equal(t, uint16(3), code.MaxStack)
	require.Equal(t, uint16(2), code.MaxLocals)
}
