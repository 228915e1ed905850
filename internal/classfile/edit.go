package classfile

import (
	"github.com/hailam/ghostclass/internal/ghosterr"
)

// AppendAttribute adds a new class-level attribute named name carrying
// body, interning the name first. It does not deduplicate — callers that
// must replace rather than duplicate an attribute (spec.md §4.3's
// "replaced, not duplicated") call RemoveAttribute first.
func AppendAttribute(cf *ClassFile, name string, body []byte) error {
	idx, err := cf.Pool.InternUTF8(name)
	if err != nil {
		return err
	}
	cf.Attributes = append(cf.Attributes, &Attribute{NameIndex: idx, Info: body})
	return nil
}

// RemoveAttribute deletes every class-level attribute named name and
// reports how many were removed.
func RemoveAttribute(cf *ClassFile, name string) int {
	kept := cf.Attributes[:0]
	removed := 0
	for _, a := range cf.Attributes {
		if cf.Pool.Utf8At(a.NameIndex) == name {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	cf.Attributes = kept
	return removed
}

// FindAttribute returns the first class-level attribute named name, or
// nil if none exists.
func FindAttribute(cf *ClassFile, name string) *Attribute {
	for _, a := range cf.Attributes {
		if cf.Pool.Utf8At(a.NameIndex) == name {
			return a
		}
	}
	return nil
}

// CountAttributes returns how many class-level attributes are named
// name.
func CountAttributes(cf *ClassFile, name string) int {
	n := 0
	for _, a := range cf.Attributes {
		if cf.Pool.Utf8At(a.NameIndex) == name {
			n++
		}
	}
	return n
}

// AppendField adds a new field with the given access flags, name,
// and descriptor, interning both Utf8 entries. It returns the new
// Field.
func AppendField(cf *ClassFile, access uint16, name, descriptor string) (*Field, error) {
	nameIdx, err := cf.Pool.InternUTF8(name)
	if err != nil {
		return nil, err
	}
	descIdx, err := cf.Pool.InternUTF8(descriptor)
	if err != nil {
		return nil, err
	}
	f := &Field{AccessFlags: access, NameIndex: nameIdx, DescriptorIndex: descIdx}
	cf.Fields = append(cf.Fields, f)
	return f, nil
}

const (
	AccStatic  = 0x0008
	AccFinal   = 0x0010
	AccPublic  = 0x0001
	AccPrivate = 0x0002
)

// FindMethod returns the method named name with descriptor desc, or nil.
func FindMethod(cf *ClassFile, name, desc string) *Method {
	for _, m := range cf.Methods {
		if cf.Pool.Utf8At(m.NameIndex) == name && cf.Pool.Utf8At(m.DescriptorIndex) == desc {
			return m
		}
	}
	return nil
}

// FindField returns the first field named name, regardless of
// descriptor, or nil.
func FindField(cf *ClassFile, name string) *Field {
	for _, f := range cf.Fields {
		if cf.Pool.Utf8At(f.NameIndex) == name {
			return f
		}
	}
	return nil
}

// FindCodeAttribute returns m's Code attribute, or nil if m has none.
func FindCodeAttribute(cf *ClassFile, m *Method) *Attribute {
	for _, a := range m.Attributes {
		if cf.Pool.Utf8At(a.NameIndex) == AttrCode {
			return a
		}
	}
	return nil
}

// EnsureClinit returns the class's static initializer method, creating an
// empty one (a single `return`, max_stack=0, max_locals=0) if none
// exists yet.
func EnsureClinit(cf *ClassFile) (*Method, error) {
	if m := FindMethod(cf, "<clinit>", "()V"); m != nil {
		return m, nil
	}
	nameIdx, err := cf.Pool.InternUTF8("<clinit>")
	if err != nil {
		return nil, err
	}
	descIdx, err := cf.Pool.InternUTF8("()V")
	if err != nil {
		return nil, err
	}
	codeNameIdx, err := cf.Pool.InternUTF8(AttrCode)
	if err != nil {
		return nil, err
	}
	empty := &Code{MaxStack: 0, MaxLocals: 0, Bytecode: []byte{OpReturn}}
	m := &Method{
		AccessFlags:     AccStatic,
		NameIndex:       nameIdx,
		DescriptorIndex: descIdx,
		Attributes:      []*Attribute{{NameIndex: codeNameIdx, Info: empty.Encode()}},
	}
	cf.Methods = append(cf.Methods, m)
	return m, nil
}

// PrependClinit prepends prefix (a straight-line, branch-free bytecode
// sequence, per spec.md §4.1/§4.4) to the class's static initializer's
// Code, creating the method if it does not exist, and recomputes
// max_stack/max_locals and any StackMapTable's first-frame offset for
// that method (spec.md §4.1's "minimum policy").
func PrependClinit(cf *ClassFile, prefix []byte, prefixMaxStack, prefixMaxLocals uint16) error {
	m, err := EnsureClinit(cf)
	if err != nil {
		return err
	}
	codeAttrIdx := -1
	for i, a := range m.Attributes {
		if cf.Pool.Utf8At(a.NameIndex) == AttrCode {
			codeAttrIdx = i
			break
		}
	}
	if codeAttrIdx == -1 {
		return ghosterr.New(ghosterr.KindParseError, "<clinit> has no Code attribute")
	}
	code, err := DecodeCode(m.Attributes[codeAttrIdx].Info)
	if err != nil {
		return err
	}

	code.Bytecode = append(append([]byte(nil), prefix...), code.Bytecode...)
	if prefixMaxStack > code.MaxStack {
		code.MaxStack = prefixMaxStack
	}
	if prefixMaxLocals > code.MaxLocals {
		code.MaxLocals = prefixMaxLocals
	}
	for i := range code.ExceptionTable {
		code.ExceptionTable[i].StartPC += uint16(len(prefix))
		code.ExceptionTable[i].EndPC += uint16(len(prefix))
		code.ExceptionTable[i].HandlerPC += uint16(len(prefix))
	}

	for i, a := range code.Attributes {
		if cf.Pool.Utf8At(a.NameIndex) == AttrStackMapTable {
			shifted, err := ShiftStackMapTableHead(a.Info, len(prefix))
			if err != nil {
				return err
			}
			code.Attributes[i] = &Attribute{NameIndex: a.NameIndex, Info: shifted}
		}
	}

	m.Attributes[codeAttrIdx] = &Attribute{NameIndex: m.Attributes[codeAttrIdx].NameIndex, Info: code.Encode()}
	return nil
}
