package classfile

import (
	"github.com/hailam/ghostclass/internal/ghosterr"
)

// CPTag is a constant_pool entry's tag byte.
type CPTag byte

const (
	TagUtf8               CPTag = 1
	TagInteger            CPTag = 3
	TagFloat              CPTag = 4
	TagLong               CPTag = 5
	TagDouble             CPTag = 6
	TagClass              CPTag = 7
	TagString             CPTag = 8
	TagFieldref           CPTag = 9
	TagMethodref          CPTag = 10
	TagInterfaceMethodref CPTag = 11
	TagNameAndType        CPTag = 12
	TagMethodHandle       CPTag = 15
	TagMethodType         CPTag = 16
	TagDynamic            CPTag = 17
	TagInvokeDynamic      CPTag = 18
	TagModule             CPTag = 19
	TagPackage            CPTag = 20
)

// CPEntry is one constant_pool slot. Every field needed to re-encode the
// entry byte-for-byte is kept, even for tags this module never
// interprets (MethodHandle, Dynamic, Module, Package, …): the codec must
// still index past them correctly, it just never chases their referents.
type CPEntry struct {
	Tag CPTag

	// Utf8
	Utf8 string

	// Integer / Float (raw 4-byte bit pattern) / Long / Double (raw
	// 8-byte bit pattern, occupies this slot and the next)
	Bits4 uint32
	Bits8 uint64

	// Class, String, MethodType, Module, Package: single index
	Index1 uint16

	// Fieldref, Methodref, InterfaceMethodref, NameAndType, Dynamic,
	// InvokeDynamic: two indices (class/name-and-type or
	// bootstrap-method-attr/name-and-type)
	Index2 uint16

	// MethodHandle
	RefKind byte
}

// slotWidth reports how many constant-pool indices this entry occupies:
// 2 for Long/Double, 1 otherwise (spec.md §3.1 invariant).
func (e *CPEntry) slotWidth() int {
	if e.Tag == TagLong || e.Tag == TagDouble {
		return 2
	}
	return 1
}

// ConstantPool is 1-indexed; index 0 is never a valid entry. It is
// grow-only during concealment (spec.md §3.1).
type ConstantPool struct {
	// entries[i] holds the entry at pool index i; entries[0] is an unused
	// nil placeholder. A Long/Double entry's successor slot is represented by a nil entry so indices
	// line up; callers must not dereference it.
	entries []*CPEntry
}

// NewConstantPool returns an empty pool (entries start at index 1).
func NewConstantPool() *ConstantPool {
	return &ConstantPool{entries: []*CPEntry{nil}}
}

// Count returns the number of index slots in use, i.e. the pool's
// constant_pool_count - 1 slots occupied (1..Count inclusive are valid
// indices, modulo the Long/Double placeholder rule).
func (p *ConstantPool) Count() int {
	return len(p.entries) - 1
}

// Get returns the entry at index idx, or nil if idx is out of range or
// lands on a Long/Double placeholder slot.
func (p *ConstantPool) Get(idx uint16) *CPEntry {
	if int(idx) <= 0 || int(idx) >= len(p.entries) {
		return nil
	}
	return p.entries[idx]
}

// Utf8At returns the string of the Utf8 entry at idx, or "" if idx is not
// a Utf8 entry.
func (p *ConstantPool) Utf8At(idx uint16) string {
	e := p.Get(idx)
	if e == nil || e.Tag != TagUtf8 {
		return ""
	}
	return e.Utf8
}

// append adds entry (and, for Long/Double, a placeholder successor slot)
// and returns its index. It does not check the pool cap; callers that
// need PoolFull semantics go through the Intern* methods.
func (p *ConstantPool) append(e *CPEntry) uint16 {
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, e)
	if e.slotWidth() == 2 {
		p.entries = append(p.entries, nil)
	}
	return idx
}

// wouldExceedCap reports whether adding n more slots would bring the pool
// to or past MaxPoolSize (spec.md §3.1: "strictly fewer than 2^16
// entries at all times").
func (p *ConstantPool) wouldExceedCap(n int) bool {
	return len(p.entries)+n >= MaxPoolSize
}

// InternUTF8 returns the index of a Utf8 entry with value s, appending a
// new one only if s is not already present. Appending is forbidden once
// the pool holds 65534 entries, returning PoolFull (spec.md §4.1).
func (p *ConstantPool) InternUTF8(s string) (uint16, error) {
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e != nil && e.Tag == TagUtf8 && e.Utf8 == s {
			return uint16(i), nil
		}
	}
	if p.wouldExceedCap(1) {
		return 0, ghosterr.New(ghosterr.KindPoolFull, "constant pool would exceed 65534 entries")
	}
	return p.append(&CPEntry{Tag: TagUtf8, Utf8: s}), nil
}

// InternClass returns the index of a Class entry naming the class whose
// binary name is name, interning the backing Utf8 entry first.
func (p *ConstantPool) InternClass(name string) (uint16, error) {
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e != nil && e.Tag == TagClass {
			if p.Utf8At(e.Index1) == name {
				return uint16(i), nil
			}
		}
	}
	nameIdx, err := p.InternUTF8(name)
	if err != nil {
		return 0, err
	}
	if p.wouldExceedCap(1) {
		return 0, ghosterr.New(ghosterr.KindPoolFull, "constant pool would exceed 65534 entries")
	}
	return p.append(&CPEntry{Tag: TagClass, Index1: nameIdx}), nil
}

// InternNameAndType returns the index of a NameAndType entry for
// (name, descriptor), interning both backing Utf8 entries first.
func (p *ConstantPool) InternNameAndType(name, descriptor string) (uint16, error) {
	nameIdx, err := p.InternUTF8(name)
	if err != nil {
		return 0, err
	}
	descIdx, err := p.InternUTF8(descriptor)
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e != nil && e.Tag == TagNameAndType && e.Index1 == nameIdx && e.Index2 == descIdx {
			return uint16(i), nil
		}
	}
	if p.wouldExceedCap(1) {
		return 0, ghosterr.New(ghosterr.KindPoolFull, "constant pool would exceed 65534 entries")
	}
	return p.append(&CPEntry{Tag: TagNameAndType, Index1: nameIdx, Index2: descIdx}), nil
}

// InternFieldref returns the index of a Fieldref entry for
// class.name:descriptor, interning everything it needs first.
func (p *ConstantPool) InternFieldref(class, name, descriptor string) (uint16, error) {
	classIdx, err := p.InternClass(class)
	if err != nil {
		return 0, err
	}
	natIdx, err := p.InternNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e != nil && e.Tag == TagFieldref && e.Index1 == classIdx && e.Index2 == natIdx {
			return uint16(i), nil
		}
	}
	if p.wouldExceedCap(1) {
		return 0, ghosterr.New(ghosterr.KindPoolFull, "constant pool would exceed 65534 entries")
	}
	return p.append(&CPEntry{Tag: TagFieldref, Index1: classIdx, Index2: natIdx}), nil
}

// FindFieldref looks up an existing Fieldref entry for class.name:descriptor
// without interning anything, returning ok=false if no such entry (or its
// backing Class/NameAndType/Utf8 entries) is present. Used on the reveal
// path, which must not mutate a pool it never serializes back out.
func (p *ConstantPool) FindFieldref(class, name, descriptor string) (idx uint16, ok bool) {
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e == nil || e.Tag != TagFieldref {
			continue
		}
		classEntry := p.Get(e.Index1)
		if classEntry == nil || classEntry.Tag != TagClass || p.Utf8At(classEntry.Index1) != class {
			continue
		}
		natEntry := p.Get(e.Index2)
		if natEntry == nil || natEntry.Tag != TagNameAndType {
			continue
		}
		if p.Utf8At(natEntry.Index1) != name || p.Utf8At(natEntry.Index2) != descriptor {
			continue
		}
		return uint16(i), true
	}
	return 0, false
}

// InternInteger returns the index of an Integer entry with value v,
// interning a new one only if not already present.
func (p *ConstantPool) InternInteger(v int32) (uint16, error) {
	bits := uint32(v)
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e != nil && e.Tag == TagInteger && e.Bits4 == bits {
			return uint16(i), nil
		}
	}
	if p.wouldExceedCap(1) {
		return 0, ghosterr.New(ghosterr.KindPoolFull, "constant pool would exceed 65534 entries")
	}
	return p.append(&CPEntry{Tag: TagInteger, Bits4: bits}), nil
}

// InternLong returns the index of a Long entry with value v.
func (p *ConstantPool) InternLong(v int64) (uint16, error) {
	bits := uint64(v)
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e != nil && e.Tag == TagLong && e.Bits8 == bits {
			return uint16(i), nil
		}
	}
	if p.wouldExceedCap(2) {
		return 0, ghosterr.New(ghosterr.KindPoolFull, "constant pool would exceed 65534 entries")
	}
	return p.append(&CPEntry{Tag: TagLong, Bits8: bits}), nil
}
