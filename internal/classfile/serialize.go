package classfile

import (
	"bytes"
	"encoding/binary"
)

// writer accumulates big-endian fixed-width writes. It never fails: by
// the time Serialize is called the ClassFile's invariants have already
// been checked by whatever produced it (Parse, or the edit operations in
// edit.go), matching spec.md §4.1: "serialize never fails once parse
// succeeded and edits honored the invariants".
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u1(v byte) { w.buf.WriteByte(v) }
func (w *writer) u2(v uint16) { var b [2]byte; binary.BigEndian.PutUint16(b[:], v); w.buf.Write(b[:]) }
func (w *writer) u4(v uint32) { var b [4]byte; binary.BigEndian.PutUint32(b[:], v); w.buf.Write(b[:]) }
func (w *writer) u8(v uint64) { w.u4(uint32(v >> 32)); w.u4(uint32(v)) }
func (w *writer) raw(b []byte) { w.buf.Write(b) }

// Serialize writes cf back to bytes. For any ClassFile produced by Parse
// and left untouched, Serialize(Parse(x)) == x byte-for-byte.
func Serialize(cf *ClassFile) []byte {
	w := &writer{}
	w.u4(ClassMagic)
	w.u2(cf.MinorVersion)
	w.u2(cf.MajorVersion)
	writePool(w, cf.Pool)
	w.u2(cf.AccessFlags)
	w.u2(cf.ThisClass)
	w.u2(cf.SuperClass)
	w.u2(uint16(len(cf.Interfaces)))
	for _, i := range cf.Interfaces {
		w.u2(i)
	}
	w.u2(uint16(len(cf.Fields)))
	for _, f := range cf.Fields {
		w.u2(f.AccessFlags)
		w.u2(f.NameIndex)
		w.u2(f.DescriptorIndex)
		writeAttributes(w, f.Attributes)
	}
	w.u2(uint16(len(cf.Methods)))
	for _, m := range cf.Methods {
		w.u2(m.AccessFlags)
		w.u2(m.NameIndex)
		w.u2(m.DescriptorIndex)
		writeAttributes(w, m.Attributes)
	}
	writeAttributes(w, cf.Attributes)
	return w.buf.Bytes()
}

func writePool(w *writer, pool *ConstantPool) {
	w.u2(uint16(len(pool.entries)))
	for i := 1; i < len(pool.entries); i++ {
		e := pool.entries[i]
		if e == nil {
			continue // Long/Double successor placeholder
		}
		w.u1(byte(e.Tag))
		switch e.Tag {
		case TagUtf8:
			b := []byte(e.Utf8)
			w.u2(uint16(len(b)))
			w.raw(b)
		case TagInteger, TagFloat:
			w.u4(e.Bits4)
		case TagLong, TagDouble:
			w.u8(e.Bits8)
		case TagClass, TagMethodType, TagModule, TagPackage, TagString:
			w.u2(e.Index1)
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			w.u2(e.Index1)
			w.u2(e.Index2)
		case TagMethodHandle:
			w.u1(e.RefKind)
			w.u2(e.Index1)
		}
	}
}

func writeAttributes(w *writer, attrs []*Attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.NameIndex)
		w.u4(uint32(len(a.Info)))
		w.raw(a.Info)
	}
}
