package classfile

import (
	"encoding/binary"

	"github.com/hailam/ghostclass/internal/ghosterr"
)

// DecodeCode decodes a Code attribute's body. This module only ever
// decodes the Code attribute of the method it is about to rewrite (the
// static initializer); every other method's Code attribute stays an
// opaque Attribute.Info blob.
func DecodeCode(info []byte) (*Code, error) {
	r := newReader(info)
	maxStack, err := r.u2()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u2()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.u4()
	if err != nil {
		return nil, err
	}
	bytecode, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	excCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	handlers := make([]ExceptionHandler, excCount)
	for i := range handlers {
		if handlers[i].StartPC, err = r.u2(); err != nil {
			return nil, err
		}
		if handlers[i].EndPC, err = r.u2(); err != nil {
			return nil, err
		}
		if handlers[i].HandlerPC, err = r.u2(); err != nil {
			return nil, err
		}
		if handlers[i].CatchType, err = r.u2(); err != nil {
			return nil, err
		}
	}
	attrs, err := parseAttributes(r)
	if err != nil {
		return nil, err
	}
	return &Code{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Bytecode:       bytecode,
		ExceptionTable: handlers,
		Attributes:     attrs,
	}, nil
}

// Encode re-serializes a Code structure into a Code attribute body.
func (c *Code) Encode() []byte {
	w := &writer{}
	w.u2(c.MaxStack)
	w.u2(c.MaxLocals)
	w.u4(uint32(len(c.Bytecode)))
	w.raw(c.Bytecode)
	w.u2(uint16(len(c.ExceptionTable)))
	for _, h := range c.ExceptionTable {
		w.u2(h.StartPC)
		w.u2(h.EndPC)
		w.u2(h.HandlerPC)
		w.u2(h.CatchType)
	}
	writeAttributes(w, c.Attributes)
	return w.buf.Bytes()
}

// stack map frame tags (JVM class file format, StackMapTable).
const (
	smfSameMax            = 63  // 0-63: SAME
	smfSameLocals1Min     = 64  // 64-127: SAME_LOCALS_1_STACK_ITEM
	smfSameLocals1Max     = 127
	smfSameLocals1Ext     = 247 // SAME_LOCALS_1_STACK_ITEM_EXTENDED
	smfChopMin            = 248 // 248-250: CHOP
	smfChopMax            = 250
	smfSameExtended       = 251 // SAME_FRAME_EXTENDED
	smfAppendMin          = 252 // 252-254: APPEND
	smfAppendMax          = 254
	smfFull               = 255 // FULL_FRAME
)

// ShiftStackMapTableHead rewrites a StackMapTable attribute's body so
// that its first frame's offset_delta is increased by delta bytecode
// positions. Every subsequent frame's offset_delta is relative to the
// frame before it and so needs no change (spec.md §4.1's minimum stack
// map recomputation policy: only the prepended method needs frames
// regenerated, and a pure prefix insertion only perturbs the very first
// frame's absolute offset). Frame bodies the parser does not need to
// interpret (locals/stack verification_type_info lists) are copied
// through unchanged.
func ShiftStackMapTableHead(body []byte, delta int) ([]byte, error) {
	if delta == 0 {
		return body, nil
	}
	if len(body) < 2 {
		return nil, ghosterr.New(ghosterr.KindParseError, "stack map table too short")
	}
	count := binary.BigEndian.Uint16(body[0:2])
	if count == 0 {
		return body, nil
	}
	pos := 2
	frameType := int(body[pos])

	switch {
	case frameType <= smfSameMax:
		newOffset := frameType + delta
		if newOffset <= smfSameMax {
			out := append([]byte(nil), body...)
			out[pos] = byte(newOffset)
			return out, nil
		}
		// Promote to SAME_FRAME_EXTENDED (u1 tag + u2 offset_delta).
		head := make([]byte, 0, len(body)+2)
		head = append(head, body[:2]...)
		head = append(head, smfSameExtended)
		var off [2]byte
		binary.BigEndian.PutUint16(off[:], uint16(newOffset))
		head = append(head, off[:]...)
		head = append(head, body[pos+1:]...)
		return head, nil

	case frameType >= smfSameLocals1Min && frameType <= smfSameLocals1Max:
		oldOffset := frameType - smfSameLocals1Min
		newOffset := oldOffset + delta
		if newOffset <= (smfSameLocals1Max - smfSameLocals1Min) {
			out := append([]byte(nil), body...)
			out[pos] = byte(smfSameLocals1Min + newOffset)
			return out, nil
		}
		head := make([]byte, 0, len(body)+2)
		head = append(head, body[:2]...)
		head = append(head, smfSameLocals1Ext)
		var off [2]byte
		binary.BigEndian.PutUint16(off[:], uint16(newOffset))
		head = append(head, off[:]...)
		head = append(head, body[pos+1:]...) // the single verification_type_info follows unchanged
		return head, nil

	case frameType == smfSameLocals1Ext,
		frameType == smfSameExtended,
		(frameType >= smfChopMin && frameType <= smfChopMax),
		(frameType >= smfAppendMin && frameType <= smfAppendMax),
		frameType == smfFull:
		if len(body) < pos+3 {
			return nil, ghosterr.New(ghosterr.KindParseError, "truncated stack map frame")
		}
		oldOffset := binary.BigEndian.Uint16(body[pos+1 : pos+3])
		newOffset := int(oldOffset) + delta
		out := append([]byte(nil), body...)
		binary.BigEndian.PutUint16(out[pos+1:pos+3], uint16(newOffset))
		return out, nil

	default:
		return nil, ghosterr.Newf(ghosterr.KindParseError, "unknown stack map frame type %d", frameType)
	}
}
