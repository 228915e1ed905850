// Package attrconceal implements the Attribute Concealer/Extractor of
// spec.md §4.3: splicing a single named class-level attribute carrying a
// versioned container (magic + length + bytes), and locating and
// parsing it back.
package attrconceal

import (
	"encoding/binary"

	"github.com/hailam/ghostclass/internal/ghosterr"
)

// Magic is the 4-byte big-endian magic every container begins with
// (spec.md §3.2).
const Magic uint32 = 0x47504801

const headerSize = 8

// encodeContainer lays out payload per spec.md §3.2: magic (4) ++ length
// (4, big-endian unsigned) ++ payload.
func encodeContainer(payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(out[0:4], Magic)
	binary.BigEndian.PutUint32(out[4:8], uint32(len(payload)))
	copy(out[8:], payload)
	return out
}

// decodeContainer reverses encodeContainer, applying spec.md §4.3's
// reveal steps 3-5.
func decodeContainer(body []byte) ([]byte, error) {
	if len(body) < headerSize {
		return nil, ghosterr.New(ghosterr.KindCorrupted, "attribute body shorter than container header")
	}
	magic := binary.BigEndian.Uint32(body[0:4])
	if magic != Magic {
		return nil, ghosterr.BadMagic(Magic, magic)
	}
	declared := int64(int32(binary.BigEndian.Uint32(body[4:8])))
	available := int64(len(body) - headerSize)
	if declared < 0 || declared > available {
		return nil, ghosterr.BadLength(declared, available)
	}
	return body[headerSize : headerSize+declared], nil
}
