// Package sbox implements the S-Box table codec: packing an opaque
// payload into a fixed-size array of 32-bit integers shaped to resemble
// a cryptographic substitution table, with an implicit length signature
// and a CRC32 checksum, and unpacking it back with verification
// (spec.md §3.3/§4.2).
package sbox

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/hailam/ghostclass/internal/ports"
)

// Sizes are the only table lengths the format allows (spec.md §3.3).
var Sizes = [...]int{128, 192, 256}

// maxPayloadAt128, maxPayloadAt192 and MaxPayload are the maximum payload
// byte counts that fit in each table size: (N-3)*4 bytes of payload plus
// the 1-int CRC32 slot, slot 0, and slot N-1 always reserved.
const (
	maxPayloadAt128 = 500
	maxPayloadAt192 = 756
	// MaxPayload is the hard cap across all sizes: (256-3)*4 bytes.
	MaxPayload = (256 - 3) * 4
)

// selectSize picks the smallest table size that fits payloadLen bytes,
// per spec.md §3.3's table.
func selectSize(payloadLen int) (int, error) {
	switch {
	case payloadLen <= maxPayloadAt128:
		return 128, nil
	case payloadLen <= maxPayloadAt192:
		return 192, nil
	case payloadLen <= MaxPayload:
		return 256, nil
	default:
		return 0, ghosterr.Newf(ghosterr.KindPayloadTooLarge, "payload of %d bytes exceeds S-Box capacity of %d bytes", payloadLen, MaxPayload)
	}
}

func isValidSize(n int) bool {
	for _, s := range Sizes {
		if s == n {
			return true
		}
	}
	return false
}

// Codec implements ports.SboxCodec.
type Codec struct {
	Random ports.RandomSource
}

// New returns an S-Box codec drawing randomness from src.
func New(src ports.RandomSource) *Codec {
	return &Codec{Random: src}
}

// Encode packs payload into a freshly sized, freshly randomized S-Box
// table per spec.md §4.2. Two calls with the same payload differ in at
// least slot 0, slot N-1, and the noise slots, because slot 0 and the
// noise are freshly drawn from the cryptographic source each time.
func (c *Codec) Encode(payload []byte) ([]int32, error) {
	n, err := selectSize(len(payload))
	if err != nil {
		return nil, err
	}
	table := make([]int32, n)

	r, err := c.Random.Int31()
	if err != nil {
		return nil, err
	}
	table[0] = r

	table[1] = int32(crc32.ChecksumIEEE(payload))

	payloadInts := (len(payload) + 3) / 4
	packPayload(table[2:2+payloadInts], payload)

	for i := 2 + payloadInts; i < n-1; i++ {
		v, err := c.Random.Int31()
		if err != nil {
			return nil, err
		}
		table[i] = v
	}

	table[n-1] = r ^ int32(len(payload))
	return table, nil
}

// Decode recovers the payload from table, per spec.md §4.2's five-step
// verification.
func (c *Codec) Decode(table []int32) ([]byte, error) {
	n := len(table)
	if !isValidSize(n) {
		return nil, ghosterr.Newf(ghosterr.KindBadSize, "S-Box table has disallowed length %d", n)
	}

	p := table[0] ^ table[n-1]
	maxP := (n - 3) * 4
	if p < 0 || int(p) > maxP {
		return nil, ghosterr.Newf(ghosterr.KindBadLength, "implicit length %d out of range [0,%d]", p, maxP)
	}

	numInts := (int(p) + 3) / 4
	payload := unpackPayload(table[2:2+numInts], int(p))

	if int32(crc32.ChecksumIEEE(payload)) != table[1] {
		return nil, ghosterr.New(ghosterr.KindBadChecksum, "S-Box checksum mismatch")
	}
	return payload, nil
}

// packPayload writes payload into dst, 4 bytes per int, big-endian,
// zero-padded in the final int.
func packPayload(dst []int32, payload []byte) {
	for i := range dst {
		var b [4]byte
		start := i * 4
		end := start + 4
		if end > len(payload) {
			end = len(payload)
		}
		copy(b[:end-start], payload[start:end])
		dst[i] = int32(binary.BigEndian.Uint32(b[:]))
	}
}

// unpackPayload reads n bytes of payload out of src, 4 bytes per int,
// big-endian.
func unpackPayload(src []int32, n int) []byte {
	out := make([]byte, 0, n)
	for _, v := range src {
		if len(out) >= n {
			break
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		remaining := n - len(out)
		if remaining > 4 {
			remaining = 4
		}
		out = append(out, b[:remaining]...)
	}
	return out
}
