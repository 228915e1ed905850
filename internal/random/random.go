// Package random provides the single cryptographically strong source of
// randomness the S-Box encoder draws from. A fast non-cryptographic PRNG
// here is a defect: it would let an observer predict the "noise" slots
// and recognize the construction.
package random

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/hailam/ghostclass/internal/ports"
)

// CryptoSource wraps crypto/rand.Reader. crypto/rand.Reader is already
// safe for concurrent use, so CryptoSource adds no locking of its own.
type CryptoSource struct{}

// New returns the process-wide cryptographically strong random source.
func New() ports.RandomSource {
	return CryptoSource{}
}

func (CryptoSource) ReadRandom(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

func (s CryptoSource) Int31() (int32, error) {
	var buf [4]byte
	if err := s.ReadRandom(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}
