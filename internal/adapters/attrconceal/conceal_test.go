package attrconceal

import (
	"testing"

	"github.com/hailam/ghostclass/internal/classfile"
	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/stretchr/testify/require"
)

func minimalClassBytes(t *testing.T) []byte {
	t.Helper()
	pool := classfile.NewConstantPool()
	thisIdx, err := pool.InternClass("com/example/Ghost")
	require.NoError(t, err)
	superIdx, err := pool.InternClass("java/lang/Object")
	require.NoError(t, err)
	cf := &classfile.ClassFile{
		MinorVersion: 0,
		MajorVersion: 52,
		Pool:         pool,
		AccessFlags:  0x0021,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
	}
	return classfile.Serialize(cf)
}

func TestConcealRevealRoundTrip(t *testing.T) {
	carrier := minimalClassBytes(t)
	strategy := New()

	payload := []byte("the ghost walks at midnight")
	concealed, err := strategy.Conceal(carrier, payload)
	require.NoError(t, err)

	recovered, err := strategy.Reveal(concealed)
	require.NoError(t, err)
	require.Equal(t, payload, recovered)
}

func TestConcealEmptyPayload(t *testing.T) {
	carrier := minimalClassBytes(t)
	strategy := New()
	concealed, err := strategy.Conceal(carrier, nil)
	require.NoError(t, err)
	recovered, err := strategy.Reveal(concealed)
	require.NoError(t, err)
	require.Empty(t, recovered)
}

func TestConcealReplacesNotDuplicates(t *testing.T) {
	carrier := minimalClassBytes(t)
	strategy := New()

	first, err := strategy.Conceal(carrier, []byte("first"))
	require.NoError(t, err)
	second, err := strategy.Conceal(first, []byte("second"))
	require.NoError(t, err)

	cf, err := classfile.Parse(second)
	require.NoError(t, err)
	require.Equal(t, 1, classfile.CountAttributes(cf, classfile.AttrGhostPayload))

	recovered, err := strategy.Reveal(second)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), recovered)
}

func TestRevealNoPayload(t *testing.T) {
	carrier := minimalClassBytes(t)
	strategy := New()
	_, err := strategy.Reveal(carrier)
	require.True(t, ghosterr.Is(err, ghosterr.KindNoPayload))
}

func TestDecodeContainerRejectsBadMagic(t *testing.T) {
	_, err := decodeContainer([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	require.True(t, ghosterr.Is(err, ghosterr.KindBadMagic))
}

func TestDecodeContainerRejectsTruncatedHeader(t *testing.T) {
	_, err := decodeContainer([]byte{1, 2, 3})
	require.True(t, ghosterr.Is(err, ghosterr.KindCorrupted))
}

func TestDecodeContainerRejectsBadLength(t *testing.T) {
	body := encodeContainer([]byte("abc"))
	body[7] = 0xff // declared length now far exceeds available bytes
	_, err := decodeContainer(body)
	require.True(t, ghosterr.Is(err, ghosterr.KindBadLength))
}
