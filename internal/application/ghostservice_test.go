package application

import (
	"hash/crc32"
	"testing"

	"github.com/hailam/ghostclass/internal/adapters/attrconceal"
	"github.com/hailam/ghostclass/internal/adapters/sboxconceal"
	"github.com/hailam/ghostclass/internal/classfile"
	"github.com/hailam/ghostclass/internal/fieldname"
	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/hailam/ghostclass/internal/ports"
	"github.com/hailam/ghostclass/internal/random"
	"github.com/hailam/ghostclass/internal/sbox"
	"github.com/stretchr/testify/require"
)

// trivialCarrier returns a trivial public class with only a default
// no-arg constructor, named className.
func trivialCarrier(t *testing.T, className string) []byte {
	t.Helper()
	pool := classfile.NewConstantPool()
	thisIdx, err := pool.InternClass(className)
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
	_, err = classfile.EnsureClinit(cf)
	require.NoError(t, err)
	return classfile.Serialize(cf)
}

func classNameOf(t *testing.T, cf *classfile.ClassFile) string {
	t.Helper()
	e := cf.Pool.Get(cf.ThisClass)
	require.NotNil(t, e)
	return cf.Pool.Utf8At(e.Index1)
}

// Scenario 1: a trivial carrier concealing "Test data" via the attribute
// strategy produces the exact 17-byte container spec.md §8 names.
func TestScenario1AttributeContainerIsByteExact(t *testing.T) {
	carrier := trivialCarrier(t, "TestClass")
	strategy := attrconceal.New()

	payload := []byte("Test data")
	concealed, err := strategy.Conceal(carrier, payload)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(concealed)-len(carrier), 8)

	cf, err := classfile.Parse(concealed)
	require.NoError(t, err)
	attr := classfile.FindAttribute(cf, classfile.AttrGhostPayload)
	require.NotNil(t, attr)
	require.Equal(t,
		[]byte{0x47, 0x50, 0x48, 0x01, 0x00, 0x00, 0x00, 0x09, 0x54, 0x65, 0x73, 0x74, 0x20, 0x64, 0x61, 0x74, 0x61},
		attr.Info,
	)

	recovered, err := strategy.Reveal(concealed)
	require.NoError(t, err)
	require.Equal(t, payload, recovered)
}

// Scenario 2: a 256-byte payload (all byte values) fits in N=128 and the
// CRC32 lands in table slot 1.
func TestScenario2SboxAllByteValuesSelectsSize128(t *testing.T) {
	carrier := trivialCarrier(t, "TestClass")
	codec := sbox.New(random.New())
	strategy := sboxconceal.New(codec)

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}

	concealed, err := strategy.Conceal(carrier, payload)
	require.NoError(t, err)

	cf, err := classfile.Parse(concealed)
	require.NoError(t, err)
	className := classNameOf(t, cf)
	tableField := classfile.FindField(cf, fieldname.TableFieldName(className))
	require.NotNil(t, tableField)
	require.Equal(t, "[I", cf.Pool.Utf8At(tableField.DescriptorIndex))

	table, err := codec.Encode(payload) // same payload, fresh table, only to confirm N=128 for this length
	require.NoError(t, err)
	require.Len(t, table, 128)
	require.Equal(t, int32(crc32.ChecksumIEEE(payload)), table[1])

	recovered, err := strategy.Reveal(concealed)
	require.NoError(t, err)
	require.Equal(t, payload, recovered)
}

// Scenario 3: field names injected for carriers Alpha and Beta differ.
func TestScenario3FieldNamesDifferAcrossCarriers(t *testing.T) {
	alphaTable := fieldname.TableFieldName("Alpha")
	betaTable := fieldname.TableFieldName("Beta")
	alphaChecksum := fieldname.ChecksumFieldName("Alpha")
	betaChecksum := fieldname.ChecksumFieldName("Beta")
	require.False(t, alphaTable == betaTable && alphaChecksum == betaChecksum,
		"Alpha and Beta must not derive an identical field-name pair")
}

// Scenario 4: re-concealing an attribute-mode carrier replaces, not
// duplicates, the GhostPayload attribute.
func TestScenario4RevealsLatestAttributeOnly(t *testing.T) {
	carrier := trivialCarrier(t, "TestClass")
	strategy := attrconceal.New()

	first, err := strategy.Conceal(carrier, []byte("p1"))
	require.NoError(t, err)
	second, err := strategy.Conceal(first, []byte("p2"))
	require.NoError(t, err)

	cf, err := classfile.Parse(second)
	require.NoError(t, err)
	require.Equal(t, 1, classfile.CountAttributes(cf, classfile.AttrGhostPayload))

	recovered, err := strategy.Reveal(second)
	require.NoError(t, err)
	require.Equal(t, []byte("p2"), recovered)
}

// Scenario 5: flipping the S-Box table's last integer by XOR surfaces
// BadLength or BadChecksum, never a silently wrong payload.
func TestScenario5CorruptedLastSlotIsDetected(t *testing.T) {
	codec := sbox.New(random.New())
	table, err := codec.Encode([]byte("payload"))
	require.NoError(t, err)
	table[len(table)-1] ^= 0x12345678

	_, err = codec.Decode(table)
	require.Error(t, err)
	require.True(t, ghosterr.Is(err, ghosterr.KindBadLength) || ghosterr.Is(err, ghosterr.KindBadChecksum))
}

// Scenario 6: a clean carrier with no concealment reveals NoPayload via
// the automatic strategy.
func TestScenario6CleanCarrierIsNoPayload(t *testing.T) {
	carrier := trivialCarrier(t, "TestClass")
	lookup := lookupFor(map[ports.ConcealMode]ports.ConcealExtractor{
		ports.ModeSbox:      sboxconceal.New(sbox.New(random.New())),
		ports.ModeAttribute: attrconceal.New(),
	})
	svc := NewGhostService(lookup, nil)

	_, err := svc.RevealAuto(carrier)
	require.True(t, ghosterr.Is(err, ghosterr.KindNoPayload))
}
