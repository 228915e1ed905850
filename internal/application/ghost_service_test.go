package application

import (
	"errors"
	"testing"

	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/hailam/ghostclass/internal/ports"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	concealOut []byte
	concealErr error
	revealOut  []byte
	revealErr  error
}

func (s stubStrategy) Conceal(classBytes, payload []byte) ([]byte, error) {
	return s.concealOut, s.concealErr
}
func (s stubStrategy) Reveal(classBytes []byte) ([]byte, error) {
	return s.revealOut, s.revealErr
}

type stubVerifier struct {
	structuralErr error
	runtimeErr    error
}

func (v stubVerifier) VerifyStructural(classBytes []byte) error { return v.structuralErr }
func (v stubVerifier) VerifyRuntime(classBytes []byte, className, entryPoint string) error {
	return v.runtimeErr
}

func lookupFor(m map[ports.ConcealMode]ports.ConcealExtractor) func(ports.ConcealMode) (ports.ConcealExtractor, error) {
	return func(mode ports.ConcealMode) (ports.ConcealExtractor, error) {
		s, ok := m[mode]
		if !ok {
			return nil, errors.New("no such mode")
		}
		return s, nil
	}
}

func TestConcealDelegatesToStrategy(t *testing.T) {
	lookup := lookupFor(map[ports.ConcealMode]ports.ConcealExtractor{
		ports.ModeAttribute: stubStrategy{concealOut: []byte("concealed")},
	})
	svc := NewGhostService(lookup, nil)
	out, err := svc.Conceal(ports.ModeAttribute, []byte("carrier"), []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, []byte("concealed"), out)
}

func TestConcealAndVerifyRunsBothChecks(t *testing.T) {
	lookup := lookupFor(map[ports.ConcealMode]ports.ConcealExtractor{
		ports.ModeSbox: stubStrategy{concealOut: []byte("concealed")},
	})
	svc := NewGhostService(lookup, stubVerifier{})
	out, err := svc.ConcealAndVerify(ports.ModeSbox, nil, nil, "com/example/Ghost", "main")
	require.NoError(t, err)
	require.Equal(t, []byte("concealed"), out)
}

func TestConcealAndVerifyFailsOnStructuralRejection(t *testing.T) {
	lookup := lookupFor(map[ports.ConcealMode]ports.ConcealExtractor{
		ports.ModeSbox: stubStrategy{concealOut: []byte("concealed")},
	})
	svc := NewGhostService(lookup, stubVerifier{structuralErr: errors.New("bad bytecode")})
	_, err := svc.ConcealAndVerify(ports.ModeSbox, nil, nil, "", "")
	require.Error(t, err)
}

func TestRevealAutoPrefersSboxThenFallsBackToAttribute(t *testing.T) {
	lookup := lookupFor(map[ports.ConcealMode]ports.ConcealExtractor{
		ports.ModeSbox:      stubStrategy{revealErr: ghosterr.New(ghosterr.KindNoPayload, "no sbox fields")},
		ports.ModeAttribute: stubStrategy{revealOut: []byte("from attribute")},
	})
	svc := NewGhostService(lookup, nil)
	out, err := svc.RevealAuto(nil)
	require.NoError(t, err)
	require.Equal(t, []byte("from attribute"), out)
}

func TestRevealAutoReturnsSboxPayloadWhenPresent(t *testing.T) {
	lookup := lookupFor(map[ports.ConcealMode]ports.ConcealExtractor{
		ports.ModeSbox: stubStrategy{revealOut: []byte("from sbox")},
	})
	svc := NewGhostService(lookup, nil)
	out, err := svc.RevealAuto(nil)
	require.NoError(t, err)
	require.Equal(t, []byte("from sbox"), out)
}

func TestRevealAutoPropagatesParseErrorWithoutFallback(t *testing.T) {
	lookup := lookupFor(map[ports.ConcealMode]ports.ConcealExtractor{
		ports.ModeSbox: stubStrategy{revealErr: ghosterr.New(ghosterr.KindParseError, "not a class file")},
	})
	svc := NewGhostService(lookup, nil)
	_, err := svc.RevealAuto(nil)
	require.True(t, ghosterr.Is(err, ghosterr.KindParseError))
}
