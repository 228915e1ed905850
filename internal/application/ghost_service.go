// Package application orchestrates concealment/reveal operations and the
// optional runtime verification gate, independent of any CLI or strategy
// implementation detail.
package application

import (
	"fmt"

	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/hailam/ghostclass/internal/ports"
)

// GhostService orchestrates concealing and revealing payloads in class
// files via whichever strategy the caller names, and optionally gates
// concealment on the Verifier Gateway.
type GhostService struct {
	strategies func(ports.ConcealMode) (ports.ConcealExtractor, error)
	verifier   ports.VerifierGateway
}

// NewGhostService constructs a GhostService. lookup resolves a mode to
// its strategy (stratconceal.For in production); verifier may be nil if
// the caller never asks for verification.
func NewGhostService(lookup func(ports.ConcealMode) (ports.ConcealExtractor, error), verifier ports.VerifierGateway) *GhostService {
	return &GhostService{strategies: lookup, verifier: verifier}
}

// Conceal splices payload into classBytes using mode's strategy.
func (s *GhostService) Conceal(mode ports.ConcealMode, classBytes, payload []byte) ([]byte, error) {
	strategy, err := s.strategies(mode)
	if err != nil {
		return nil, err
	}
	return strategy.Conceal(classBytes, payload)
}

// ConcealAndVerify splices payload into classBytes using mode's strategy,
// then runs the Verifier Gateway's structural check, and — when
// className and entryPoint are both non-empty — the runtime check too.
func (s *GhostService) ConcealAndVerify(mode ports.ConcealMode, classBytes, payload []byte, className, entryPoint string) ([]byte, error) {
	out, err := s.Conceal(mode, classBytes, payload)
	if err != nil {
		return nil, err
	}
	if s.verifier == nil {
		return out, nil
	}
	if err := s.verifier.VerifyStructural(out); err != nil {
		return nil, fmt.Errorf("concealed class failed structural verification: %w", err)
	}
	if className != "" && entryPoint != "" {
		if err := s.verifier.VerifyRuntime(out, className, entryPoint); err != nil {
			return nil, fmt.Errorf("concealed class failed runtime verification: %w", err)
		}
	}
	return out, nil
}

// Reveal recovers the payload from classBytes using mode's strategy.
func (s *GhostService) Reveal(mode ports.ConcealMode, classBytes []byte) ([]byte, error) {
	strategy, err := s.strategies(mode)
	if err != nil {
		return nil, err
	}
	return strategy.Reveal(classBytes)
}

// RevealAuto tries the S-Box strategy first, falling back to the
// attribute strategy on any error that is not itself a parse failure of
// the carrier (spec.md §6.1: a structurally valid class simply missing
// S-Box fields is the expected, non-exceptional shape of an
// attribute-mode carrier, not a corruption to report).
func (s *GhostService) RevealAuto(classBytes []byte) ([]byte, error) {
	sboxStrategy, err := s.strategies(ports.ModeSbox)
	if err != nil {
		return nil, err
	}
	payload, sboxErr := sboxStrategy.Reveal(classBytes)
	if sboxErr == nil {
		return payload, nil
	}
	if ghosterr.Is(sboxErr, ghosterr.KindParseError) {
		return nil, sboxErr
	}

	attrStrategy, err := s.strategies(ports.ModeAttribute)
	if err != nil {
		return nil, err
	}
	payload, attrErr := attrStrategy.Reveal(classBytes)
	if attrErr == nil {
		return payload, nil
	}
	return nil, fmt.Errorf("no payload found via S-Box (%v) or attribute (%w) strategy", sboxErr, attrErr)
}
