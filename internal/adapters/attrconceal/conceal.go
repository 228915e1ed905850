package attrconceal

import (
	"github.com/hailam/ghostclass/internal/classfile"
	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/hailam/ghostclass/internal/ports"
	"github.com/hailam/ghostclass/internal/stratconceal"
	"github.com/pkg/errors"
)

func init() {
	stratconceal.Register(ports.ModeAttribute, New())
}

// Strategy implements ports.ConcealExtractor for the attribute
// concealment mode.
type Strategy struct{}

// New returns the attribute concealment strategy.
func New() ports.ConcealExtractor {
	return Strategy{}
}

// Conceal replaces (not duplicates, per spec.md §4.3) any existing
// GhostPayload attribute with one carrying payload, and serializes the
// result.
func (Strategy) Conceal(classBytes, payload []byte) ([]byte, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "attrconceal: parse carrier")
	}

	classfile.RemoveAttribute(cf, classfile.AttrGhostPayload)

	container := encodeContainer(payload)
	if err := classfile.AppendAttribute(cf, classfile.AttrGhostPayload, container); err != nil {
		return nil, errors.WithMessage(err, "attrconceal: append GhostPayload attribute")
	}

	return classfile.Serialize(cf), nil
}

// Reveal locates the single GhostPayload attribute and decodes its
// container (spec.md §4.3 reveal steps).
func (Strategy) Reveal(classBytes []byte) ([]byte, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "attrconceal: parse carrier")
	}

	attr := classfile.FindAttribute(cf, classfile.AttrGhostPayload)
	if attr == nil {
		return nil, ghosterr.New(ghosterr.KindNoPayload, "no GhostPayload attribute present")
	}

	return decodeContainer(attr.Info)
}
