package sboxconceal

import (
	"github.com/hailam/ghostclass/internal/classfile"
	"github.com/hailam/ghostclass/internal/fieldname"
	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/hailam/ghostclass/internal/ports"
	"github.com/hailam/ghostclass/internal/random"
	"github.com/hailam/ghostclass/internal/sbox"
	"github.com/hailam/ghostclass/internal/stratconceal"
	"github.com/pkg/errors"
)

func init() {
	stratconceal.Register(ports.ModeSbox, New(sbox.New(random.New())))
}

const fieldDescriptorTable = "[I"
const fieldDescriptorChecksum = "J"

// Strategy implements ports.ConcealExtractor for the S-Box concealment
// mode (spec.md §4.4): payload packed into a table shaped like a
// cryptographic substitution box, smeared across two new static fields
// and a synthesized <clinit> prefix.
type Strategy struct {
	Codec ports.SboxCodec
}

// New returns the S-Box concealment strategy drawing table randomness
// from codec.
func New(codec ports.SboxCodec) ports.ConcealExtractor {
	return Strategy{Codec: codec}
}

func thisClassName(cf *classfile.ClassFile) (string, error) {
	e := cf.Pool.Get(cf.ThisClass)
	if e == nil || e.Tag != classfile.TagClass {
		return "", ghosterr.New(ghosterr.KindParseError, "this_class does not reference a Class entry")
	}
	name := cf.Pool.Utf8At(e.Index1)
	if name == "" {
		return "", ghosterr.New(ghosterr.KindParseError, "this_class name is not a Utf8 entry")
	}
	return name, nil
}

// Conceal packs payload into a freshly randomized S-Box table, injects
// the two derived static fields, and prepends the table-populating
// bytecode to <clinit>.
func (s Strategy) Conceal(classBytes, payload []byte) ([]byte, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "sboxconceal: parse carrier")
	}

	className, err := thisClassName(cf)
	if err != nil {
		return nil, err
	}

	table, err := s.Codec.Encode(payload)
	if err != nil {
		return nil, err
	}

	tableName := fieldname.TableFieldName(className)
	checksumName := fieldname.ChecksumFieldName(className)

	if classfile.FindField(cf, tableName) != nil || classfile.FindField(cf, checksumName) != nil {
		return nil, ghosterr.Newf(ghosterr.KindCorrupted, "carrier already declares field %q or %q", tableName, checksumName)
	}

	if _, err := classfile.AppendField(cf, classfile.AccStatic|classfile.AccFinal|classfile.AccPrivate, tableName, fieldDescriptorTable); err != nil {
		return nil, err
	}
	if _, err := classfile.AppendField(cf, classfile.AccStatic|classfile.AccFinal|classfile.AccPublic, checksumName, fieldDescriptorChecksum); err != nil {
		return nil, err
	}

	tableRef, err := cf.Pool.InternFieldref(className, tableName, fieldDescriptorTable)
	if err != nil {
		return nil, err
	}
	checksumRef, err := cf.Pool.InternFieldref(className, checksumName, fieldDescriptorChecksum)
	if err != nil {
		return nil, err
	}

	prefix, maxStack, maxLocals, err := EmitPrefix(cf.Pool, tableRef, checksumRef, table)
	if err != nil {
		return nil, err
	}

	if err := classfile.PrependClinit(cf, prefix, maxStack, maxLocals); err != nil {
		return nil, err
	}

	return classfile.Serialize(cf), nil
}

// Reveal scans every static int[] field as a candidate (spec.md §4.4
// reveal step 1: "without regard to access flags beyond static"), tries to
// reconstruct each one's array literal out of <clinit> by simulation, and
// returns the payload from the first candidate whose recovered table
// decodes successfully. This tolerates a carrier whose table field was not
// named by this implementation's fieldname hash (spec.md §9's
// cross-compatibility open question): the hash only picks a name on the
// conceal side, reveal never assumes it.
func (s Strategy) Reveal(classBytes []byte) ([]byte, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "sboxconceal: parse carrier")
	}

	className, err := thisClassName(cf)
	if err != nil {
		return nil, err
	}

	clinit := classfile.FindMethod(cf, "<clinit>", "()V")
	if clinit == nil {
		return nil, ghosterr.New(ghosterr.KindNoPayload, "carrier has no <clinit>")
	}
	codeAttr := classfile.FindCodeAttribute(cf, clinit)
	if codeAttr == nil {
		return nil, ghosterr.New(ghosterr.KindNoPayload, "<clinit> has no Code attribute")
	}
	code, err := classfile.DecodeCode(codeAttr.Info)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, f := range cf.Fields {
		if f.AccessFlags&classfile.AccStatic == 0 {
			continue
		}
		if cf.Pool.Utf8At(f.DescriptorIndex) != fieldDescriptorTable {
			continue
		}
		candidates = append(candidates, cf.Pool.Utf8At(f.NameIndex))
	}
	if len(candidates) == 0 {
		return nil, ghosterr.New(ghosterr.KindNoPayload, "carrier declares no static int[] field")
	}

	for _, name := range candidates {
		ref, ok := cf.Pool.FindFieldref(className, name, fieldDescriptorTable)
		if !ok {
			continue
		}
		table, err := SimulateRecover(cf.Pool, code.Bytecode, ref)
		if err != nil {
			continue
		}
		payload, err := s.Codec.Decode(table)
		if err != nil {
			continue
		}
		return payload, nil
	}
	return nil, ghosterr.New(ghosterr.KindNoPayload, "no candidate field decoded to a valid S-Box payload")
}
