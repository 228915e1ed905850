// Package ghosterr defines the closed set of error kinds this module
// surfaces. No error is swallowed: every operation either returns a full
// result or one of these kinds wrapping its cause.
package ghosterr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the closed set of error categories spec'd for this
// module. The set is exhaustive; callers may switch on it with
// errors.As.
type Kind int

const (
	_ Kind = iota
	KindParseError
	KindPoolFull
	KindPayloadTooLarge
	KindVerifyFailed
	KindNoPayload
	KindBadMagic
	KindBadLength
	KindBadChecksum
	KindBadSize
	KindCorrupted
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindPoolFull:
		return "PoolFull"
	case KindPayloadTooLarge:
		return "PayloadTooLarge"
	case KindVerifyFailed:
		return "VerifyFailed"
	case KindNoPayload:
		return "NoPayload"
	case KindBadMagic:
		return "BadMagic"
	case KindBadLength:
		return "BadLength"
	case KindBadChecksum:
		return "BadChecksum"
	case KindBadSize:
		return "BadSize"
	case KindCorrupted:
		return "Corrupted"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with the offending context and, for the kinds that
// need it, extra diagnostic fields (BadMagic's Expected/Found,
// BadLength's Declared/Available).
type Error struct {
	Kind      Kind
	Reason    string
	Expected  uint32
	Found     uint32
	Declared  int64
	Available int64
	cause     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadMagic:
		return fmt.Sprintf("%s: expected %#08x, found %#08x", e.Kind, e.Expected, e.Found)
	case KindBadLength:
		return fmt.Sprintf("%s: declared %d, available %d", e.Kind, e.Declared, e.Available)
	default:
		if e.Reason != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
		}
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a Kind-tagged error with a reason string.
func New(kind Kind, reason string) error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to cause, preserving cause via Unwrap and via
// pkg/errors' cause chain so %+v printing still yields a stack trace at
// the original failure site.
func Wrap(kind Kind, cause error, reason string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Reason: reason, cause: errors.WithMessage(cause, reason)}
}

// BadMagic builds the BadMagic error spec.md §4.3 step 4 requires,
// reporting both the expected and found magic values.
func BadMagic(expected, found uint32) error {
	return &Error{Kind: KindBadMagic, Expected: expected, Found: found}
}

// BadLength builds the BadLength error, reporting the declared length and
// the bytes actually available.
func BadLength(declared, available int64) error {
	return &Error{Kind: KindBadLength, Declared: declared, Available: available}
}

// Is reports whether err (or something it wraps) is a ghosterr.Error of
// the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
