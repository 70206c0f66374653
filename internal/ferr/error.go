// Package ferr defines the error taxonomy shared by every layer of the
// decoder (bit reader, metadata parser, frame parser, stream driver) so a
// caller can distinguish a malformed stream from a transport failure
// regardless of which layer detected it.
package ferr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a decode operation failed.
type Kind int

const (
	// UnexpectedEnd means the byte source ended in the middle of an element.
	UnexpectedEnd Kind = iota
	// BadMagic means the 4-byte "fLaC" stream marker was not found.
	BadMagic
	// BadMetadata means a metadata block had a malformed length or an
	// unsupported value in a mandatory field.
	BadMetadata
	// LostSync means a reserved bit pattern was read where the format
	// forbids one; the driver may attempt to resynchronize.
	LostSync
	// Unparseable means a reserved subframe or entropy code was read.
	Unparseable
	// BadHeaderCRC means a frame header's CRC-8 did not match.
	BadHeaderCRC
	// BadFrameCRC means a frame footer's CRC-16 did not match.
	BadFrameCRC
	// IoError means the underlying byte source itself failed.
	IoError
)

func (k Kind) String() string {
	switch k {
	case UnexpectedEnd:
		return "unexpected end of stream"
	case BadMagic:
		return "bad magic"
	case BadMetadata:
		return "bad metadata"
	case LostSync:
		return "lost sync"
	case Unparseable:
		return "unparseable"
	case BadHeaderCRC:
		return "bad header CRC"
	case BadFrameCRC:
		return "bad frame CRC"
	case IoError:
		return "I/O error"
	default:
		return "unknown error"
	}
}

// Recoverable reports whether a driver may discard the current frame and
// resynchronize on this kind of error rather than aborting the stream.
func (k Kind) Recoverable() bool {
	switch k {
	case LostSync, BadHeaderCRC, BadFrameCRC:
		return true
	default:
		return false
	}
}

// Error is the concrete error type returned by every decode operation in
// this module. It carries the bit offset (from the start of the stream) at
// which the failure was detected, for diagnostics.
type Error struct {
	Kind   Kind
	Offset uint64 // bit offset at which the error was detected
	msg    string
	cause  error
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s at bit offset %d: %s", e.Kind, e.Offset, e.msg)
	}
	return fmt.Sprintf("%s at bit offset %d", e.Kind, e.Offset)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause,
// if any. Error has no Cause method, so github.com/pkg/errors.Cause returns
// the *Error itself.
func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs an Error of the given kind at the given bit offset.
func New(kind Kind, offset uint64, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Offset: offset,
		msg:    fmt.Sprintf(format, args...),
		cause:  errors.New(fmt.Sprintf(format, args...)),
	}
}

// Wrap constructs an Error of the given kind at the given bit offset,
// preserving cause as the wrapped underlying error (typically an I/O
// failure from the byte source).
func Wrap(kind Kind, offset uint64, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Offset: offset,
		msg:    fmt.Sprintf(format, args...),
		cause:  errors.WithStack(cause),
	}
}
