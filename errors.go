package kfst

import (
	"errors"
	"fmt"
)

// Sentinel parse errors. Wrapped with fmt.Errorf("...: %w", ...) by callers
// so errors.Is still matches.
var (
	// ErrBadMagic is returned when a binary stream does not start with the
	// 4-byte "KFST" magic.
	ErrBadMagic = errors.New("kfst: bad magic")

	// ErrUnsupportedVersion is returned when the binary stream declares a
	// format version this package does not know how to decode.
	ErrUnsupportedVersion = errors.New("kfst: unsupported binary version")

	// ErrTruncated is returned when a stream ends before all header,
	// symbol-table, or payload fields required by the format have been
	// read.
	ErrTruncated = errors.New("kfst: truncated input")
)

// MalformedRecordError reports a line of AT&T tabular input that could not
// be parsed into a final-state or transition record. ParseATT also returns
// it with Line 0 when the input holds no record at all, and ParseBinary
// returns it with Line -1 when the symbol section does not start with @0@.
type MalformedRecordError struct {
	Line int
	Text string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("kfst: malformed record on line %d: %q", e.Line, e.Text)
}

// UnknownSymbolError reports a reference to a symbol id that was never
// registered in the symbol table (e.g. a transition's symbol index falls
// outside the decoded symbol section of a binary file).
type UnknownSymbolError struct {
	ID SymbolID
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("kfst: unknown symbol id %d", e.ID)
}

// MalformedFlagDiacriticError reports a symbol whose textual form looks
// like a flag-diacritic envelope (@<op>.<feature>[.value]@) but whose
// operator character is not one of P, N, R, D, C, U.
type MalformedFlagDiacriticError struct {
	Text string
}

func (e *MalformedFlagDiacriticError) Error() string {
	return fmt.Sprintf("kfst: malformed flag diacritic %q", e.Text)
}

// UntokenizableInputError reports that the input string could not be split
// into symbols of the transducer's alphabet at the given byte offset, and
// the transducer's alphabet has no identity/unknown fallback symbol (or the
// caller disabled the fallback via LookupOptions.AllowUnknown).
type UntokenizableInputError struct {
	Position int
}

func (e *UntokenizableInputError) Error() string {
	return fmt.Sprintf("kfst: input cannot be tokenized at byte offset %d", e.Position)
}
