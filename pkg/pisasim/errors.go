package pisasim

import (
	"errors"

	"github.com/pisa-sim/pisa-sim/internal/pisasim/diag"
)

// ErrorCode identifies one of the fatal error kinds a P-ISA program can
// raise. It is an alias of diag.Code so that callers comparing against
// the constants below never need to import internal/pisasim/diag
// directly.
type ErrorCode = diag.Code

const (
	ErrUnknown                  = diag.ErrUnknown
	ErrMalformedInstruction     = diag.ErrMalformedInstruction
	ErrWidthMismatch            = diag.ErrWidthMismatch
	ErrMissingReference         = diag.ErrMissingReference
	ErrUndefinedOperation       = diag.ErrUndefinedOperation
	ErrUnsupportedConfiguration = diag.ErrUnsupportedConfiguration
)

// Error is the sum type every fatal simulator error is reported as.
type Error = diag.Error

// CodeOf extracts the ErrorCode from err if it (or something it wraps)
// is a *Error, and reports whether one was found.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return ErrUnknown, false
}
