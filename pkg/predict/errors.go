package predict

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind classifies a terminal prediction failure so callers can distinguish
// "fix your input" from "try again later" without parsing messages.
type Kind string

const (
	KindInvalidRequest  Kind = "invalid_request"
	KindInputNotFound   Kind = "input_not_found"
	KindEngineFailure   Kind = "engine_failure"
	KindTimeout         Kind = "timeout"
	KindMalformedOutput Kind = "malformed_output"
	KindValidation      Kind = "validation_error"
)

// ErrNotFound is returned by resolvers when a name or code matches zero or
// multiple candidates.
var ErrNotFound = errors.New("not found")

// maxDiagnostics bounds how much captured engine stderr or raw output is
// retained for logging. Nothing beyond this summary ever reaches a caller.
const maxDiagnostics = 512

// Error is a classified prediction failure. Message is safe to show to the
// caller; Diagnostics is bounded raw detail intended for logs only.
type Error struct {
	Kind        Kind
	Message     string
	Diagnostics string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a classified error with no underlying cause
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a classified error around an underlying cause
func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the failure kind from any error in the chain.
// Unclassified errors report as empty string.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Truncate bounds free-form diagnostic text before it is attached to an
// error or written to the log. The cut never splits a multi-byte rune.
func Truncate(s string) string {
	if len(s) <= maxDiagnostics {
		return s
	}
	cut := maxDiagnostics
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated)"
}
