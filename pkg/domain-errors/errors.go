// Package domainerrors defines the typed error taxonomy shared by all
// engine components. Every failure that crosses a package boundary carries
// a Code so callers and the HTTP layer can distinguish "try again" from
// "permanently rejected" without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks a malformed request, rejected before any
	// scoring work is attempted.
	CodeValidation Code = "validation_error"

	// CodeConfiguration marks an ambiguous or missing effective
	// regulation parameter. Fatal to the request: the engine must not
	// guess which rule applies.
	CodeConfiguration Code = "configuration_error"

	// CodeUpstreamUnavailable marks a failed or timed-out bureau/model
	// call that could not be recovered locally.
	CodeUpstreamUnavailable Code = "upstream_unavailable"

	// CodeAuditWrite marks a failed audit append. The decision must not
	// be reported as a success without a durable audit record.
	CodeAuditWrite Code = "audit_write_failure"

	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeForbidden  Code = "forbidden"
	CodeTimeout    Code = "timeout"
	CodeInternal   Code = "internal_error"
)

// Error is a typed domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an existing error with a code and message while keeping
// the cause reachable through errors.Unwrap.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the domain error code from an error chain.
// Non-domain errors report CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
