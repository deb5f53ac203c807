// Package filtererr defines the structured error type shared by every stage of
// the filter compiler.
//
// All compile failures are reported synchronously as *Error values. Callers
// classify them with the Is* helpers, which use errors.As and therefore see
// through fmt.Errorf("...: %w") wrapping.
package filtererr

import (
	"errors"
	"fmt"
)

// Code categorizes compile errors.
type Code string

const (
	// CodeParse indicates unparsable JSON or a node shape that matches no
	// known operator.
	CodeParse Code = "PARSE_ERROR"

	// CodeUnmappedPath indicates a var path that does not resolve through
	// entity metadata.
	CodeUnmappedPath Code = "UNMAPPED_PATH"

	// CodeTypeMismatch indicates an operator applied to a property of an
	// incompatible general type, or a literal that cannot be coerced.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodeConfiguration indicates broken metadata, e.g. an unknown reference
	// list.
	CodeConfiguration Code = "CONFIGURATION"
)

// Error is a compile error with structured fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Path is the var path involved, if any.
	Path string

	// Op is the filter operator involved, if any.
	Op string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Path != "" && e.Op != "":
		msg = fmt.Sprintf("%s (path=%s, op=%s)", msg, e.Path, e.Op)
	case e.Path != "":
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	case e.Op != "":
		msg = fmt.Sprintf("%s (op=%s)", msg, e.Op)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Parsef creates a PARSE_ERROR.
func Parsef(format string, args ...any) *Error {
	return &Error{Code: CodeParse, Message: fmt.Sprintf(format, args...)}
}

// WrapParse creates a PARSE_ERROR caused by err.
func WrapParse(err error, message string) *Error {
	return &Error{Code: CodeParse, Message: message, Err: err}
}

// Unmapped creates an UNMAPPED_PATH error for path.
func Unmapped(path, format string, args ...any) *Error {
	return &Error{Code: CodeUnmappedPath, Message: fmt.Sprintf(format, args...), Path: path}
}

// Mismatch creates a TYPE_MISMATCH error for op applied to path.
func Mismatch(op, path, format string, args ...any) *Error {
	return &Error{Code: CodeTypeMismatch, Message: fmt.Sprintf(format, args...), Path: path, Op: op}
}

// Configurationf creates a CONFIGURATION error.
func Configurationf(format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code Code) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// IsParseError returns true if the error is a PARSE_ERROR.
func IsParseError(err error) bool { return HasCode(err, CodeParse) }

// IsUnmappedPath returns true if the error is an UNMAPPED_PATH error.
func IsUnmappedPath(err error) bool { return HasCode(err, CodeUnmappedPath) }

// IsTypeMismatch returns true if the error is a TYPE_MISMATCH error.
func IsTypeMismatch(err error) bool { return HasCode(err, CodeTypeMismatch) }

// IsConfiguration returns true if the error is a CONFIGURATION error.
func IsConfiguration(err error) bool { return HasCode(err, CodeConfiguration) }
