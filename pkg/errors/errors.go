// Package errors provides structured error types for traitmix.
//
// Every failure the generator can report carries a machine-readable [Code]
// so the CLI can print a focused message and tests can assert on the failure
// class without matching strings.
//
// # Error Codes
//
// Codes fall into three groups:
//   - Structural: problems in config documents or catalog directories. These
//     abort a project before any sampling begins.
//   - Generation: [ErrCodeToleranceExceeded], raised only after a catalog
//     loaded successfully.
//   - Infrastructure: [ErrCodeLockAcquisition] and [ErrCodeIO], reported as-is
//     and never retried.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateTraitName, "duplicated trait name %q", name)
//	if errors.Is(err, errors.ErrCodeDuplicateTraitName) {
//	    // Handle duplicate
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLayerUnreadable, origErr, "read layer %s", dir)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Config errors
	ErrCodeConfigParse   Code = "CONFIG_PARSE"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Catalog errors
	ErrCodeDuplicateTraitName Code = "DUPLICATE_TRAIT_NAME"
	ErrCodeLayerUnreadable    Code = "LAYER_UNREADABLE"
	ErrCodeUnparsableWeight   Code = "UNPARSABLE_WEIGHT"
	ErrCodeEmptyLayer         Code = "EMPTY_LAYER"

	// Blacklist errors
	ErrCodeAmbiguousBlacklist Code = "AMBIGUOUS_BLACKLIST_ENTRY"

	// Generation errors
	ErrCodeToleranceExceeded Code = "TOLERANCE_EXCEEDED"
	ErrCodeLockAcquisition   Code = "LOCK_ACQUISITION_FAILURE"

	// Internal errors
	ErrCodeIO       Code = "IO_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coder is implemented by error types that carry a code without being *Error.
type coder interface {
	ErrorCode() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain (including joined errors) looking for an *Error
// or a coded error type with a matching code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Code == code {
		return true
	}
	if c, ok := err.(coder); ok && c.ErrorCode() == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return Is(u.Unwrap(), code)
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error chain holds no coded error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Split flattens an error produced by errors.Join into its parts.
// A nil error yields nil; any other error yields a one-element slice.
func Split(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, inner := range j.Unwrap() {
			out = append(out, Split(inner)...)
		}
		return out
	}
	return []error{err}
}

// ToleranceExceededError reports that a project ran out of rejection budget
// before reaching its target amount.
type ToleranceExceededError struct {
	Project   string
	Amount    int
	Accepted  int
	Tolerance int
	Attempts  int
}

// Error implements the error interface.
func (e *ToleranceExceededError) Error() string {
	return fmt.Sprintf("%s: project %q: generated %d of %d after %d attempts (tolerance %d); add more traits or raise the tolerance",
		ErrCodeToleranceExceeded, e.Project, e.Accepted, e.Amount, e.Attempts, e.Tolerance)
}

// ErrorCode returns the error code for this error type.
func (e *ToleranceExceededError) ErrorCode() Code {
	return ErrCodeToleranceExceeded
}
