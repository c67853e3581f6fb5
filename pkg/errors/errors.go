// Package errors provides the unified error type and factory functions for the
// CultureMech pipeline. Every stage (layer store, normalizer, ontology client,
// mapping cascade, repair, merge, validation) uses AppError as the single
// carrier for structured error information, enabling consistent exit-code
// selection, logging, and per-run statistics.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// AppError is the single structured error type used throughout CultureMech.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so errors.Is / errors.As / errors.Unwrap work across stages.
//
// Usage:
//
//	return errors.New(errors.CodeUnfixableYAML, "raw_yaml/dsmz/123.yaml still invalid after stage 3")
//	return errors.Wrap(scanErr, errors.CodeLayerCollision, "layer 3 filename collision")
type AppError struct {
	Code    ErrorCode
	Message string
	Detail  string
	Cause   error
	Stack   string
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s(%d)] %s: %s", e.Code.String(), int(e.Code), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s(%d)] %s", e.Code.String(), int(e.Code), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Stack: captureStack(1)}
}

// NewMsg constructs a CodeUnknown AppError carrying only a message, for
// command-line/glue failures that don't belong to any pipeline domain.
func NewMsg(message string) *AppError {
	return &AppError{Code: CodeUnknown, Message: message, Stack: captureStack(1)}
}

// Wrap constructs an AppError that wraps an existing error. If err is nil,
// Wrap returns nil. When code is CodeUnknown and err already carries an
// AppError, the original code is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err, Stack: captureStack(1)}
}

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsFatal reports whether err represents one of the pipeline's globally fatal
// conditions (internal invariant violation) — exit code 2.
func IsFatal(err error) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			switch ae.Code {
			case CodeInternal, CodeFingerprintMismatch:
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err's chain carries any of the codes this
// package maps to a 404 (CodeNotFound, CodeOntologyNotFound,
// CodeTermNotFound).
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound) || IsCode(err, CodeOntologyNotFound) || IsCode(err, CodeTermNotFound)
}

// GetCode extracts the ErrorCode from the first *AppError found in err's
// chain. A nil err yields CodeOK; if no *AppError is present, CodeUnknown
// is returned.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Stack: captureStack(1)}
}

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message, Stack: captureStack(1)}
}

// NewValidationError constructs a CodeInvalidParam AppError naming the field
// that failed validation.
func NewValidationError(field, message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message, Detail: "field=" + field, Stack: captureStack(1)}
}

// Conflict constructs a CodeConflict AppError.
func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Stack: captureStack(1)}
}

// Internal constructs a CodeInternal AppError — fatal, exit code 2.
func Internal(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Stack: captureStack(1)}
}
