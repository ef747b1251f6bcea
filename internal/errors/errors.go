// Package errors provides centralized error definitions and error handling utilities
// for linebridge. It defines stream-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from the line bridge:
//   - StreamError: read or write failures on the bridged descriptors
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or configuration
//
// # Usage
//
//	err := errors.NewStreamError(errors.DirectionOutbound, "write failed", errors.ErrWriteFailed).WithFD(1)
//
//	if errors.Is(err, errors.ErrWriteFailed) { ... }
//
//	var streamErr *errors.StreamError
//	if errors.As(err, &streamErr) { ... }
//
//	if errors.IsTerminal(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Terminal: errors that end the useful life of a bridge
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Stream-related sentinel errors
var (
	// ErrReadFailed indicates a genuine I/O error on the input descriptor.
	ErrReadFailed = New("read failed")
	// ErrWriteFailed indicates that the output stream is closed or broken.
	ErrWriteFailed = New("write failed")
	// ErrWouldBlock indicates that no byte is available without blocking.
	ErrWouldBlock = New("read would block")
	// ErrStdioClaimed indicates that another bridge already owns the process stdio.
	ErrStdioClaimed = New("process stdio already claimed")
)

// Event loop sentinel errors
var (
	// ErrLoopRunning indicates that Run was called on a loop that is already running.
	ErrLoopRunning = New("event loop already running")
	// ErrLoopStopped indicates that the loop has been stopped.
	ErrLoopStopped = New("event loop stopped")
	// ErrUnsupported indicates that readiness notification is not available on this platform.
	ErrUnsupported = New("readiness notification unsupported on this platform")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BridgeError is the base interface for all linebridge errors.
type BridgeError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// Direction identifies which side of the bridge an error occurred on.
type Direction string

const (
	// DirectionInbound is the input (read) side.
	DirectionInbound Direction = "inbound"
	// DirectionOutbound is the output (write) side.
	DirectionOutbound Direction = "outbound"
)

// StreamError represents a failure on one of the bridged streams.
//
// Example:
//
//	err := errors.NewStreamError(errors.DirectionOutbound, "send failed", errors.ErrWriteFailed)
//	err = err.WithFD(1)
//	fmt.Println(err) // "stream error [outbound, fd=1]: send failed: write failed"
type StreamError struct {
	baseError
	Direction Direction
	FD        int
	hasFD     bool
}

// NewStreamError creates a new StreamError with SeverityError.
func NewStreamError(dir Direction, message string, cause error) *StreamError {
	return &StreamError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
		Direction: dir,
	}
}

// WithFD adds the descriptor number to the error context.
func (e *StreamError) WithFD(fd int) *StreamError {
	e.FD = fd
	e.hasFD = true
	return e
}

// WithSeverity sets the error severity.
func (e *StreamError) WithSeverity(s Severity) *StreamError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *StreamError) Error() string {
	var parts []string
	if e.Direction != "" {
		parts = append(parts, string(e.Direction))
	}
	if e.hasFD {
		parts = append(parts, fmt.Sprintf("fd=%d", e.FD))
	}

	prefix := "stream error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("stream error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StreamError) Is(target error) bool {
	if _, ok := target.(*StreamError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			cause:    ErrInvalidInput,
			severity: SeverityWarning,
		},
		Field: field,
		Value: value,
	}
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.message)
	}
	return fmt.Sprintf("validation error [%s]: %s (got: %v)", e.Field, e.message, e.Value)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// GetSeverity returns the severity of err. Unclassified errors are SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityInfo
	}
	var be BridgeError
	if errors.As(err, &be) {
		return be.Severity()
	}
	return SeverityError
}

// IsTerminal reports whether err ends one side of a bridge for good: a read
// failure or a write failure.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrReadFailed) || errors.Is(err, ErrWriteFailed)
}
