// Package errors provides centralized error definitions and error handling utilities
// for ralphui. It defines sentinel errors for the view channel, domain error types
// carrying view and storage context, and classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures from a specific subsystem:
//   - ViewError: errors raised while posting to or dispatching from a view surface
//   - StorageError: errors raised while reading or writing persisted panel state
//
// Semantic errors represent common error conditions:
//   - DecodeError: an inbound command or outbound message that does not match the
//     closed set of known shapes
//
// # Usage
//
//	err := errors.NewViewError("post failed", errors.ErrDeliveryFailed).WithView("panel")
//
//	if errors.Is(err, errors.ErrDeliveryFailed) { ... }
//
//	var viewErr *errors.ViewError
//	if errors.As(err, &viewErr) { ... }
//
// # Error Classification
//
// No error in this module is fatal. Severity controls the log level an error is
// reported at; IsUserFacing decides whether it may be surfaced as a toast.
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
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// View channel sentinel errors
var (
	// ErrTransportAbsent indicates the view surface does not currently exist.
	ErrTransportAbsent = New("view transport absent")
	// ErrDeliveryFailed indicates the transport rejected a message.
	ErrDeliveryFailed = New("message delivery failed")
	// ErrViewDisposed indicates the view controller has been disposed.
	ErrViewDisposed = New("view disposed")
)

// Wire sentinel errors
var (
	// ErrUnknownCommand indicates an inbound command outside the known set.
	ErrUnknownCommand = New("unknown command")
	// ErrUnknownMessage indicates an outbound message type outside the known set.
	ErrUnknownMessage = New("unknown message type")
	// ErrMalformedPayload indicates a known command whose payload could not be decoded.
	ErrMalformedPayload = New("malformed payload")
)

// Storage sentinel errors
var (
	// ErrStorage indicates the persisted state backend failed.
	ErrStorage = New("state storage failed")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// RalphError is the base interface for all ralphui errors.
type RalphError interface {
	error
	Unwrap() error
	Severity() Severity
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
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

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ViewError represents a failure on a view surface.
//
// Example:
//
//	err := errors.NewViewError("post failed", errors.ErrDeliveryFailed).WithView("sidebar")
//	fmt.Println(err) // "view error [view=sidebar]: post failed: message delivery failed"
type ViewError struct {
	baseError
	View    string
	Command string
}

// NewViewError creates a new ViewError.
func NewViewError(message string, cause error) *ViewError {
	return &ViewError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithView adds the view name to the error context.
func (e *ViewError) WithView(view string) *ViewError {
	e.View = view
	return e
}

// WithCommand adds the inbound command name to the error context.
func (e *ViewError) WithCommand(command string) *ViewError {
	e.Command = command
	return e
}

// WithSeverity sets the error severity.
func (e *ViewError) WithSeverity(s Severity) *ViewError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ViewError) Error() string {
	var parts []string
	if e.View != "" {
		parts = append(parts, fmt.Sprintf("view=%s", e.View))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%s", e.Command))
	}
	return formatWithContext("view error", parts, e.message, e.cause)
}

// StorageError represents a failure reading or writing persisted state.
type StorageError struct {
	baseError
	Key string
}

// NewStorageError creates a new StorageError wrapping cause.
func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityWarning,
		},
	}
}

// WithKey adds the storage key to the error context.
func (e *StorageError) WithKey(key string) *StorageError {
	e.Key = key
	return e
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	var parts []string
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	return formatWithContext("storage error", parts, e.message, e.cause)
}

// Is reports whether target is ErrStorage so callers can match any storage failure.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// DecodeError reports a wire value that does not belong to the closed set of
// commands or messages.
type DecodeError struct {
	baseError
	Tag string
}

// NewDecodeError creates a DecodeError for the given tag.
func NewDecodeError(tag string, cause error) *DecodeError {
	return &DecodeError{
		baseError: baseError{
			message:  fmt.Sprintf("cannot decode %q", tag),
			cause:    cause,
			severity: SeverityWarning,
		},
		Tag: tag,
	}
}

func formatWithContext(kind string, parts []string, message string, cause error) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var ralphErr RalphError
	if As(err, &ralphErr) {
		return ralphErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement RalphError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var ralphErr RalphError
	if As(err, &ralphErr) {
		return ralphErr.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
