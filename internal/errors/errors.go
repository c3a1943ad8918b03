package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the
// benchmark driver. They signal the outcome of the run to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the run timed out.
	ExitErrorWorkload = 3   // Indicates a workload failed while running.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the run was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid
// flags or values. It indicates that the application cannot proceed due
// to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// WorkloadError encapsulates a workload failure while preserving the
// original cause, so callers can inspect what went wrong during the
// measured run.
type WorkloadError struct {
	// Workload names the workload that failed.
	Workload string
	// Cause is the underlying error.
	Cause error
}

// Error returns a message naming the workload and its cause.
func (e WorkloadError) Error() string {
	return fmt.Sprintf("workload %q failed: %s", e.Workload, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection with errors.Is and errors.As.
func (e WorkloadError) Unwrap() error { return e.Cause }

// TimeoutError represents an exceeded run deadline. It captures the
// operation name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered
	// timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies
// which field failed validation and provides a human-readable
// explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// AllocationError represents a failed or over-limit allocation request.
// It captures the requested size and the configured limit for diagnostic
// purposes.
type AllocationError struct {
	// Requested is the number of bytes the workload asked for.
	Requested uint64
	// Outstanding is the number of bytes already allocated and not freed.
	Outstanding uint64
	// Limit is the configured allocation limit in bytes.
	Limit uint64
}

// Error returns a formatted message describing the allocation error.
func (e AllocationError) Error() string {
	return fmt.Sprintf("allocation error: requested %d bytes, outstanding %d bytes (limit: %d)", e.Requested, e.Outstanding, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and
// %w, so the result can be unwrapped with errors.Unwrap and checked with
// errors.Is and errors.As. Returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or
// deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
