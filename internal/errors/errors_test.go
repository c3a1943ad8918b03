package apperrors

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	t.Run("Error returns message", func(t *testing.T) {
		t.Parallel()
		err := ConfigError{Message: "invalid flag value"}
		if err.Error() != "invalid flag value" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("NewConfigError formats", func(t *testing.T) {
		t.Parallel()
		err := NewConfigError("invalid value %d for flag %s", 42, "--workload-size")
		want := "invalid value 42 for flag --workload-size"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		var configErr ConfigError
		if !errors.As(err, &configErr) {
			t.Error("errors.As should find ConfigError")
		}
	})
}

func TestWorkloadError(t *testing.T) {
	t.Parallel()

	cause := errors.New("slice bounds out of range")
	err := WorkloadError{Workload: "churn", Cause: cause}

	want := `workload "churn" failed: slice bounds out of range`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the original cause")
	}

	wrapped := WorkloadError{Workload: "ramp", Cause: context.Canceled}
	if !errors.Is(wrapped, context.Canceled) {
		t.Error("errors.Is should find the cause in the chain")
	}
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      TimeoutError
		expected string
	}{
		{
			name:     "seconds",
			err:      TimeoutError{Operation: "churn", Limit: 30 * time.Second},
			expected: `operation "churn" timed out after 30s`,
		},
		{
			name:     "subsecond",
			err:      TimeoutError{Operation: "ramp", Limit: 500 * time.Millisecond},
			expected: `operation "ramp" timed out after 500ms`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var err error = tt.err
			if err.Error() != tt.expected {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.expected)
			}
			var timeoutErr TimeoutError
			if !errors.As(err, &timeoutErr) || timeoutErr.Operation != tt.err.Operation {
				t.Errorf("errors.As lost the operation: %+v", timeoutErr)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := ValidationError{Field: "block-size", Message: "must be greater than zero"}
	want := `validation error for "block-size": must be greater than zero`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var validationErr ValidationError
	if !errors.As(error(err), &validationErr) || validationErr.Field != "block-size" {
		t.Errorf("errors.As lost the field: %+v", validationErr)
	}
}

func TestAllocationError(t *testing.T) {
	t.Parallel()

	err := AllocationError{Requested: 4096, Outstanding: 2048, Limit: 8192}
	want := "allocation error: requested 4096 bytes, outstanding 2048 bytes (limit: 8192)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var allocErr AllocationError
	if !errors.As(error(err), &allocErr) || allocErr.Requested != 4096 {
		t.Errorf("errors.As lost the request size: %+v", allocErr)
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	t.Parallel()

	t.Run("TimeoutError through WorkloadError", func(t *testing.T) {
		t.Parallel()
		inner := TimeoutError{Operation: "churn", Limit: 5 * time.Second}
		err := WorkloadError{Workload: "churn", Cause: inner}

		var timeoutErr TimeoutError
		if !errors.As(err, &timeoutErr) {
			t.Error("errors.As should find TimeoutError through WorkloadError")
		}
	})

	t.Run("ValidationError through WrapError", func(t *testing.T) {
		t.Parallel()
		inner := ValidationError{Field: "rounds", Message: "too large"}
		err := WrapError(inner, "config check failed")

		var validationErr ValidationError
		if !errors.As(err, &validationErr) {
			t.Error("errors.As should find ValidationError through WrapError")
		}
	})
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		original    error
		format      string
		args        []any
		expectedMsg string
		expectNil   bool
		checkIs     error
	}{
		{
			name:        "wraps error with context",
			original:    errors.New("file not found"),
			format:      "failed to write report",
			expectedMsg: "failed to write report: file not found",
		},
		{
			name:        "preserves error chain",
			original:    context.DeadlineExceeded,
			format:      "run timed out",
			expectedMsg: "run timed out: context deadline exceeded",
			checkIs:     context.DeadlineExceeded,
		},
		{
			name:      "returns nil for nil error",
			original:  nil,
			format:    "some context",
			expectNil: true,
		},
		{
			name:        "supports format arguments",
			original:    errors.New("address in use"),
			format:      "failed to listen on %s:%d",
			args:        []any{"localhost", 9090},
			expectedMsg: "failed to listen on localhost:9090: address in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := WrapError(tt.original, tt.format, tt.args...)

			if tt.expectNil {
				if wrapped != nil {
					t.Error("WrapError(nil, ...) should return nil")
				}
				return
			}
			if wrapped == nil {
				t.Fatal("wrapped error should not be nil")
			}
			if wrapped.Error() != tt.expectedMsg {
				t.Errorf("Error() = %q, want %q", wrapped.Error(), tt.expectedMsg)
			}
			if tt.checkIs != nil && !errors.Is(wrapped, tt.checkIs) {
				t.Errorf("wrapped error should preserve %v in the chain", tt.checkIs)
			}
		})
	}
}

func TestIsContextError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"context.Canceled", context.Canceled, true},
		{"context.DeadlineExceeded", context.DeadlineExceeded, true},
		{"wrapped context.Canceled", WrapError(context.Canceled, "run canceled"), true},
		{"regular error", errors.New("some error"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsContextError(tt.err); got != tt.expected {
				t.Errorf("IsContextError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess = %d, want 0", ExitSuccess)
	}
	if ExitErrorCanceled != 130 {
		t.Errorf("ExitErrorCanceled = %d, want 130 (SIGINT convention)", ExitErrorCanceled)
	}

	codes := map[string]int{
		"ExitSuccess":       ExitSuccess,
		"ExitErrorGeneric":  ExitErrorGeneric,
		"ExitErrorTimeout":  ExitErrorTimeout,
		"ExitErrorWorkload": ExitErrorWorkload,
		"ExitErrorConfig":   ExitErrorConfig,
		"ExitErrorCanceled": ExitErrorCanceled,
	}
	seen := make(map[int]string)
	for name, code := range codes {
		if existing, ok := seen[code]; ok {
			t.Errorf("duplicate exit code %d: %s and %s", code, existing, name)
		}
		seen[code] = name
	}
}
