package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
)

func TestUserFriendlyError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      UserFriendlyError
		contains []string
	}{
		{
			name:     "message only",
			err:      UserFriendlyError{Message: "something broke"},
			contains: []string{"something broke"},
		},
		{
			name: "all fields",
			err: UserFriendlyError{
				Kind:    ErrConnection,
				Message: "connection failed",
				Reason:  "timeout",
				Hint:    "check network",
				Try:     "ping host",
				Err:     fmt.Errorf("dial tcp: timeout"),
			},
			contains: []string{"connection failed", "Reason: timeout", "Hint: check network", "Try: ping host", "Details: dial tcp: timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, want to contain %q", msg, s)
				}
			}
		})
	}
}

func TestUserFriendlyError_ErrorOmitsEmptyFields(t *testing.T) {
	err := UserFriendlyError{Message: "msg"}
	msg := err.Error()
	if strings.Contains(msg, "Reason:") || strings.Contains(msg, "Hint:") || strings.Contains(msg, "Try:") || strings.Contains(msg, "Details:") {
		t.Errorf("Error() = %q, should not contain empty fields", msg)
	}
}

func TestUserFriendlyError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("root cause")
	err := UserFriendlyError{Kind: ErrIO, Message: "wrapper", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the inner error")
	}
	if !errors.Is(err, ErrIO) {
		t.Error("errors.Is should find the kind")
	}

	var empty UserFriendlyError
	if len(empty.Unwrap()) != 0 {
		t.Error("Unwrap on empty error should return nothing")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"usage", NewUsageError("bad args", "enipfuzz IP TESTCASE_PATH"), ExitUsage},
		{"connection", fmt.Errorf("dial: %w", ErrConnection), ExitConnection},
		{"protocol", fmt.Errorf("%w: short", ErrProtocol), ExitProtocol},
		{"malformed", fmt.Errorf("%w: 3 bytes", ErrMalformedInput), ExitMalformedInput},
		{"io", fmt.Errorf("%w: read", ErrIO), ExitIO},
		{"timeout", UserFriendlyError{Kind: ErrTimeout, Message: "slow"}, ExitTimeout},
		{"untyped", fmt.Errorf("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil, ErrIO) != nil {
		t.Error("KindOf(nil) should be nil")
	}
	if got := KindOf(fmt.Errorf("x: %w", ErrProtocol), ErrIO); got != ErrProtocol {
		t.Errorf("KindOf() = %v, want %v", got, ErrProtocol)
	}
	if got := KindOf(fmt.Errorf("plain"), ErrIO); got != ErrIO {
		t.Errorf("KindOf() fallback = %v, want %v", got, ErrIO)
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(fmt.Errorf("read: %w", os.ErrDeadlineExceeded)) {
		t.Error("deadline exceeded should be a timeout")
	}
	if IsTimeout(io.EOF) {
		t.Error("EOF is not a timeout")
	}
	if IsTimeout(nil) {
		t.Error("nil is not a timeout")
	}
}

func TestWrapNetworkError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if WrapNetworkError(nil, "10.0.0.1", 44818) != nil {
			t.Error("expected nil")
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		err := WrapNetworkError(fmt.Errorf("dial tcp: connection refused"), "10.0.0.1", 44818)
		ufe := err.(UserFriendlyError)
		if !strings.Contains(ufe.Message, "10.0.0.1:44818") {
			t.Errorf("message should contain address, got %q", ufe.Message)
		}
		if !strings.Contains(ufe.Reason, "refused") {
			t.Errorf("reason should mention refused, got %q", ufe.Reason)
		}
		if !errors.Is(err, ErrConnection) {
			t.Error("expected ErrConnection kind")
		}
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := WrapNetworkError(fmt.Errorf("dial tcp: %w", os.ErrDeadlineExceeded), "10.0.0.1", 44818)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout kind, got %v", err)
		}
	})

	t.Run("generic network error", func(t *testing.T) {
		err := WrapNetworkError(fmt.Errorf("something else"), "10.0.0.1", 44818)
		ufe := err.(UserFriendlyError)
		if ufe.Reason != "Network communication failed" {
			t.Errorf("unexpected reason: %q", ufe.Reason)
		}
	})
}

func TestWrapSessionError(t *testing.T) {
	if WrapSessionError(nil, "RegisterSession", "10.0.0.1", 44818) != nil {
		t.Error("expected nil")
	}

	err := WrapSessionError(fmt.Errorf("%w: response too short: 3 bytes", ErrProtocol), "RegisterSession", "10.0.0.1", 44818)
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("expected ErrProtocol kind, got %v", err)
	}
	ufe := err.(UserFriendlyError)
	if !strings.Contains(ufe.Reason, "truncated") {
		t.Errorf("reason should mention truncation, got %q", ufe.Reason)
	}

	err = WrapSessionError(fmt.Errorf("write: broken pipe"), "send test case", "10.0.0.1", 44818)
	if !errors.Is(err, ErrIO) {
		t.Errorf("untyped transport failure should be ErrIO, got %v", err)
	}

	err = WrapSessionError(os.ErrDeadlineExceeded, "send test case", "10.0.0.1", 44818)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("untyped deadline should be ErrTimeout, got %v", err)
	}
}

func TestWrapSessionErrorKeepsCancelKind(t *testing.T) {
	// A cancelled exchange carries the socket's deadline error too; the kind
	// already chosen by the session layer must win.
	cause := fmt.Errorf("%w: receive RegisterSession response: %w: %w", ErrIO, context.Canceled, os.ErrDeadlineExceeded)

	err := WrapSessionError(cause, "RegisterSession", "10.0.0.1", 44818)
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("cancel reported as timeout: %v", err)
	}
	if got := ExitCode(err); got != ExitIO {
		t.Errorf("exit code = %d, want %d", got, ExitIO)
	}
	if ufe := err.(UserFriendlyError); !strings.Contains(ufe.Hint, "Interrupted") {
		t.Errorf("hint = %q", ufe.Hint)
	}
}

func TestWrapInputError(t *testing.T) {
	err := WrapInputError(fmt.Errorf("%w: 10 bytes", ErrMalformedInput), "case.bin")
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput kind, got %v", err)
	}
	ufe := err.(UserFriendlyError)
	if !strings.Contains(ufe.Hint, "24-byte") {
		t.Errorf("hint should mention header size, got %q", ufe.Hint)
	}

	err = WrapInputError(os.ErrNotExist, "missing.bin")
	if !errors.Is(err, ErrIO) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrIO wrapping ErrNotExist, got %v", err)
	}
}

func TestWrapConfigError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if WrapConfigError(nil, "config.yaml") != nil {
			t.Error("expected nil")
		}
	})

	t.Run("wraps config error", func(t *testing.T) {
		err := WrapConfigError(fmt.Errorf("invalid yaml"), "enipfuzz.yaml")
		ufe := err.(UserFriendlyError)
		if !strings.Contains(ufe.Message, "enipfuzz.yaml") {
			t.Errorf("message should contain config path, got %q", ufe.Message)
		}
		if ufe.Reason != "invalid yaml" {
			t.Errorf("reason should be inner error message, got %q", ufe.Reason)
		}
		if !errors.Is(err, ErrUsage) {
			t.Error("config errors should be usage errors")
		}
	})
}
