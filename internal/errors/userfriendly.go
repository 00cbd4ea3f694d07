package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Kind    error
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewUsageError reports a bad command line. usage is the one-line synopsis.
func NewUsageError(message, usage string) error {
	return UserFriendlyError{
		Kind:    ErrUsage,
		Message: message,
		Try:     usage,
	}
}

// WrapNetworkError wraps connect failures with user-friendly context
func WrapNetworkError(err error, ip string, port int) error {
	if err == nil {
		return nil
	}

	kind := ErrConnection
	if IsTimeout(err) {
		kind = ErrTimeout
	}

	return UserFriendlyError{
		Kind:    kind,
		Message: fmt.Sprintf("Failed to connect to target at %s:%d", ip, port),
		Reason:  extractNetworkReason(err),
		Hint:    "Target may be down, crashed by a previous test case, or not listening for EtherNet/IP",
		Try:     fmt.Sprintf("enipfuzz register --ip %s --port %d", ip, port),
		Err:     err,
	}
}

// WrapSessionError wraps failures that happen on an established connection.
func WrapSessionError(err error, operation, ip string, port int) error {
	if err == nil {
		return nil
	}

	kind := KindOf(err, nil)
	if kind == nil {
		kind = ErrIO
		if IsTimeout(err) {
			kind = ErrTimeout
		}
	}

	hint := "The target closed or stalled the connection"
	switch {
	case stderrors.Is(err, context.Canceled):
		hint = "Interrupted before the exchange finished"
	case kind == ErrProtocol:
		hint = "Target answered with something that is not an ENIP encapsulation header"
	case kind == ErrTimeout:
		hint = "Target accepted the connection but did not answer in time"
	}

	return UserFriendlyError{
		Kind:    kind,
		Message: fmt.Sprintf("%s with %s:%d failed", operation, ip, port),
		Reason:  extractProtocolReason(err),
		Hint:    hint,
		Try:     "Increase --timeout or verify the target with: enipfuzz register --ip " + ip,
		Err:     err,
	}
}

// WrapProtocolError wraps ENIP encapsulation errors with user-friendly context
func WrapProtocolError(err error, operation string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Kind:    KindOf(err, ErrProtocol),
		Message: fmt.Sprintf("ENIP operation failed: %s", operation),
		Reason:  extractProtocolReason(err),
		Hint:    "The target may not speak EtherNet/IP on this port",
		Err:     err,
	}
}

// WrapInputError wraps test-case loading errors with user-friendly context
func WrapInputError(err error, path string) error {
	if err == nil {
		return nil
	}

	kind := KindOf(err, ErrIO)
	hint := "Check that the file exists and is readable"
	if kind == ErrMalformedInput {
		hint = "Test cases must hold at least a full 24-byte encapsulation header"
	}

	return UserFriendlyError{
		Kind:    kind,
		Message: fmt.Sprintf("Cannot use test case %s", path),
		Reason:  err.Error(),
		Hint:    hint,
		Try:     fmt.Sprintf("enipfuzz inspect %s", path),
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Kind:    ErrUsage,
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Every setting is optional; omit the file to use built-in defaults",
		Try:     "Remove --config or fix the reported field",
		Err:     err,
	}
}

func extractNetworkReason(err error) string {
	errStr := err.Error()

	if IsTimeout(err) || strings.Contains(errStr, "timeout") {
		return "Connection timeout - target may be offline or unreachable"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - target may not be listening on this port"
	}
	if strings.Contains(errStr, "no route to host") {
		return "No route to host - network routing issue or target unreachable"
	}
	if strings.Contains(errStr, "connection reset") {
		return "Connection reset - target closed the connection unexpectedly"
	}

	return "Network communication failed"
}

func extractProtocolReason(err error) string {
	errStr := err.Error()

	if IsTimeout(err) {
		return "Target did not respond within timeout period"
	}
	if strings.Contains(errStr, "sender context") {
		return "Target echoed a different sender context"
	}
	if strings.Contains(errStr, "too short") || strings.Contains(errStr, "EOF") {
		return "Received a truncated or empty response"
	}
	if strings.Contains(errStr, "connection reset") || strings.Contains(errStr, "broken pipe") {
		return "Connection reset - target closed the connection unexpectedly"
	}

	return "ENIP protocol error occurred"
}
