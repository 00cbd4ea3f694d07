package errors

import (
	stderrors "errors"
	"net"
	"os"
)

// Error kinds. Every error returned by enipfuzz wraps exactly one of these so
// callers can branch with errors.Is.
var (
	ErrUsage          = stderrors.New("usage error")
	ErrConnection     = stderrors.New("connection error")
	ErrProtocol       = stderrors.New("protocol error")
	ErrMalformedInput = stderrors.New("malformed input")
	ErrIO             = stderrors.New("i/o error")
	ErrTimeout        = stderrors.New("timeout")
)

// Process exit codes, one per error kind.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitUsage          = 2
	ExitConnection     = 3
	ExitProtocol       = 4
	ExitMalformedInput = 5
	ExitIO             = 6
	ExitTimeout        = 7
)

var kindOrder = []struct {
	kind error
	code int
}{
	{ErrUsage, ExitUsage},
	{ErrTimeout, ExitTimeout},
	{ErrConnection, ExitConnection},
	{ErrProtocol, ExitProtocol},
	{ErrMalformedInput, ExitMalformedInput},
	{ErrIO, ExitIO},
}

// KindOf returns the kind wrapped by err, or fallback when err carries none.
func KindOf(err error, fallback error) error {
	if err == nil {
		return nil
	}
	for _, k := range kindOrder {
		if stderrors.Is(err, k.kind) {
			return k.kind
		}
	}
	return fallback
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, k := range kindOrder {
		if stderrors.Is(err, k.kind) {
			return k.code
		}
	}
	return ExitFailure
}

// IsTimeout reports whether err is an expired socket deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
