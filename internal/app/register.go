package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/logging"
)

// RegisterOptions configures a connectivity test.
type RegisterOptions struct {
	Target TargetOptions
	Logger *logging.Logger
	Out    io.Writer
	Err    io.Writer
}

// RegisterResult is the outcome of a successful RegisterSession.
type RegisterResult struct {
	SessionHandle uint32
	Reply         enip.Header
	HandshakeRTT  time.Duration
}

// RunRegister opens a session, reports the handle and unregisters it. It is
// the quickest way to tell whether a target survived the previous test case.
func RunRegister(ctx context.Context, opts RegisterOptions) (*RegisterResult, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	t := opts.Target

	fmt.Fprintf(out, "Testing connectivity to %s:%d...\n", t.IP, t.Port)

	sess, err := openSession(ctx, t, log)
	if err != nil {
		fmt.Fprintf(errOut, "RegisterSession failed\n")
		fmt.Fprintf(errOut, "\nTroubleshooting tips:\n")
		fmt.Fprintf(errOut, "  - Verify the device IP address is correct\n")
		fmt.Fprintf(errOut, "  - Check whether the last test case crashed or hung the target\n")
		fmt.Fprintf(errOut, "  - Check firewall rules (port %d should be open)\n", t.Port)
		return nil, err
	}
	defer sess.Close()

	fmt.Fprintf(out, "Session registered\n")
	fmt.Fprintf(out, "  Handle:         0x%08X (%d)\n", sess.Handle, sess.Handle)
	fmt.Fprintf(out, "  Status:         %s\n", sess.Reply.Status)
	fmt.Fprintf(out, "  Sender context: %s\n", sess.Reply.SenderContext)
	fmt.Fprintf(out, "  Round trip:     %.3fms\n", float64(sess.HandshakeRTT.Microseconds())/1000.0)
	if sess.Reply.SenderContext != t.SenderContext {
		fmt.Fprintf(out, "  Warning: target echoed a different sender context (sent %s)\n", t.SenderContext)
	}

	// Best effort; some targets drop the connection instead of answering.
	if _, err := sess.Send(ctx, enip.BuildUnregisterSession(sess.Handle, t.SenderContext)); err != nil {
		log.Verbose("UnregisterSession: %v", err)
	}

	return &RegisterResult{
		SessionHandle: sess.Handle,
		Reply:         sess.Reply,
		HandshakeRTT:  sess.HandshakeRTT,
	}, nil
}
