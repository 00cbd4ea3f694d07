package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/errors"
	"github.com/tonylturner/enipfuzz/internal/logging"
	"github.com/tonylturner/enipfuzz/internal/session"
	"github.com/tonylturner/enipfuzz/internal/testcase"
)

// TargetOptions identifies the device under test and how to talk to it.
type TargetOptions struct {
	IP            string
	Port          int
	SenderContext enip.SenderContext
	VerifyContext bool
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// SourceOptions selects and decodes a test-case file.
type SourceOptions struct {
	Path      string
	Format    string
	PCAPIndex int
}

// DeliverOptions configures one test-case delivery.
type DeliverOptions struct {
	Target TargetOptions
	Source SourceOptions
	Logger *logging.Logger
	Out    io.Writer // progress lines; nil discards them
}

// DeliverResult describes a completed delivery.
type DeliverResult struct {
	Target        string
	SessionHandle uint32
	TestCase      *testcase.TestCase
	Patched       []byte
	BytesSent     int
	HandshakeRTT  time.Duration
}

// RunDeliver connects to the target, negotiates a session, patches the test
// case with the live handle and writes it once. No reply is read after the
// test case is sent. The connection is closed on every path.
func RunDeliver(ctx context.Context, opts DeliverOptions) (*DeliverResult, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	t := opts.Target
	target := net.JoinHostPort(t.IP, strconv.Itoa(t.Port))

	log.LogStartup(t.IP, t.Port, opts.Source.Path, t.SenderContext.String(), int(t.ReadTimeout/time.Millisecond))

	result, err := deliver(ctx, opts, log, out)
	if err != nil {
		log.LogDelivery(target, 0, 0, 0, err)
		return nil, err
	}
	log.LogDelivery(target, result.SessionHandle, result.BytesSent, float64(result.HandshakeRTT.Microseconds())/1000.0, nil)
	return result, nil
}

func deliver(ctx context.Context, opts DeliverOptions, log *logging.Logger, out io.Writer) (*DeliverResult, error) {
	t := opts.Target

	fmt.Fprintf(out, "Connecting to %s:%d\n", t.IP, t.Port)
	sess, err := openSession(ctx, t, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debug("close connection: %v", cerr)
		}
	}()
	fmt.Fprintf(out, "Session handle: 0x%08X (%d)\n", sess.Handle, sess.Handle)

	fmt.Fprintf(out, "Reading test case from %s\n", opts.Source.Path)
	tc, err := loadTestCase(opts.Source, t.Port)
	if err != nil {
		return nil, err
	}
	log.LogHex("Test case", tc.Data)

	patched, err := enip.PatchTestCase(tc.Data, sess.Handle, sess.SenderContext)
	if err != nil {
		return nil, errors.WrapInputError(err, opts.Source.Path)
	}
	log.LogHex("Patched test case", patched)

	fmt.Fprintf(out, "Sending test case of %d bytes\n", len(patched))
	sent, err := sess.Send(ctx, patched)
	if err != nil {
		return nil, errors.WrapSessionError(err, "Test case delivery", t.IP, t.Port)
	}

	return &DeliverResult{
		Target:        sess.RemoteAddr(),
		SessionHandle: sess.Handle,
		TestCase:      tc,
		Patched:       patched,
		BytesSent:     sent,
		HandshakeRTT:  sess.HandshakeRTT,
	}, nil
}

// openSession dials the target and performs RegisterSession. On error the
// connection is already closed.
func openSession(ctx context.Context, t TargetOptions, log *logging.Logger) (*session.Session, error) {
	conn, err := session.Dial(ctx, t.IP, t.Port, t.DialTimeout)
	if err != nil {
		if errors.KindOf(err, nil) == errors.ErrUsage {
			return nil, errors.NewUsageError(err.Error(), "enipfuzz IP TESTCASE_PATH")
		}
		return nil, errors.WrapNetworkError(err, t.IP, t.Port)
	}
	log.Verbose("Connected to %s", conn.RemoteAddr())

	negotiator := session.NewNegotiator(t.SenderContext)
	negotiator.ReadTimeout = t.ReadTimeout
	negotiator.WriteTimeout = t.WriteTimeout
	negotiator.VerifyContext = t.VerifyContext
	negotiator.Logger = log

	sess, err := negotiator.Negotiate(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.WrapSessionError(err, "RegisterSession", t.IP, t.Port)
	}
	return sess, nil
}

func loadTestCase(src SourceOptions, serverPort int) (*testcase.TestCase, error) {
	tc, err := testcase.Load(src.Path, testcase.Options{
		Format:     src.Format,
		PCAPIndex:  src.PCAPIndex,
		ServerPort: uint16(serverPort),
	})
	if err != nil {
		return nil, errors.WrapInputError(err, src.Path)
	}
	return tc, nil
}
