// Package session negotiates an EtherNet/IP session over TCP and owns the
// connection for the single test-case delivery that follows.
package session

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
)

// maxReplySize bounds the single handshake read. RegisterSession replies are
// 28 bytes.
const maxReplySize = 1024

// Dial opens a TCP connection to host:port. A zero timeout leaves only the
// context to bound the connect.
func Dial(ctx context.Context, host string, port int, timeout time.Duration) (net.Conn, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: target IP address cannot be empty", errors.ErrUsage)
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial TCP %s: %w", errors.ErrConnection, addr, err)
	}
	return conn, nil
}

// Negotiator performs the RegisterSession handshake.
type Negotiator struct {
	SenderContext enip.SenderContext
	ReadTimeout   time.Duration // 0 waits indefinitely
	WriteTimeout  time.Duration // 0 waits indefinitely
	VerifyContext bool          // reject replies that echo a different sender context
	Logger        *logging.Logger
}

// NewNegotiator returns a negotiator using senderContext for the request.
func NewNegotiator(senderContext enip.SenderContext) *Negotiator {
	return &Negotiator{
		SenderContext: senderContext,
		Logger:        logging.Discard(),
	}
}

// Session is a connection with a negotiated session handle. It is used for
// one delivery and then closed.
type Session struct {
	conn          net.Conn
	Handle        uint32
	SenderContext enip.SenderContext
	Reply         enip.Header
	WriteTimeout  time.Duration
	HandshakeRTT  time.Duration
}

// Negotiate sends RegisterSession on conn and returns the session the target
// assigned. Exactly one write and one read are made. The reply's status and
// sender context are not checked unless VerifyContext is set; the handle is
// taken from bytes 4..8 of whatever well-sized reply arrives.
func (n *Negotiator) Negotiate(ctx context.Context, conn net.Conn) (*Session, error) {
	log := n.Logger
	if log == nil {
		log = logging.Discard()
	}

	stop := interruptOnDone(ctx, conn)
	defer stop()

	request := enip.BuildRegisterSession(n.SenderContext)
	log.LogHex("RegisterSession request", request)

	start := time.Now()
	if err := setDeadline(ctx, conn.SetWriteDeadline, n.WriteTimeout); err != nil {
		return nil, err
	}
	if _, err := conn.Write(request); err != nil {
		return nil, transportError(ctx, "send RegisterSession", err)
	}

	if err := setDeadline(ctx, conn.SetReadDeadline, n.ReadTimeout); err != nil {
		return nil, err
	}
	buf := make([]byte, maxReplySize)
	got, err := io.ReadAtLeast(conn, buf, enip.HeaderSize)
	rtt := time.Since(start)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: RegisterSession response too short: %d bytes (minimum %d): %w",
				errors.ErrProtocol, got, enip.HeaderSize, err)
		}
		return nil, transportError(ctx, "receive RegisterSession response", err)
	}
	reply := buf[:got]
	log.LogHex("RegisterSession response", reply)

	header, err := enip.ParseRegisterSessionReply(reply)
	if err != nil {
		return nil, err
	}
	log.Verbose("RegisterSession reply: %s", header)

	if n.VerifyContext && header.SenderContext != n.SenderContext {
		return nil, fmt.Errorf("%w: sender context mismatch: sent %s, got %s",
			errors.ErrProtocol, n.SenderContext, header.SenderContext)
	}

	return &Session{
		conn:          conn,
		Handle:        header.SessionHandle,
		SenderContext: n.SenderContext,
		Reply:         header,
		WriteTimeout:  n.WriteTimeout,
		HandshakeRTT:  rtt,
	}, nil
}

// Send writes data to the target in a single write call.
func (s *Session) Send(ctx context.Context, data []byte) (int, error) {
	stop := interruptOnDone(ctx, s.conn)
	defer stop()

	if err := setDeadline(ctx, s.conn.SetWriteDeadline, s.WriteTimeout); err != nil {
		return 0, err
	}
	n, err := s.conn.Write(data)
	if err != nil {
		return n, transportError(ctx, "send test case", err)
	}
	return n, nil
}

// RemoteAddr returns the target address.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// setDeadline applies the earlier of now+timeout and the context deadline.
// With neither, any previous deadline is cleared.
func setDeadline(ctx context.Context, set func(time.Time) error, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		if err == context.DeadlineExceeded {
			return fmt.Errorf("%w: %w", errors.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", errors.ErrIO, err)
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}
	if err := set(deadline); err != nil {
		return fmt.Errorf("%w: set deadline: %w", errors.ErrIO, err)
	}
	return nil
}

// interruptOnDone unblocks pending I/O on conn when ctx is cancelled.
func interruptOnDone(ctx context.Context, conn net.Conn) func() bool {
	return context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
}

// transportError classifies a failed read or write. Cancelling ctx forces
// the socket deadline to now, so the context is consulted before the
// socket error: only an expired deadline is a timeout, a cancel is not.
func transportError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		return fmt.Errorf("%w: %s: %w", errors.ErrIO, op, context.Canceled)
	case context.DeadlineExceeded:
		return fmt.Errorf("%w: %s: %w", errors.ErrTimeout, op, err)
	}
	if errors.IsTimeout(err) {
		return fmt.Errorf("%w: %s: %w", errors.ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", errors.ErrIO, op, err)
}
