package enip

// EtherNet/IP encapsulation header handling

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/tonylturner/enipfuzz/internal/errors"
)

// HeaderSize is the fixed size of the encapsulation header.
const HeaderSize = 24

// Field offsets within the encapsulation header.
const (
	offsetCommand       = 0
	offsetLength        = 2
	offsetSessionHandle = 4
	offsetStatus        = 8
	offsetSenderContext = 12
	offsetOptions       = 20
)

// SenderContext is the 8-byte correlation token echoed by the target.
type SenderContext [8]byte

var defaultSenderContext = SenderContext{0x92, 0x83, 0x4A, 0x0B, 0x3D, 0x9E, 0x0C, 0x57}

// DefaultSenderContext returns the tracer value stamped into every request
// this tool sends. It is not a secret. The result is a copy.
func DefaultSenderContext() SenderContext {
	return defaultSenderContext
}

// String returns the context as lowercase hex.
func (c SenderContext) String() string {
	return hex.EncodeToString(c[:])
}

// ParseSenderContext decodes a 16 digit hex string, with an optional 0x prefix.
func ParseSenderContext(s string) (SenderContext, error) {
	var ctx SenderContext
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ctx, fmt.Errorf("sender context: %w", err)
	}
	if len(raw) != len(ctx) {
		return ctx, fmt.Errorf("sender context must be %d bytes, got %d", len(ctx), len(raw))
	}
	copy(ctx[:], raw)
	return ctx, nil
}

// Header is the 24-byte ENIP encapsulation header. All integers are
// little-endian on the wire.
type Header struct {
	Command       Command
	Length        uint16
	SessionHandle uint32
	Status        Status
	SenderContext SenderContext
	Options       uint32
}

// Encode returns the 24-byte wire form of h.
func (h Header) Encode() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// AppendTo appends the wire form of h to b.
func (h Header) AppendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, uint16(h.Command))
	b = binary.LittleEndian.AppendUint16(b, h.Length)
	b = binary.LittleEndian.AppendUint32(b, h.SessionHandle)
	b = binary.LittleEndian.AppendUint32(b, uint32(h.Status))
	b = append(b, h.SenderContext[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.Options)
	return b
}

// DecodeHeader parses the first 24 bytes of data. Trailing bytes are ignored.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: packet too short: %d bytes (minimum %d)", errors.ErrMalformedInput, len(data), HeaderSize)
	}

	var h Header
	h.Command = Command(binary.LittleEndian.Uint16(data[offsetCommand:]))
	h.Length = binary.LittleEndian.Uint16(data[offsetLength:])
	h.SessionHandle = binary.LittleEndian.Uint32(data[offsetSessionHandle:])
	h.Status = Status(binary.LittleEndian.Uint32(data[offsetStatus:]))
	copy(h.SenderContext[:], data[offsetSenderContext:offsetOptions])
	h.Options = binary.LittleEndian.Uint32(data[offsetOptions:])
	return h, nil
}

// String returns a one-line summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("Cmd: %s (0x%04X), Len: %d, Session: 0x%08X, Status: %s, Context: %s, Options: 0x%08X",
		h.Command, uint16(h.Command), h.Length, h.SessionHandle, h.Status, h.SenderContext, h.Options)
}

// Packet is an encapsulation header followed by its payload.
type Packet struct {
	Header
	Payload []byte
}

// Encode returns header and payload. Length is written as stored; callers
// that want a consistent frame set it with SetLength first.
func (p Packet) Encode() []byte {
	out := make([]byte, 0, HeaderSize+len(p.Payload))
	out = p.Header.AppendTo(out)
	return append(out, p.Payload...)
}

// SetLength sets the header length field to the payload size.
func (p *Packet) SetLength() {
	p.Length = uint16(len(p.Payload))
}

// DecodePacket splits data into header and payload. The payload is every
// byte after the header regardless of the length field, so malformed
// lengths survive a decode.
func DecodePacket(data []byte) (Packet, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Packet{}, err
	}
	p := Packet{Header: h}
	if len(data) > HeaderSize {
		p.Payload = data[HeaderSize:]
	}
	return p, nil
}
