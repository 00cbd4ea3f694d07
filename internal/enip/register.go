package enip

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/tonylturner/enipfuzz/internal/errors"
)

// ProtocolVersion is the only encapsulation protocol version defined.
const ProtocolVersion uint16 = 1

// registerSessionDataSize is protocol version plus option flags.
const registerSessionDataSize = 4

// BuildRegisterSession builds the 28-byte RegisterSession request: a header
// with a zero session handle followed by protocol version 1 and zero option
// flags.
func BuildRegisterSession(senderContext SenderContext) []byte {
	var data []byte
	data = binary.LittleEndian.AppendUint16(data, ProtocolVersion)
	data = binary.LittleEndian.AppendUint16(data, 0) // Option flags

	p := Packet{
		Header: Header{
			Command:       CommandRegisterSession,
			SessionHandle: 0, // Assigned by the target
			Status:        StatusSuccess,
			SenderContext: senderContext,
		},
		Payload: data,
	}
	p.SetLength()
	return p.Encode()
}

// BuildUnregisterSession builds an UnregisterSession request for handle.
func BuildUnregisterSession(handle uint32, senderContext SenderContext) []byte {
	h := Header{
		Command:       CommandUnregisterSession,
		SessionHandle: handle,
		SenderContext: senderContext,
	}
	return h.Encode()
}

// ParseRegisterSessionReply decodes the header of a RegisterSession reply.
// Only the length is checked; status, command and sender context are
// returned for the caller to judge.
func ParseRegisterSessionReply(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: RegisterSession response too short: %d bytes (minimum %d)", errors.ErrProtocol, len(data), HeaderSize)
	}
	return DecodeHeader(data)
}

// ParseSessionHandle parses a handle given as decimal or 0x-prefixed hex.
func ParseSessionHandle(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid session handle %q: want a 32-bit value such as 0xDDCCBBAA", s)
	}
	return uint32(v), nil
}
