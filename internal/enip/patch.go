package enip

import (
	"encoding/binary"
	"fmt"

	"github.com/tonylturner/enipfuzz/internal/errors"
)

// PatchTestCase returns a copy of testCase with the session handle and
// sender context fields replaced. Command, length, status, options and
// payload bytes are copied verbatim, even when they are malformed, and the
// result is always the same length as the input. testCase is not modified.
func PatchTestCase(testCase []byte, sessionHandle uint32, senderContext SenderContext) ([]byte, error) {
	if len(testCase) < HeaderSize {
		return nil, fmt.Errorf("%w: test case is %d bytes (minimum %d)", errors.ErrMalformedInput, len(testCase), HeaderSize)
	}

	out := make([]byte, 0, len(testCase))
	out = append(out, testCase[offsetCommand:offsetSessionHandle]...) // command, length
	out = binary.LittleEndian.AppendUint32(out, sessionHandle)
	out = append(out, testCase[offsetStatus:offsetSenderContext]...)
	out = append(out, senderContext[:]...)
	out = append(out, testCase[offsetOptions:]...) // options, payload
	return out, nil
}
