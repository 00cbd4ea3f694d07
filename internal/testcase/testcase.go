// Package testcase loads fuzzer output for delivery. A test case is an
// opaque byte buffer; it may be stored raw, as hex text, or as a frame inside
// a packet capture.
package testcase

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tonylturner/enipfuzz/internal/config"
	"github.com/tonylturner/enipfuzz/internal/errors"
)

// Options selects how a test-case file is decoded.
type Options struct {
	Format     string // config.FormatAuto, FormatRaw, FormatHex, FormatPCAP
	PCAPIndex  int    // request frame to take from a capture
	ServerPort uint16 // server side port when reading captures
}

// TestCase is a loaded test case.
type TestCase struct {
	Path   string
	Format string
	Data   []byte
	Frame  *Frame // set when read from a capture
}

// Load reads the test case at path.
func Load(path string, opts Options) (*TestCase, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = config.FormatAuto
	}
	if err := config.ValidateFormat(format); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrUsage, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read test case: %w", errors.ErrIO, err)
	}

	if format == config.FormatAuto {
		format = DetectFormat(path)
	}

	tc := &TestCase{Path: path, Format: format}
	switch format {
	case config.FormatRaw:
		tc.Data = raw
	case config.FormatHex:
		tc.Data, err = DecodeHex(raw)
		if err != nil {
			return nil, err
		}
	case config.FormatPCAP:
		port := opts.ServerPort
		if port == 0 {
			port = config.DefaultPort
		}
		frames, err := ExtractRequests(bytes.NewReader(raw), port)
		if err != nil {
			return nil, err
		}
		if opts.PCAPIndex < 0 || opts.PCAPIndex >= len(frames) {
			return nil, fmt.Errorf("%w: capture has %d request frame(s) to port %d, index %d requested",
				errors.ErrMalformedInput, len(frames), port, opts.PCAPIndex)
		}
		frame := frames[opts.PCAPIndex]
		tc.Frame = &frame
		tc.Data = frame.Data
	}

	return tc, nil
}

// DetectFormat picks a format from the file extension alone. Contents are
// never sniffed: a raw test case may start with any bytes, including a
// capture magic number, and must still be sent as stored.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcap", ".pcapng", ".cap":
		return config.FormatPCAP
	case ".hex":
		return config.FormatHex
	}
	return config.FormatRaw
}

// DecodeHex parses hex text. Whitespace, colons, 0x prefixes and comments
// starting with # or // are ignored.
func DecodeHex(text []byte) ([]byte, error) {
	var digits strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		s := scanner.Text()
		if i := strings.Index(s, "#"); i >= 0 {
			s = s[:i]
		}
		if i := strings.Index(s, "//"); i >= 0 {
			s = s[:i]
		}
		for _, field := range strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ':' || r == ',' || r == '\r'
		}) {
			field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
			for _, r := range field {
				if !isHexDigit(r) {
					return nil, fmt.Errorf("%w: line %d: invalid hex digit %q", errors.ErrMalformedInput, line, r)
				}
			}
			digits.WriteString(field)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read hex test case: %w", errors.ErrIO, err)
	}
	if digits.Len()%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits (%d)", errors.ErrMalformedInput, digits.Len())
	}
	data, err := hex.DecodeString(digits.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrMalformedInput, err)
	}
	return data, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
