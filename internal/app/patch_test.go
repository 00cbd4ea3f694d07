package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tonylturner/enipfuzz/internal/enip"
	enipErrors "github.com/tonylturner/enipfuzz/internal/errors"
	"github.com/tonylturner/enipfuzz/internal/testcase"
)

func TestRunPatch(t *testing.T) {
	testCase := []byte{
		0x6F, 0x00, 0x02, 0x00, 0xFF, 0xFF, 0xFF, 0xFF,
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0xDE, 0xAD,
	}
	src := writeTestCase(t, "id_000010", testCase)
	want, err := enip.PatchTestCase(testCase, 0x12345678, enip.DefaultSenderContext())
	if err != nil {
		t.Fatalf("PatchTestCase failed: %v", err)
	}

	tests := []struct {
		name   string
		format string
		decode func([]byte) ([]byte, error)
	}{
		{"raw", OutputRaw, func(b []byte) ([]byte, error) { return b, nil }},
		{"hex", OutputHex, testcase.DecodeHex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "patched")
			got, err := RunPatch(PatchOptions{
				Source:        SourceOptions{Path: src},
				SessionHandle: 0x12345678,
				SenderContext: enip.DefaultSenderContext(),
				OutputPath:    dst,
				OutputFormat:  tt.format,
			})
			if err != nil {
				t.Fatalf("RunPatch failed: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("patched = % X, want % X", got, want)
			}

			written, err := os.ReadFile(dst)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			decoded, err := tt.decode(written)
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if !bytes.Equal(decoded, want) {
				t.Errorf("file holds % X, want % X", decoded, want)
			}
		})
	}
}

func TestRunPatchStdout(t *testing.T) {
	src := writeTestCase(t, "id_000011", make([]byte, 24))

	var out bytes.Buffer
	if _, err := RunPatch(PatchOptions{
		Source:        SourceOptions{Path: src},
		SessionHandle: 1,
		SenderContext: enip.DefaultSenderContext(),
		OutputPath:    "-",
		Out:           &out,
	}); err != nil {
		t.Fatalf("RunPatch failed: %v", err)
	}
	if out.Len() != 24 {
		t.Errorf("stdout got %d bytes, want 24", out.Len())
	}
}

func TestRunPatchErrors(t *testing.T) {
	short := writeTestCase(t, "short", make([]byte, 12))
	ok := writeTestCase(t, "ok", make([]byte, 24))

	tests := []struct {
		name string
		opts PatchOptions
		want error
	}{
		{"short test case", PatchOptions{Source: SourceOptions{Path: short}, OutputPath: "-", Out: &bytes.Buffer{}}, enipErrors.ErrMalformedInput},
		{"bad output format", PatchOptions{Source: SourceOptions{Path: ok}, OutputFormat: "base64"}, enipErrors.ErrUsage},
		{"bad input format", PatchOptions{Source: SourceOptions{Path: ok, Format: "json"}}, enipErrors.ErrUsage},
		{"unwritable output", PatchOptions{Source: SourceOptions{Path: ok}, OutputPath: filepath.Join(t.TempDir(), "missing", "out")}, enipErrors.ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunPatch(tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
