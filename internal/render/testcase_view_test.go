package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/testcase"
)

func plainStyles() Styles {
	return NewStyles(&bytes.Buffer{}, DefaultTheme)
}

func TestRenderTestCaseFields(t *testing.T) {
	original := []byte{
		0x65, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
	}
	out := RenderTestCase(plainStyles(), TestCaseView{Title: "register", Original: original})

	for _, want := range []string{"register", "(28 bytes)", "Command", "RegisterSession", "Length", "Session Handle",
		"Status", "Success", "Sender Context", "Options", "Payload", "4 bytes", "Bytes", "0000: 65 00 04 00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Outbound") {
		t.Errorf("no patched column expected:\n%s", out)
	}
}

func TestRenderTestCasePatched(t *testing.T) {
	original := make([]byte, 24)
	original[0] = 0x6F
	patched, err := enip.PatchTestCase(original, 0xDDCCBBAA, enip.DefaultSenderContext())
	if err != nil {
		t.Fatalf("PatchTestCase failed: %v", err)
	}

	out := RenderTestCase(plainStyles(), TestCaseView{Original: original, Patched: patched})
	for _, want := range []string{"Test case", "Outbound", "0x00000000", "0xDDCCBBAA", "92 83 4A 0B 3D 9E 0C 57", "Outbound bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTestCaseLengthMismatch(t *testing.T) {
	original := make([]byte, 30)
	original[2] = 0x10 // claims 16 payload bytes, carries 6

	out := RenderTestCase(plainStyles(), TestCaseView{Original: original})
	if !strings.Contains(out, "Length field says 16 payload bytes, buffer carries 6") {
		t.Errorf("expected length warning:\n%s", out)
	}
}

func TestRenderTestCaseShort(t *testing.T) {
	out := RenderTestCase(plainStyles(), TestCaseView{Original: []byte{0x01, 0x02, 0x03}})
	if !strings.Contains(out, "Malformed: 3 bytes") {
		t.Errorf("expected malformed notice:\n%s", out)
	}
	if strings.Contains(out, "Session Handle") {
		t.Errorf("short buffers have no header table:\n%s", out)
	}
}

func TestRenderTestCaseFrame(t *testing.T) {
	frame := &testcase.Frame{
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		SrcIP:     "10.0.0.1",
		DstIP:     "10.0.0.2",
		SrcPort:   50000,
		DstPort:   44818,
	}
	out := RenderTestCase(plainStyles(), TestCaseView{Original: make([]byte, 24), Frame: frame})
	if !strings.Contains(out, "10.0.0.1:50000 -> 10.0.0.2:44818") {
		t.Errorf("expected capture origin:\n%s", out)
	}
}
