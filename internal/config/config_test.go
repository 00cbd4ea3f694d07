package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	enipErrors "github.com/tonylturner/enipfuzz/internal/errors"
	"github.com/tonylturner/enipfuzz/internal/enip"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enipfuzz.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Target.Port != 44818 {
		t.Errorf("port = %d, want 44818", cfg.Target.Port)
	}
	ctx, err := cfg.SenderContext()
	if err != nil {
		t.Fatalf("SenderContext() failed: %v", err)
	}
	if ctx != enip.DefaultSenderContext() {
		t.Errorf("sender context = %s, want %s", ctx, enip.DefaultSenderContext())
	}
	if cfg.Session.VerifyContext {
		t.Error("context verification should be off by default")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") failed: %v", err)
	}
	if cfg.ReadTimeout() != 5*time.Second {
		t.Errorf("read timeout = %v, want 5s", cfg.ReadTimeout())
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfigFile(t, `
target:
  port: 2222
  read_timeout_ms: 0
session:
  sender_context: "0102030405060708"
  verify_context: true
testcase:
  format: pcap
  pcap_index: 3
logging:
  level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Target.Port != 2222 {
		t.Errorf("port = %d, want 2222", cfg.Target.Port)
	}
	if cfg.ReadTimeout() != 0 {
		t.Errorf("explicit 0 should disable read timeout, got %v", cfg.ReadTimeout())
	}
	if cfg.DialTimeout() != 5*time.Second {
		t.Errorf("dial timeout should keep default, got %v", cfg.DialTimeout())
	}
	if !cfg.Session.VerifyContext {
		t.Error("verify_context not applied")
	}
	ctx, _ := cfg.SenderContext()
	if ctx != (enip.SenderContext{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("sender context = %s", ctx)
	}
	if cfg.TestCase.Format != FormatPCAP || cfg.TestCase.PCAPIndex != 3 {
		t.Errorf("testcase = %+v", cfg.TestCase)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "target: [unclosed"},
		{"bad port", "target:\n  port: 70000\n"},
		{"negative timeout", "target:\n  read_timeout_ms: -1\n"},
		{"short context", "session:\n  sender_context: \"0102\"\n"},
		{"bad format", "testcase:\n  format: pcapng2\n"},
		{"negative index", "testcase:\n  pcap_index: -2\n"},
		{"bad level", "logging:\n  level: chatty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, enipErrors.ErrUsage) {
				t.Errorf("config errors should be usage errors, got %v", err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := DefaultConfig()
	want.Target.Port = 12345
	want.Session.VerifyContext = true

	if err := WriteConfig(path, want); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"auto", "raw", "HEX", "pcap"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if ValidateFormat("json") == nil {
		t.Error("ValidateFormat(json) should fail")
	}
}
