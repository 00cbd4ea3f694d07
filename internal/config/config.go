package config

// Configuration loading and validation for enipfuzz

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/errors"
	"github.com/tonylturner/enipfuzz/internal/logging"
)

// DefaultPort is the registered EtherNet/IP TCP port.
const DefaultPort = 44818

// Test-case formats
const (
	FormatAuto = "auto"
	FormatRaw  = "raw"
	FormatHex  = "hex"
	FormatPCAP = "pcap"
)

// TargetConfig holds connection settings. A timeout of 0 disables it.
type TargetConfig struct {
	Port           int `yaml:"port"`
	DialTimeoutMs  int `yaml:"dial_timeout_ms"`
	ReadTimeoutMs  int `yaml:"read_timeout_ms"`
	WriteTimeoutMs int `yaml:"write_timeout_ms"`
}

// SessionConfig controls the RegisterSession handshake.
type SessionConfig struct {
	SenderContext string `yaml:"sender_context"` // 16 hex digits
	VerifyContext bool   `yaml:"verify_context"` // fail when the reply echoes a different context
}

// TestCaseConfig controls how test-case files are read.
type TestCaseConfig struct {
	Format    string `yaml:"format"`     // "auto", "raw", "hex", "pcap"
	PCAPIndex int    `yaml:"pcap_index"` // which request frame to take from a capture
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // "silent", "error", "info", "verbose", "debug"
	File  string `yaml:"file,omitempty"`
}

// Config is the enipfuzz configuration file.
type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Session  SessionConfig  `yaml:"session"`
	TestCase TestCaseConfig `yaml:"testcase"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DefaultConfig returns the settings used when no file is given. They
// reproduce a plain delivery: port 44818, the stock sender context, raw
// test cases, no context verification.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Port:           DefaultPort,
			DialTimeoutMs:  5000,
			ReadTimeoutMs:  5000,
			WriteTimeoutMs: 5000,
		},
		Session: SessionConfig{
			SenderContext: enip.DefaultSenderContext().String(),
		},
		TestCase: TestCaseConfig{
			Format: FormatAuto,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the
// file keep their default value. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
		}
		return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("validate config: %w", err), path)
	}

	return cfg, nil
}

// WriteConfig writes cfg as YAML to path.
func WriteConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ValidateConfig validates a configuration
func ValidateConfig(cfg *Config) error {
	if cfg.Target.Port <= 0 || cfg.Target.Port > 65535 {
		return fmt.Errorf("target.port must be between 1 and 65535, got %d", cfg.Target.Port)
	}
	if cfg.Target.DialTimeoutMs < 0 {
		return fmt.Errorf("target.dial_timeout_ms must be >= 0, got %d", cfg.Target.DialTimeoutMs)
	}
	if cfg.Target.ReadTimeoutMs < 0 {
		return fmt.Errorf("target.read_timeout_ms must be >= 0, got %d", cfg.Target.ReadTimeoutMs)
	}
	if cfg.Target.WriteTimeoutMs < 0 {
		return fmt.Errorf("target.write_timeout_ms must be >= 0, got %d", cfg.Target.WriteTimeoutMs)
	}

	if _, err := enip.ParseSenderContext(cfg.Session.SenderContext); err != nil {
		return fmt.Errorf("session.sender_context: %w", err)
	}

	if cfg.TestCase.Format == "" {
		cfg.TestCase.Format = FormatAuto
	}
	if err := ValidateFormat(cfg.TestCase.Format); err != nil {
		return fmt.Errorf("testcase.format: %w", err)
	}
	if cfg.TestCase.PCAPIndex < 0 {
		return fmt.Errorf("testcase.pcap_index must be >= 0, got %d", cfg.TestCase.PCAPIndex)
	}

	if _, err := logging.ParseLogLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ValidateFormat checks a test-case format name.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatAuto, FormatRaw, FormatHex, FormatPCAP:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want auto, raw, hex, pcap)", format)
	}
}

// SenderContext returns the configured sender context.
func (c *Config) SenderContext() (enip.SenderContext, error) {
	return enip.ParseSenderContext(c.Session.SenderContext)
}

// DialTimeout returns the connect timeout.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Target.DialTimeoutMs) * time.Millisecond
}

// ReadTimeout returns the handshake read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Target.ReadTimeoutMs) * time.Millisecond
}

// WriteTimeout returns the per-write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Target.WriteTimeoutMs) * time.Millisecond
}
