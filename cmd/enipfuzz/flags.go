package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonylturner/enipfuzz/internal/app"
	"github.com/tonylturner/enipfuzz/internal/config"
	"github.com/tonylturner/enipfuzz/internal/errors"
	"github.com/tonylturner/enipfuzz/internal/logging"
)

// commonFlags are accepted by every command that talks to a target or reads
// a test case. Flags override the config file, which overrides defaults.
type commonFlags struct {
	port          int
	configPath    string
	senderContext string
	verifyContext bool
	timeout       time.Duration
	format        string
	pcapIndex     int
	verbose       bool
	debug         bool
	quiet         bool
	logFile       string
}

func (f *commonFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.port, "port", config.DefaultPort, "EtherNet/IP TCP port")
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML config file (optional)")
	cmd.Flags().StringVar(&f.senderContext, "sender-context", "", "Sender context as 16 hex digits (default 92834a0b3d9e0c57)")
	cmd.Flags().BoolVar(&f.verifyContext, "verify-context", false, "Fail when the RegisterSession reply echoes a different sender context")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "Connect, read and write timeout (0 waits forever)")
	cmd.Flags().StringVar(&f.format, "format", config.FormatAuto, "Test case format: auto, raw, hex, pcap")
	cmd.Flags().IntVar(&f.pcapIndex, "pcap-index", 0, "Request frame to take from a capture (0-based)")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Enable verbose output")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug output with hex dumps")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Print errors only")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Append log output to this file")
}

// resolve merges the config file with flags set on the command line.
func (f *commonFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Target.Port = f.port
	}
	if changed("timeout") {
		ms := int(f.timeout / time.Millisecond)
		cfg.Target.DialTimeoutMs = ms
		cfg.Target.ReadTimeoutMs = ms
		cfg.Target.WriteTimeoutMs = ms
	}
	if changed("sender-context") {
		cfg.Session.SenderContext = f.senderContext
	}
	if changed("verify-context") {
		cfg.Session.VerifyContext = f.verifyContext
	}
	if changed("format") {
		cfg.TestCase.Format = f.format
	}
	if changed("pcap-index") {
		cfg.TestCase.PCAPIndex = f.pcapIndex
	}
	if changed("log-file") {
		cfg.Logging.File = f.logFile
	}
	switch {
	case f.debug:
		cfg.Logging.Level = logging.LogLevelDebug.String()
	case f.verbose:
		cfg.Logging.Level = logging.LogLevelVerbose.String()
	case f.quiet:
		cfg.Logging.Level = logging.LogLevelError.String()
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, errors.NewUsageError(err.Error(), cmd.UseLine())
	}
	return cfg, nil
}

func (f *commonFlags) logger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, errors.NewUsageError(err.Error(), cmd.UseLine())
	}
	log, err := logging.NewLoggerWithWriters(level, cfg.Logging.File, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrIO, err)
	}
	return log, nil
}

func targetOptions(cfg *config.Config, ip string) (app.TargetOptions, error) {
	senderContext, err := cfg.SenderContext()
	if err != nil {
		return app.TargetOptions{}, fmt.Errorf("%w: %w", errors.ErrUsage, err)
	}
	return app.TargetOptions{
		IP:            ip,
		Port:          cfg.Target.Port,
		SenderContext: senderContext,
		VerifyContext: cfg.Session.VerifyContext,
		DialTimeout:   cfg.DialTimeout(),
		ReadTimeout:   cfg.ReadTimeout(),
		WriteTimeout:  cfg.WriteTimeout(),
	}, nil
}

func sourceOptions(cfg *config.Config, path string) app.SourceOptions {
	return app.SourceOptions{
		Path:      path,
		Format:    cfg.TestCase.Format,
		PCAPIndex: cfg.TestCase.PCAPIndex,
	}
}
