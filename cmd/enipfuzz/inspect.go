package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonylturner/enipfuzz/internal/app"
	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/errors"
)

type inspectFlags struct {
	commonFlags
	session string
	copy    bool
}

func newInspectCmd() *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect TESTCASE_PATH",
		Short: "Show a test case's encapsulation header and bytes",
		Long: `Show the encapsulation header fields and a hex dump of a test case.

With --session the patched header is shown next to the stored one and the
fields a delivery would overwrite are highlighted.`,
		Example: `  enipfuzz inspect id_000042
  enipfuzz inspect capture.pcapng --pcap-index 3 --session 0x10 --copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) != 1 {
				return errors.NewUsageError(fmt.Sprintf("expected 1 argument (test case path), got %d", len(args)), cmd.UseLine())
			}
			return runInspect(cmd, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.session, "session", "", "Preview the test case patched with this session handle")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the (patched) bytes as hex to the clipboard")
	flags.bind(cmd)

	return cmd
}

func runInspect(cmd *cobra.Command, flags *inspectFlags, path string) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}
	target, err := targetOptions(cfg, "")
	if err != nil {
		return err
	}

	opts := app.InspectOptions{
		Source:        sourceOptions(cfg, path),
		ServerPort:    cfg.Target.Port,
		SenderContext: target.SenderContext,
		Copy:          flags.copy,
		Out:           cmd.OutOrStdout(),
	}
	if flags.session != "" {
		handle, err := enip.ParseSessionHandle(flags.session)
		if err != nil {
			return errors.NewUsageError(err.Error(), cmd.UseLine())
		}
		opts.SessionHandle = &handle
	}

	return app.RunInspect(opts)
}
