package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonylturner/enipfuzz/internal/app"
	"github.com/tonylturner/enipfuzz/internal/enip"
	"github.com/tonylturner/enipfuzz/internal/errors"
)

type patchFlags struct {
	commonFlags
	session      string
	output       string
	outputFormat string
}

func newPatchCmd() *cobra.Command {
	flags := &patchFlags{}

	cmd := &cobra.Command{
		Use:   "patch TESTCASE_PATH",
		Short: "Write the bytes a delivery would send, offline",
		Long: `Patch a test case with a given session handle and the sender context,
without connecting to anything.

Use it to reproduce exactly what a delivery sent, for example with the
handle reported by 'enipfuzz register' or found in a capture.`,
		Example: `  # Raw output file
  enipfuzz patch id_000042 --session 0xDDCCBBAA --output id_000042.sent

  # Hex to stdout
  enipfuzz patch id_000042 --session 0xDDCCBBAA --output-format hex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) != 1 {
				return errors.NewUsageError(fmt.Sprintf("expected 1 argument (test case path), got %d", len(args)), cmd.UseLine())
			}
			if flags.session == "" {
				return missingFlagError(cmd, "--session")
			}
			return runPatch(cmd, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.session, "session", "", "Session handle to write, decimal or 0x hex (required)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "-", "Output file, - for stdout")
	cmd.Flags().StringVar(&flags.outputFormat, "output-format", app.OutputRaw, "Output format: raw or hex")
	flags.bind(cmd)

	return cmd
}

func runPatch(cmd *cobra.Command, flags *patchFlags, path string) error {
	handle, err := enip.ParseSessionHandle(flags.session)
	if err != nil {
		return errors.NewUsageError(err.Error(), cmd.UseLine())
	}
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}
	target, err := targetOptions(cfg, "")
	if err != nil {
		return err
	}

	_, err = app.RunPatch(app.PatchOptions{
		Source:        sourceOptions(cfg, path),
		ServerPort:    cfg.Target.Port,
		SessionHandle: handle,
		SenderContext: target.SenderContext,
		OutputPath:    flags.output,
		OutputFormat:  flags.outputFormat,
		Out:           cmd.OutOrStdout(),
	})
	return err
}
