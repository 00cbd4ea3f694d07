package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tonylturner/enipfuzz/internal/app"
)

type deliverFlags struct {
	commonFlags
}

func newSendCmd() *cobra.Command {
	flags := &deliverFlags{}

	cmd := &cobra.Command{
		Use:   "send IP TESTCASE_PATH",
		Short: "Deliver one test case to a target",
		Long: `Deliver one test case to an EtherNet/IP target.

The delivery runs in a fixed order:
  1. Connect to the target on TCP port 44818 (or --port)
  2. Send RegisterSession and take the session handle from the reply
  3. Read the test case (raw bytes, hex text or a capture frame)
  4. Overwrite the session handle and sender context header fields
  5. Send the test case in a single write and close the connection

Every other byte of the test case is sent exactly as stored, including
inconsistent length fields and unknown commands. Test cases shorter than
the 24-byte encapsulation header are rejected after the handshake, so a
malformed file still registers one session on the target before the
command exits with code 5. Run 'enipfuzz inspect' first to check a file
without touching the network.

Formats are picked from the extension only (.pcap/.pcapng/.cap, .hex);
anything else is sent as raw bytes unless --format says otherwise.`,
		Example: `  # Same as: enipfuzz 10.0.0.50 id_000042
  enipfuzz send 10.0.0.50 id_000042

  # Hex test case with debug hex dumps
  enipfuzz send 10.0.0.50 case.hex --debug`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(args) != 2 {
				fmt.Fprintln(cmd.OutOrStdout(), deliverUsage)
				return missingArgsError(len(args), "enipfuzz send IP TESTCASE_PATH")
			}
			return runDeliverCmd(cmd, flags, args[0], args[1])
		},
	}

	flags.bind(cmd)

	return cmd
}

func runDeliverCmd(cmd *cobra.Command, flags *deliverFlags, ip, path string) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}
	log, err := flags.logger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	target, err := targetOptions(cfg, ip)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if flags.quiet {
		out = nil
	}

	result, err := app.RunDeliver(cmd.Context(), app.DeliverOptions{
		Target: target,
		Source: sourceOptions(cfg, path),
		Logger: log,
		Out:    out,
	})
	if err != nil {
		return err
	}

	if out != nil {
		fmt.Fprintf(out, "Delivered %d bytes to %s (session 0x%08X)\n", result.BytesSent, result.Target, result.SessionHandle)
	}
	return nil
}
