package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tonylturner/enipfuzz/internal/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const deliverUsage = "Usage: enipfuzz IP TESTCASE_PATH"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}

func newRootCmd() *cobra.Command {
	flags := &deliverFlags{}

	rootCmd := &cobra.Command{
		Use:   "enipfuzz IP TESTCASE_PATH",
		Short: "Deliver fuzzer test cases to EtherNet/IP devices",
		Long: `enipfuzz delivers one pre-generated EtherNet/IP test case to a live device.

It registers a session with the target, writes the negotiated session handle
and a fixed sender context into the test case's encapsulation header, sends
the result in a single write and closes the connection. Nothing else in the
test case is changed and no reply is read.

Exit codes: 0 success, 2 usage, 3 connection, 4 protocol, 5 malformed test
case, 6 I/O, 7 timeout, 1 anything else.`,
		Example: `  # Deliver a raw test case
  enipfuzz 10.0.0.50 out/crashes/id_000042

  # Deliver the third request from a capture with a 2s budget
  enipfuzz send 10.0.0.50 session.pcapng --pcap-index 2 --timeout 2s`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				fmt.Fprintln(cmd.OutOrStdout(), deliverUsage)
				return missingArgsError(len(args), "enipfuzz IP TESTCASE_PATH")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeliverCmd(cmd, flags, args[0], args[1])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.bind(rootCmd)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.NewUsageError(err.Error(), cmd.UseLine())
	})

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newPatchCmd())
	rootCmd.AddCommand(newInspectCmd())

	// Custom help command
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			if cmd.Long != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", cmd.Long)
			}
			fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Usage:\n  %s IP TESTCASE_PATH [options]\n  %s <command> [arguments] [options]\n\n", cmd.Name(), cmd.Name())
		fmt.Fprintf(out, "Available Commands:\n")
		for _, subCmd := range cmd.Commands() {
			if !subCmd.Hidden {
				fmt.Fprintf(out, "  %-15s %s\n", subCmd.Name(), subCmd.Short)
			}
		}
		fmt.Fprintf(out, "\nUse \"%s help <command>\" for more information about a command.\n", cmd.Name())
	})

	return rootCmd
}
