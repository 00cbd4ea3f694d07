package main

import (
	"github.com/spf13/cobra"

	"github.com/tonylturner/enipfuzz/internal/app"
)

type registerFlags struct {
	commonFlags
	ip string
}

func newRegisterCmd() *cobra.Command {
	flags := &registerFlags{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a session to check the target is alive",
		Long: `Register an EtherNet/IP session with the target and print the handle.

This command performs the same handshake as a delivery without sending a
test case:
  1. Connecting to the device on TCP port 44818 (or --port)
  2. Sending a RegisterSession request
  3. Printing the session handle, status and echoed sender context
  4. Sending UnregisterSession and closing the connection

Run it between deliveries to tell whether the previous test case crashed
or wedged the target.`,
		Example: `  # Check the target before a campaign
  enipfuzz register --ip 10.0.0.50

  # Fail if the target does not echo the sender context
  enipfuzz register --ip 10.0.0.50 --verify-context`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.ip == "" {
				return missingFlagError(cmd, "--ip")
			}
			return runRegister(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.ip, "ip", "", "Target IP address (required)")
	flags.bind(cmd)

	return cmd
}

func runRegister(cmd *cobra.Command, flags *registerFlags) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}
	log, err := flags.logger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	target, err := targetOptions(cfg, flags.ip)
	if err != nil {
		return err
	}

	_, err = app.RunRegister(cmd.Context(), app.RegisterOptions{
		Target: target,
		Logger: log,
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
	})
	return err
}
