package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonylturner/enipfuzz/internal/errors"
)

func handleHelpArg(cmd *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return false
	}
	if strings.EqualFold(args[0], "help") {
		_ = cmd.Help()
		return true
	}
	return false
}

func missingFlagError(cmd *cobra.Command, flag string) error {
	_ = cmd.Help()
	return errors.NewUsageError(fmt.Sprintf("required flag %s not set", flag), cmd.UseLine())
}

func missingArgsError(got int, usage string) error {
	return errors.NewUsageError(fmt.Sprintf("expected 2 arguments (IP and test case path), got %d", got), usage)
}
