package main

import (
	"fmt"

	"github.com/nekohasekai/libsandbox/internal/address"

	"github.com/spf13/cobra"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <address>...",
		Short: "Tell which address literals would appear in an IP list",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, literal := range args {
				fmt.Fprintln(cmd.OutOrStdout(), classifyLiteral(literal))
			}
		},
	}
}

func classifyLiteral(literal string) string {
	addr, reportable := address.ParseReportable(literal)
	switch {
	case !addr.IsValid():
		return literal + ": invalid"
	case reportable:
		return literal + ": reportable " + addr.String()
	default:
		return literal + ": excluded"
	}
}
