// sandbox inspects the IP addresses of this host and replays network callback
// scripts through the active network monitor.
package main

import (
	"fmt"
	"os"

	"github.com/nekohasekai/libsandbox/internal/report"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/sagernet/sing/common/control"
	"github.com/spf13/cobra"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Inspect visible IP addresses and the active network monitor",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level")

	interfacesCmd := &cobra.Command{
		Use:   "interfaces",
		Short: "List the reportable addresses of the local interfaces",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			addresses := report.InterfaceAddresses(control.NewDefaultInterfaceFinder())
			fmt.Fprintln(cmd.OutOrStdout(), report.TitleNetworkInterfaces)
			fmt.Fprint(cmd.OutOrStdout(), report.FormatList(addresses))
		},
	}

	rootCmd.AddCommand(interfacesCmd, newClassifyCommand(), newReplayCommand())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	log.RegisterHandler(zerologHandler{})
}
