// Command spibus drives an SPI bus from a host: through a device running the
// register monitor, or against a simulated loopback peripheral. It also
// decodes logic analyzer captures using the bus wire order.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"spibus/core"
)

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:           "spibus",
		Short:         "Host tools for the polling SPI bus driver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))

			core.SetDebugWriter(func(s string) { slog.Debug(s) })
			core.SetDebugEnabled(verbose)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(xferCmd, decodeCmd, monitorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("spibus failed", "err", err)
		os.Exit(1)
	}
}
