package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/audiopipe/cmd/devices"
	"github.com/tphakala/audiopipe/cmd/record"
	"github.com/tphakala/audiopipe/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "audiopipe",
		Short: "Lock-free shared-memory audio capture pipeline",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")

	rootCmd.AddCommand(
		devices.Command(settings),
		record.Command(settings),
	)

	return rootCmd
}
