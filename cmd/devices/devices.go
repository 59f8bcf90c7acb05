// Package devices implements the device listing subcommand.
package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/audiopipe/internal/conf"
	"github.com/tphakala/audiopipe/internal/device/malgodev"
)

// Command returns the devices subcommand.
func Command(_ *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := malgodev.ListCaptureDevices()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Available capture sources:")
			for _, info := range infos {
				marker := " "
				if info.Default {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), " %s %d: %s (%s)\n", marker, info.Index, info.Name, info.ID)
			}
			return nil
		},
	}
}
