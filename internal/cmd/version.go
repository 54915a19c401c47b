package cmd

import (
	"github.com/dendrascience/packrepair/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates and returns the version subcommand.
func NewVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if format == formatText {
				version.PrintVersion(cmd.OutOrStdout(), "packrepair")
				return nil
			}
			return encode(cmd.OutOrStdout(), version.GetInfo(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")

	return cmd
}
