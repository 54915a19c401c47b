package cmd

import (
	"fmt"

	"github.com/dendrascience/packrepair/pathfix"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewAnalyseCmd creates and returns the analyse subcommand.
// It reports what repair would change without touching the pack.
func NewAnalyseCmd(opts *rootOptions) *cobra.Command {
	var (
		format     string
		reportFile string
	)

	cmd := &cobra.Command{
		Use:     "analyse PATH",
		Aliases: []string{"analyze"},
		Short:   "Report broken names and references in a pack",
		Long: `Analyse a resource pack without modifying it.

PATH is a pack directory or a .zip archive. Archives are extracted to the work
directory first. The report lists every entry whose name is not canonical, the
references that repair would rewrite and the ones it cannot resolve.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return runAnalyse(cmd, opts, args[0], format, reportFile)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Report format: text, json or yaml")
	cmd.Flags().StringVarP(&reportFile, "report", "r", "", "Also save the report to this file (.json, .yaml)")

	return cmd
}

func runAnalyse(cmd *cobra.Command, opts *rootOptions, input, format, reportFile string) error {
	env, err := newRunEnv(opts)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	pack, err := openPack(cmd.Context(), env, input)
	if err != nil {
		return err
	}
	rc, err := pathfix.NewRepairContext(env.fs, pack.Root, env.rules, env.log)
	if err != nil {
		return err
	}
	report, err := rc.Analyse(cmd.Context())
	if err != nil {
		return err
	}
	env.log.Info("analysis done",
		zap.Int("broken", len(report.Broken)),
		zap.Int("changes", len(report.Changes)),
		zap.Int("issues", len(report.Issues)))
	if reportFile != "" {
		if err := saveReport(env.fs, reportFile, report); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
	}
	return writeReport(cmd.OutOrStdout(), report, format)
}
