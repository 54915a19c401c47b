package cmd

import (
	"fmt"

	"github.com/dendrascience/packrepair/archive"
	"github.com/dendrascience/packrepair/pathfix"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRepairCmd creates and returns the repair subcommand.
// It renames broken entries, rewrites sidecar references and packs the result.
func NewRepairCmd(opts *rootOptions) *cobra.Command {
	var (
		output     string
		format     string
		reportFile string
	)

	cmd := &cobra.Command{
		Use:   "repair PATH",
		Short: "Repair broken names and references in a pack",
		Long: `Repair a resource pack.

PATH is a pack directory or a .zip archive. A directory is repaired in place;
an archive is extracted to the work directory, repaired there and packed again
into the output directory as <name>.zip. Use --output to also pack a repaired
directory.

Entries whose repaired names would collide are left untouched and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return runRepair(cmd, opts, args[0], output, format, reportFile)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Directory the repaired archive is written to (default from config for archives)")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Report format: text, json or yaml")
	cmd.Flags().StringVarP(&reportFile, "report", "r", "", "Also save the report to this file (.json, .yaml)")

	return cmd
}

func runRepair(cmd *cobra.Command, opts *rootOptions, input, output, format, reportFile string) error {
	env, err := newRunEnv(opts)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	pack, err := openPack(cmd.Context(), env, input)
	if err != nil {
		return err
	}
	dest := pack.destination(output, env.cfg.OutputPath)
	if dest != "" && pathWithin(dest, pack.Root) {
		return fmt.Errorf("output %s is inside the pack at %s", dest, pack.Root)
	}

	rc, err := pathfix.NewRepairContext(env.fs, pack.Root, env.rules, env.log)
	if err != nil {
		return err
	}
	report, err := rc.Repair(cmd.Context())
	if err != nil {
		return err
	}

	if dest != "" {
		if err := archive.Pack(env.fs, pack.Root, report.Snapshot, dest); err != nil {
			return fmt.Errorf("packing %s: %w", dest, err)
		}
		env.log.Info("repaired pack written", zap.String("archive", dest))
	}
	if err := report.Err(); err != nil {
		env.log.Warn("some entries could not be repaired", zap.Int("failures", len(report.Failures)))
	}
	if reportFile != "" {
		if err := saveReport(env.fs, reportFile, report); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
	}
	return writeReport(cmd.OutOrStdout(), report, format)
}
