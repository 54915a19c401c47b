package cmd

import (
	"github.com/dendrascience/packrepair/internal/logging"
	"github.com/dendrascience/packrepair/version"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	logLevel   string
	workers    int
	workDir    string
}

// NewRootCmd creates and returns the root cobra command for the packrepair CLI.
// It sets up all subcommands, command groups, and the persistent flags.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "packrepair",
		Short: "packrepair - repair broken file names in resource packs",
		Long: `packrepair repairs resource packs whose file names contain characters the
game refuses to load: accents, spaces, brackets and upper case letters.

Every entry is renamed to its canonical form and the references made to it by
.properties files are rewritten so the pack stays consistent.

Use subcommands to perform different operations:
  - analyse: Report broken names and references without changing anything
  - repair: Rename entries, rewrite references and pack the result
  - version: Print version information`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (default: $PACKREPAIR_CONFIG or packrepair.{json,yaml,toml})")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", logging.LogLevelInfo, "Log level: debug, info, warn, error or none")
	rootCmd.PersistentFlags().IntVarP(&opts.workers, "workers", "w", 0, "Extraction workers (default from config)")
	rootCmd.PersistentFlags().StringVar(&opts.workDir, "work-dir", "", "Directory archives are extracted to (default from config)")

	groupPacks := "packs"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupPacks,
		Title: "Pack Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	analyseCmd := NewAnalyseCmd(opts)
	repairCmd := NewRepairCmd(opts)
	versionCmd := NewVersionCmd()

	analyseCmd.GroupID = groupPacks
	repairCmd.GroupID = groupPacks
	versionCmd.GroupID = groupUtilities

	rootCmd.AddCommand(analyseCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}
