// Package cmd provides the command-line interface implementation for packrepair.
//
// This package contains all the subcommand implementations for the packrepair CLI tool.
// It uses the Cobra library for command structure and Fang for styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator, persistent flags (--config, --log-level,
//     --workers, --work-dir)
//   - analyse: Read-only report of broken names and references
//   - repair: Rename entries, rewrite references and pack the result
//   - version: Version information
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Inputs may be pack directories or .zip archives;
// archives are extracted with the archive package before the pathfix package
// works on them.
package cmd
