// Package main provides the packrepair command-line interface.
//
// packrepair repairs resource packs whose file names use characters the game
// cannot load. Entries are renamed to a canonical lower case ASCII form and
// the references .properties files make to them are rewritten to match.
//
// The main binary supports multiple subcommands:
//   - analyse: Report broken names and references without changing the pack
//   - repair: Repair a pack directory in place, or an archive into a new archive
//   - version: Print version information
package main
