// Package archive moves resource packs between zip files and directories.
//
// Extract unpacks a zip with a bounded pool of workers, each reading the
// archive through its own handle. Pack writes a list of pack-rooted paths
// back into a new zip.
package archive
