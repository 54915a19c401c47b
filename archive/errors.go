package archive

import "errors"

// Sentinel errors for package archive.
// These errors can be checked with errors.Is() for specific error handling.
var (
	ErrNotZip            = errors.New("not a zip archive")
	ErrExpectedDirectory = errors.New("expected directory but got file")

	// ErrUnsafePath is returned for entries that would land outside the
	// extraction directory.
	ErrUnsafePath = errors.New("archive entry escapes destination")
)
