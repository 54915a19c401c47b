package pathfix

import "errors"

// Sentinel errors for package pathfix.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Sidecar content errors, reported per file and never fatal
	ErrMalformedLine        = errors.New("malformed sidecar line")
	ErrUnresolvable         = errors.New("reference cannot be resolved")
	ErrAmbiguous            = errors.New("reference is ambiguous")
	ErrMissingExtensionRule = errors.New("no expected extensions configured for key")
	ErrNotAPath             = errors.New("value is not a path")

	// Tree errors
	ErrUnknownEntry = errors.New("entry not present in original tree")

	// Rename errors
	ErrCollision    = errors.New("several entries repair to the same path")
	ErrTargetExists = errors.New("rename target already exists")

	// ErrInvalidPrecondition signals a programming or configuration error,
	// such as a relative path where a pack-rooted one is required. It aborts
	// the run.
	ErrInvalidPrecondition = errors.New("invalid precondition")
)
