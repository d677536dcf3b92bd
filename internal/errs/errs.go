// Package errs defines the sentinel errors shared across the vault and
// chain layers. Callers match them with errors.Is; packages wrap them with
// additional context via fmt.Errorf("...: %w", ...).
package errs

import "errors"

// Vault and crypto errors. Authentication failure deliberately covers both a
// wrong master password and tampered ciphertext: at the crypto layer the two
// are indistinguishable, and keeping them indistinguishable avoids aiding
// offline guessing.
var (
	// ErrAuthenticationFailed indicates decryption failed: wrong key,
	// wrong password, or corrupted/tampered ciphertext.
	ErrAuthenticationFailed = errors.New("authentication failed: wrong password or corrupted data")

	// ErrCorruptContainer indicates the vault file's cleartext header is
	// malformed and the container cannot even be attempted.
	ErrCorruptContainer = errors.New("vault container is corrupt")

	// ErrUnsupportedFormat indicates the container was written by a newer
	// format version than this build understands.
	ErrUnsupportedFormat = errors.New("unsupported vault format version")
)

// Lookup errors.
var (
	// ErrNotFound indicates no prompt or chain exists with the given id or title.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous indicates a title lookup matched more than one entry.
	ErrAmbiguous = errors.New("ambiguous reference: multiple matches")

	// ErrInvalidVersion indicates a revert target outside the recorded history.
	ErrInvalidVersion = errors.New("invalid version number")

	// ErrAlreadyExists indicates an id collision on create or import.
	ErrAlreadyExists = errors.New("already exists")
)

// Execution errors.
var (
	// ErrProviderNotFound indicates a step referenced a provider name that
	// is not present in the configured registry.
	ErrProviderNotFound = errors.New("provider not configured")

	// ErrInvalidPlan indicates the step list failed planning-time validation.
	ErrInvalidPlan = errors.New("invalid chain plan")
)
