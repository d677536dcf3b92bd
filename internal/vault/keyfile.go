package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dpshade/prompt-vault/internal/crypto"
)

// LoadOrGenerateKeyFile reads a raw 32-byte key from path, generating and
// persisting one (0600) on first use. It reports whether the key was newly
// created so callers can tell the user a weaker, passwordless vault is in
// play.
func LoadOrGenerateKeyFile(path string) (key []byte, created bool, err error) {
	if raw, err := os.ReadFile(path); err == nil {
		if len(raw) != crypto.KeySize {
			return nil, false, fmt.Errorf("key file %s: expected %d bytes, got %d", path, crypto.KeySize, len(raw))
		}
		return raw, false, nil
	} else if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err = crypto.GenerateKey()
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, false, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, false, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, true, nil
}

// stagedKeyPath is the sidecar location used while a key rotation is in
// flight.
func stagedKeyPath(path string) string { return path + ".new" }

// StageKeyFile writes fresh key material to a sidecar next to path, leaving
// the existing key file untouched. Rotation re-encrypts the container under
// the returned key and only then promotes the sidecar with CommitKeyFile,
// so at every point one on-disk key still opens the container.
func StageKeyFile(path string) ([]byte, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(stagedKeyPath(path), key, 0600); err != nil {
		return nil, fmt.Errorf("failed to write staged key file: %w", err)
	}
	return key, nil
}

// LoadStagedKeyFile reads a sidecar key left behind by an interrupted
// rotation. It returns nil without error when no sidecar exists.
func LoadStagedKeyFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(stagedKeyPath(path))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read staged key file: %w", err)
	}
	if len(raw) != crypto.KeySize {
		return nil, fmt.Errorf("staged key file %s: expected %d bytes, got %d", stagedKeyPath(path), crypto.KeySize, len(raw))
	}
	return raw, nil
}

// CommitKeyFile renames the staged sidecar over the primary key file.
func CommitKeyFile(path string) error {
	if err := os.Rename(stagedKeyPath(path), path); err != nil {
		return fmt.Errorf("failed to commit key file: %w", err)
	}
	return nil
}

// DiscardStagedKeyFile removes the sidecar after a failed rotation. A
// missing sidecar is not an error.
func DiscardStagedKeyFile(path string) error {
	if err := os.Remove(stagedKeyPath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove staged key file: %w", err)
	}
	return nil
}
