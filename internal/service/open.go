package service

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dpshade/prompt-vault/internal/config"
	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/logging"
	"github.com/dpshade/prompt-vault/internal/vault"
)

// ErrNoVault is returned by OpenExisting when no container file is present.
var ErrNoVault = errors.New("no vault found, run `pv init` first")

// readPassword prompts on the terminal without echo. It falls back to the
// PROMPT_VAULT_PASSWORD environment variable so scripts never block on a
// prompt.
func readPassword(label string) ([]byte, error) {
	if pw := os.Getenv(config.EnvPassword); pw != "" {
		return []byte(pw), nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("stdin is not a terminal, set %s: %w", config.EnvPassword, errs.ErrAuthenticationFailed)
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return pw, nil
}

// ReadPassphrase prompts once, for unlocking transfer bundles.
func ReadPassphrase(label string) ([]byte, error) {
	return readPassword(label)
}

// ReadNewPassword prompts twice and checks the entries match. Used by init
// and rotate-key.
func ReadNewPassword() ([]byte, error) {
	pw, err := readPassword("New master password")
	if err != nil {
		return nil, err
	}
	if os.Getenv(config.EnvPassword) != "" {
		return pw, nil
	}
	confirm, err := readPassword("Confirm password")
	if err != nil {
		return nil, err
	}
	if string(pw) != string(confirm) {
		return nil, errors.New("passwords do not match")
	}
	if len(strings.TrimSpace(string(pw))) == 0 {
		return nil, errors.New("password must not be empty")
	}
	return pw, nil
}

// credentialsFor builds credentials matching an existing container's key
// mode: password mode prompts (or reads the env), key file mode reads the
// configured key file.
func credentialsFor(cfg *config.Config, mode vault.KeyMode) (vault.Credentials, error) {
	switch mode {
	case vault.KeyModePassword:
		pw, err := readPassword("Master password")
		if err != nil {
			return vault.Credentials{}, err
		}
		return vault.Credentials{Password: pw}, nil
	case vault.KeyModeKeyFile:
		path, err := cfg.KeyFilePath()
		if err != nil {
			return vault.Credentials{}, err
		}
		key, created, err := vault.LoadOrGenerateKeyFile(path)
		if err != nil {
			return vault.Credentials{}, err
		}
		if created {
			return vault.Credentials{}, fmt.Errorf("key file %s was missing, the vault cannot be unlocked: %w", path, errs.ErrAuthenticationFailed)
		}
		return vault.Credentials{Key: key}, nil
	default:
		return vault.Credentials{}, fmt.Errorf("%w: unknown key mode %d", errs.ErrUnsupportedFormat, mode)
	}
}

// OpenExisting opens the configured vault, resolving credentials from the
// container's own key mode.
func OpenExisting(cfg *config.Config, log logging.Logger) (*Service, error) {
	path, err := cfg.VaultPath()
	if err != nil {
		return nil, err
	}
	mode, exists, err := vault.InspectMode(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNoVault
	}
	creds, err := credentialsFor(cfg, mode)
	if err != nil {
		return nil, err
	}
	v, err := vault.Open(path, creds)
	if err != nil && mode == vault.KeyModeKeyFile && errors.Is(err, errs.ErrAuthenticationFailed) {
		// A rotation interrupted between re-encrypting the container and
		// promoting its key leaves the new key in a sidecar. Retry with it
		// and promote on success.
		keyPath, perr := cfg.KeyFilePath()
		if perr != nil {
			return nil, perr
		}
		if staged, _ := vault.LoadStagedKeyFile(keyPath); staged != nil {
			if recovered, rerr := vault.Open(path, vault.Credentials{Key: staged}); rerr == nil {
				if cerr := vault.CommitKeyFile(keyPath); cerr != nil {
					return nil, cerr
				}
				log.Infof("recovered interrupted key rotation, promoted %s", keyPath)
				v, err = recovered, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	log.Debugf("opened vault %s", path)
	return New(cfg, v, log)
}

// InitVault creates a new vault. usePassword selects password mode with an
// interactive (or env-supplied) master password; otherwise a key file is
// generated.
func InitVault(cfg *config.Config, log logging.Logger, usePassword bool) (*Service, error) {
	path, err := cfg.VaultPath()
	if err != nil {
		return nil, err
	}

	var creds vault.Credentials
	if usePassword {
		pw, err := ReadNewPassword()
		if err != nil {
			return nil, err
		}
		creds = vault.Credentials{Password: pw}
	} else {
		keyPath, err := cfg.KeyFilePath()
		if err != nil {
			return nil, err
		}
		key, created, err := vault.LoadOrGenerateKeyFile(keyPath)
		if err != nil {
			return nil, err
		}
		if created {
			log.Infof("generated key file %s", keyPath)
		}
		creds = vault.Credentials{Key: key}
	}

	v, err := vault.Create(path, creds)
	if err != nil {
		return nil, err
	}
	log.Infof("created vault %s", path)
	return New(cfg, v, log)
}
