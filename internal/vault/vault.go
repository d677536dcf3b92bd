// Package vault persists prompts and chain definitions as one encrypted
// container file. Every mutating operation rewrites the container exactly
// once, via a temp-file-then-rename so a crash mid-write never leaves a
// half-written vault. All mutations are serialized behind a single mutex;
// the vault assumes a single local process owns the file.
package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dpshade/prompt-vault/internal/crypto"
	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/models"
)

// Credentials carry one key source. A non-empty Password selects password
// mode (Argon2id over the header salt); otherwise Key must be a raw 32-byte
// key, typically read from the local key file.
type Credentials struct {
	Password []byte
	Key      []byte
}

func (c Credentials) mode() KeyMode {
	if len(c.Password) > 0 {
		return KeyModePassword
	}
	return KeyModeKeyFile
}

// collection is the plaintext form of the container payload.
type collection struct {
	Prompts []*models.Prompt          `json:"prompts"`
	Chains  []*models.ChainDefinition `json:"chains"`
}

// Vault is an open, decrypted view of one container file.
type Vault struct {
	mu     sync.Mutex
	path   string
	mode   KeyMode
	params crypto.Params
	salt   []byte
	engine *crypto.Engine
	data   *collection
}

// Create initializes a new empty vault at path. It fails if a container
// already exists there.
func Create(path string, creds Credentials) (*Vault, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("vault %s: %w", path, errs.ErrAlreadyExists)
	}

	v := &Vault{
		path:   path,
		mode:   creds.mode(),
		params: crypto.DefaultParams,
		data:   &collection{},
	}
	if err := v.installKey(creds); err != nil {
		return nil, err
	}
	if err := v.save(); err != nil {
		return nil, err
	}
	return v, nil
}

// Open loads and decrypts an existing vault. A wrong password and a
// tampered container both surface as ErrAuthenticationFailed; a malformed
// header surfaces as ErrCorruptContainer.
func Open(path string, creds Credentials) (*Vault, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}
	c, err := decodeContainer(raw)
	if err != nil {
		return nil, err
	}

	var key []byte
	switch c.Mode {
	case KeyModePassword:
		if len(creds.Password) == 0 {
			return nil, fmt.Errorf("vault is password protected: %w", errs.ErrAuthenticationFailed)
		}
		key = crypto.DeriveKey(creds.Password, c.Salt, c.Params)
	case KeyModeKeyFile:
		key = creds.Key
	}

	engine, err := crypto.NewEngine(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrAuthenticationFailed, err)
	}
	plaintext, err := engine.Decrypt(c.Nonce, c.Ciphertext)
	if err != nil {
		return nil, err
	}

	data := &collection{}
	if err := json.Unmarshal(plaintext, data); err != nil {
		// The payload authenticated but does not parse: the container was
		// written by something else entirely.
		return nil, fmt.Errorf("%w: undecodable payload", errs.ErrCorruptContainer)
	}

	return &Vault{
		path:   path,
		mode:   c.Mode,
		params: c.Params,
		salt:   c.Salt,
		engine: engine,
		data:   data,
	}, nil
}

// InspectMode reads only the container header at path and reports which key
// mode it uses. exists is false when no container is present there.
func InspectMode(path string) (mode KeyMode, exists bool, err error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read vault: %w", err)
	}
	c, err := decodeContainer(raw)
	if err != nil {
		return 0, true, err
	}
	return c.Mode, true, nil
}

// Path returns the container file location.
func (v *Vault) Path() string {
	return v.path
}

// installKey sets up the engine (and salt, in password mode) for creds.
func (v *Vault) installKey(creds Credentials) error {
	var key []byte
	switch creds.mode() {
	case KeyModePassword:
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return err
		}
		v.salt = salt
		key = crypto.DeriveKey(creds.Password, salt, v.params)
	case KeyModeKeyFile:
		if len(creds.Key) != crypto.KeySize {
			return fmt.Errorf("raw key must be %d bytes, got %d", crypto.KeySize, len(creds.Key))
		}
		v.salt = make([]byte, crypto.SaltSize)
		key = creds.Key
	}
	v.mode = creds.mode()

	engine, err := crypto.NewEngine(key)
	if err != nil {
		return err
	}
	v.engine = engine
	return nil
}

// save encrypts the collection and atomically replaces the container file.
// Callers must hold v.mu (or have exclusive access during construction).
func (v *Vault) save() error {
	plaintext, err := json.Marshal(v.data)
	if err != nil {
		return fmt.Errorf("failed to serialize collection: %w", err)
	}
	nonce, ciphertext, err := v.engine.Encrypt(plaintext)
	if err != nil {
		return err
	}
	out := encodeContainer(&container{
		Mode:       v.mode,
		Params:     v.params,
		Salt:       v.salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})

	dir := filepath.Dir(v.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".vault-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close vault: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("failed to set vault permissions: %w", err)
	}
	// The old container stays valid until this rename lands.
	if err := os.Rename(tmpPath, v.path); err != nil {
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	return nil
}

// Rotate re-encrypts the whole collection under a key built from creds,
// using a fresh salt and nonce. The caller proved knowledge of the old key
// by holding an open vault. Rotation is serialized against every other
// mutating operation, and the old container remains readable until the new
// one is durably written.
func (v *Vault) Rotate(creds Credentials) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	oldMode, oldSalt, oldEngine := v.mode, v.salt, v.engine
	if err := v.installKey(creds); err != nil {
		return err
	}
	if err := v.save(); err != nil {
		v.mode, v.salt, v.engine = oldMode, oldSalt, oldEngine
		return err
	}
	return nil
}
