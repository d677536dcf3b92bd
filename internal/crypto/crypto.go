// Package crypto implements the vault's key derivation and authenticated
// encryption. It knows nothing about the vault's structure: callers hand it
// opaque byte payloads.
//
// Keys are derived from a master password with Argon2id, or generated
// randomly when the vault runs in key-file mode. Payloads are sealed with
// AES-256-GCM; the GCM tag covers the whole payload, so any bit flip or
// wrong key surfaces as ErrAuthenticationFailed rather than garbage output.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dpshade/prompt-vault/internal/errs"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// SaltSize is the KDF salt length in bytes.
	SaltSize = 16
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
)

// Params are the Argon2id cost parameters recorded in the vault header so a
// container stays readable after defaults change.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams follows the RFC 9106 low-memory recommendation.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 4}

// DeriveKey stretches a master password into a 32-byte key. Same inputs
// always produce the same key; distinct salts produce independent keys.
func DeriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, KeySize)
}

// GenerateKey returns a fresh random 32-byte key for key-file mode.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// GenerateSalt returns a fresh random KDF salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Engine seals and opens payloads under one fixed key.
type Engine struct {
	aead cipher.AEAD
}

// NewEngine builds an AES-256-GCM engine from a 32-byte key.
func NewEngine(key []byte) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length: expected %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &Engine{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. The returned
// ciphertext has the GCM authentication tag appended. Nonces are never
// reused under the same key; an entropy-source failure here is fatal.
func (e *Engine) Encrypt(plaintext []byte) (nonce, ciphertext []byte, err error) {
	nonce = make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, e.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt verifies and opens a sealed payload. Integrity check and
// decryption are one operation: a wrong key and corrupted bytes are
// indistinguishable and both return ErrAuthenticationFailed.
func (e *Engine) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != e.aead.NonceSize() {
		return nil, errs.ErrAuthenticationFailed
	}
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.ErrAuthenticationFailed
	}
	return plaintext, nil
}
