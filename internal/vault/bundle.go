package vault

import (
	"encoding/json"
	"fmt"

	"github.com/dpshade/prompt-vault/internal/crypto"
	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/models"
)

// Bundles move prompts between vaults. A bundle reuses the container
// framing, sealed under a key derived from a transfer passphrase, so the
// file is safe to mail around.

// SealBundle serializes prompts and encrypts them under passphrase.
func SealBundle(prompts []*models.Prompt, passphrase []byte) ([]byte, error) {
	plaintext, err := json.Marshal(prompts)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bundle: %w", err)
	}
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, err
	}
	params := crypto.DefaultParams
	engine, err := crypto.NewEngine(crypto.DeriveKey(passphrase, salt, params))
	if err != nil {
		return nil, err
	}
	nonce, ciphertext, err := engine.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return encodeContainer(&container{
		Mode:       KeyModePassword,
		Params:     params,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}), nil
}

// OpenBundle decrypts a bundle produced by SealBundle.
func OpenBundle(data, passphrase []byte) ([]*models.Prompt, error) {
	c, err := decodeContainer(data)
	if err != nil {
		return nil, err
	}
	engine, err := crypto.NewEngine(crypto.DeriveKey(passphrase, c.Salt, c.Params))
	if err != nil {
		return nil, err
	}
	plaintext, err := engine.Decrypt(c.Nonce, c.Ciphertext)
	if err != nil {
		return nil, err
	}
	var prompts []*models.Prompt
	if err := json.Unmarshal(plaintext, &prompts); err != nil {
		return nil, fmt.Errorf("%w: undecodable bundle", errs.ErrCorruptContainer)
	}
	return prompts, nil
}
