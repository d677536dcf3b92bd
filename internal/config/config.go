// Package config loads ~/.prompt-vault/config.toml: vault location
// overrides and the table of generation backends chains can reference by
// name.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvVaultDir overrides the default ~/.prompt-vault base directory.
const EnvVaultDir = "PROMPT_VAULT_DIR"

// EnvPassword supplies the master password non-interactively.
const EnvPassword = "PROMPT_VAULT_PASSWORD"

// Config mirrors config.toml.
type Config struct {
	Vault           VaultConfig               `toml:"vault"`
	DefaultProvider string                    `toml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `toml:"providers"`
}

// VaultConfig overrides storage locations.
type VaultConfig struct {
	Path    string `toml:"path,omitempty"`
	KeyFile string `toml:"key_file,omitempty"`
}

// ProviderConfig describes one generation backend.
//
//	[providers.fast]
//	backend = "openrouter"
//	model = "openai/gpt-4o-mini"
//	api_key_env = "OPENROUTER_API_KEY"
type ProviderConfig struct {
	Backend   string `toml:"backend"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
}

// BaseDir returns the prompt-vault home directory.
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvVaultDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".prompt-vault"), nil
}

// Load reads config.toml from the base directory. A missing file yields an
// empty config: the vault works without any providers configured.
func Load() (*Config, error) {
	dir, err := BaseDir()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(dir, "config.toml"))
}

// LoadFile reads a specific config file.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// VaultPath returns the container file location, honoring overrides.
func (c *Config) VaultPath() (string, error) {
	if c.Vault.Path != "" {
		return c.Vault.Path, nil
	}
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "vault.pv"), nil
}

// KeyFilePath returns the key file location, honoring overrides.
func (c *Config) KeyFilePath() (string, error) {
	if c.Vault.KeyFile != "" {
		return c.Vault.KeyFile, nil
	}
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "keys", "key.bin"), nil
}
