package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingYieldsEmptyConfig(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
	assert.Empty(t, cfg.Vault.Path)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_provider = "fast"

[vault]
path = "/data/vault.pv"
key_file = "/data/key.bin"

[providers.fast]
backend = "openrouter"
model = "openai/gpt-4o-mini"
api_key_env = "OPENROUTER_API_KEY"

[providers.local]
backend = "ollama"
model = "llama3"
base_url = "http://box:11434/v1"
`), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.DefaultProvider)
	assert.Equal(t, "/data/vault.pv", cfg.Vault.Path)
	require.Contains(t, cfg.Providers, "fast")
	assert.Equal(t, "openrouter", cfg.Providers["fast"].Backend)
	assert.Equal(t, "http://box:11434/v1", cfg.Providers["local"].BaseURL)

	vaultPath, err := cfg.VaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/data/vault.pv", vaultPath)

	keyPath, err := cfg.KeyFilePath()
	require.NoError(t, err)
	assert.Equal(t, "/data/key.bin", keyPath)
}

func TestLoadFileRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[vault\npath ="), 0600))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestBaseDirHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVaultDir, dir)

	got, err := BaseDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	cfg := &Config{}
	vaultPath, err := cfg.VaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vault.pv"), vaultPath)
}
