package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/prompt-vault/internal/chain"
	"github.com/dpshade/prompt-vault/internal/config"
	"github.com/dpshade/prompt-vault/internal/crypto"
	"github.com/dpshade/prompt-vault/internal/logging"
	"github.com/dpshade/prompt-vault/internal/models"
	"github.com/dpshade/prompt-vault/internal/renderer"
	"github.com/dpshade/prompt-vault/internal/vault"
)

type upperProvider struct{}

func (upperProvider) Name() string { return "upper" }

func (upperProvider) Complete(_ context.Context, prompt string) (string, error) {
	return "UPPER(" + prompt + ")", nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	v, err := vault.Create(filepath.Join(t.TempDir(), "vault.pv"), vault.Credentials{Key: key})
	require.NoError(t, err)

	svc, err := New(&config.Config{}, v, logging.Logger{})
	require.NoError(t, err)
	svc.Registry().Register(upperProvider{})
	require.NoError(t, svc.Registry().SetDefault("upper"))
	return svc
}

func TestRenderPrompt(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Vault().CreatePrompt("greet", "Hello {{name}}", nil)
	require.NoError(t, err)

	out, err := svc.RenderPrompt("greet", map[string]string{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out)

	_, err = svc.RenderPrompt("greet", nil)
	var missing *renderer.MissingVariableError
	assert.ErrorAs(t, err, &missing)
}

func TestRunPromptWithAndWithoutProvider(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Vault().CreatePrompt("greet", "Hello {{name}}", nil)
	require.NoError(t, err)

	out, err := svc.RunPrompt(context.Background(), "greet", map[string]string{"name": "Ada"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out)

	out, err = svc.RunPrompt(context.Background(), "greet", map[string]string{"name": "Ada"}, "upper")
	require.NoError(t, err)
	assert.Equal(t, "UPPER(Hello Ada)", out)
}

func TestRunChainResolvesStoredPrompts(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.Vault().CreatePrompt("outline", "outline {{topic}}", nil)
	require.NoError(t, err)

	def := &models.ChainDefinition{
		Vars: map[string]string{"topic": "bees"},
		Steps: []models.StepSpec{
			{Key: "outline_out", PromptID: p.ID},
			{Key: "draft", Template: "draft from {{outline_out}}"},
		},
	}
	res, err := svc.RunChain(context.Background(), def, map[string]string{"topic": "wasps"}, chain.Options{})
	require.NoError(t, err)
	// The override wins over the definition's variable.
	assert.Equal(t, "UPPER(outline wasps)", res.Context["outline_out"])
	assert.Equal(t, "UPPER(draft from UPPER(outline wasps))", res.Context["draft"])
}

func TestRunChainByRef(t *testing.T) {
	svc := newTestService(t)
	c, err := svc.Vault().CreateChain("pipeline", nil, []models.StepSpec{
		{Key: "only", Template: "just this"},
	})
	require.NoError(t, err)

	res, err := svc.RunChainByRef(context.Background(), c.ID, nil, chain.Options{})
	require.NoError(t, err)
	assert.Equal(t, "UPPER(just this)", res.Context["only"])
}

func TestSearchPromptsFuzzy(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Vault().CreatePrompt("Code Review Checklist", "...", []string{"dev"})
	require.NoError(t, err)
	_, err = svc.Vault().CreatePrompt("Grocery List", "...", nil)
	require.NoError(t, err)

	hits := svc.SearchPrompts("code rev")
	require.NotEmpty(t, hits)
	assert.Equal(t, "Code Review Checklist", hits[0].Title)

	assert.Len(t, svc.SearchPrompts(""), 2)
}

func TestStats(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.Vault().CreatePrompt("a", "1", []string{"dev", "Email"})
	require.NoError(t, err)
	_, err = svc.Vault().EditPrompt(p.ID, "2")
	require.NoError(t, err)
	_, err = svc.Vault().CreatePrompt("b", "1", []string{"dev"})
	require.NoError(t, err)
	_, err = svc.Vault().CreateChain("c", nil, []models.StepSpec{{Key: "k", Template: "t"}})
	require.NoError(t, err)

	st := svc.Stats()
	assert.Equal(t, 2, st.Prompts)
	assert.Equal(t, 1, st.Chains)
	// Two creates plus one edit, plus the chain's initial version.
	assert.Equal(t, 4, st.Versions)
	require.NotEmpty(t, st.TopTags)
	assert.Equal(t, TagCount{Tag: "dev", Count: 2}, st.TopTags[0])
	assert.Equal(t, TagCount{Tag: "email", Count: 1}, st.TopTags[1])
}

func TestExportImportPrompts(t *testing.T) {
	src := newTestService(t)
	p, err := src.Vault().CreatePrompt("moved", "content", []string{"x"})
	require.NoError(t, err)

	bundle, err := src.ExportPrompts(nil, []byte("transfer"))
	require.NoError(t, err)

	dst := newTestService(t)
	added, err := dst.ImportPrompts(bundle, []byte("transfer"))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	got, err := dst.Vault().GetPrompt(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "content", got.Content)

	_, err = dst.ImportPrompts(bundle, []byte("wrong"))
	assert.Error(t, err)
}

func TestOpenRecoversInterruptedKeyRotation(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Vault: config.VaultConfig{
		Path:    filepath.Join(dir, "vault.pv"),
		KeyFile: filepath.Join(dir, "keys", "key.bin"),
	}}
	svc, err := InitVault(cfg, logging.Logger{}, false)
	require.NoError(t, err)
	_, err = svc.Vault().CreatePrompt("kept", "survives rotation", nil)
	require.NoError(t, err)

	// Interrupted before the container is re-encrypted: the primary key
	// file is untouched and still opens the vault.
	staged, err := vault.StageKeyFile(cfg.Vault.KeyFile)
	require.NoError(t, err)
	reopened, err := OpenExisting(cfg, logging.Logger{})
	require.NoError(t, err)
	_, err = reopened.Vault().FindPrompt("kept")
	require.NoError(t, err)

	// Interrupted after re-encryption but before the staged key is
	// promoted: opening retries with the sidecar and promotes it.
	require.NoError(t, reopened.Vault().Rotate(vault.Credentials{Key: staged}))
	recovered, err := OpenExisting(cfg, logging.Logger{})
	require.NoError(t, err)
	got, err := recovered.Vault().FindPrompt("kept")
	require.NoError(t, err)
	assert.Equal(t, "survives rotation", got.Content)

	onDisk, created, err := vault.LoadOrGenerateKeyFile(cfg.Vault.KeyFile)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, staged, onDisk)
	sidecar, err := vault.LoadStagedKeyFile(cfg.Vault.KeyFile)
	require.NoError(t, err)
	assert.Nil(t, sidecar)
}
