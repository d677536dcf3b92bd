package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/prompt-vault/internal/crypto"
	"github.com/dpshade/prompt-vault/internal/errs"
)

// newTestVault creates a key-file-mode vault so tests skip the slow KDF.
// Password-mode behavior gets its own dedicated tests.
func newTestVault(t *testing.T) (*Vault, Credentials) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	creds := Credentials{Key: key}
	v, err := Create(filepath.Join(t.TempDir(), "vault.pv"), creds)
	require.NoError(t, err)
	return v, creds
}

func TestCreateRefusesExistingContainer(t *testing.T) {
	v, creds := newTestVault(t)
	_, err := Create(v.Path(), creds)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestOpenWithPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.pv")
	creds := Credentials{Password: []byte("hunter2")}

	v, err := Create(path, creds)
	require.NoError(t, err)
	_, err = v.CreatePrompt("greeting", "Hello {{name}}", nil)
	require.NoError(t, err)

	reopened, err := Open(path, creds)
	require.NoError(t, err)
	prompts := reopened.ListPrompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "Hello {{name}}", prompts[0].Content)
}

func TestOpenWrongPasswordFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.pv")
	_, err := Create(path, Credentials{Password: []byte("right")})
	require.NoError(t, err)

	_, err = Open(path, Credentials{Password: []byte("wrong")})
	assert.ErrorIs(t, err, errs.ErrAuthenticationFailed)

	_, err = Open(path, Credentials{})
	assert.ErrorIs(t, err, errs.ErrAuthenticationFailed)
}

func TestOpenTamperedContainerFails(t *testing.T) {
	v, creds := newTestVault(t)
	_, err := v.CreatePrompt("p", "content", nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(v.Path(), raw, 0600))

	_, err = Open(v.Path(), creds)
	assert.ErrorIs(t, err, errs.ErrAuthenticationFailed)
}

func TestOpenTruncatedHeaderFails(t *testing.T) {
	v, creds := newTestVault(t)
	raw, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(v.Path(), raw[:8], 0600))

	_, err = Open(v.Path(), creds)
	assert.ErrorIs(t, err, errs.ErrCorruptContainer)
}

func TestInspectMode(t *testing.T) {
	dir := t.TempDir()

	_, exists, err := InspectMode(filepath.Join(dir, "missing.pv"))
	require.NoError(t, err)
	assert.False(t, exists)

	path := filepath.Join(dir, "vault.pv")
	_, err = Create(path, Credentials{Password: []byte("pw")})
	require.NoError(t, err)

	mode, exists, err := InspectMode(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, KeyModePassword, mode)
}

func TestEditAppendsVersions(t *testing.T) {
	v, _ := newTestVault(t)
	p, err := v.CreatePrompt("draft", "v1 text", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentVersion)
	assert.Len(t, p.Versions, 1)

	p, err = v.EditPrompt(p.ID, "v2 text")
	require.NoError(t, err)
	p, err = v.EditPrompt(p.ID, "v3 text")
	require.NoError(t, err)

	// Two edits on top of creation: three history entries.
	assert.Equal(t, 3, p.CurrentVersion)
	require.Len(t, p.Versions, 3)
	assert.Equal(t, "v1 text", p.Version(1).Content)
	assert.Equal(t, "v2 text", p.Version(2).Content)
	assert.Equal(t, "v3 text", p.Version(3).Content)
	assert.Equal(t, "v3 text", p.Content)
}

func TestEditIdenticalContentIsNoOp(t *testing.T) {
	v, _ := newTestVault(t)
	p, err := v.CreatePrompt("draft", "same", nil)
	require.NoError(t, err)

	p, err = v.EditPrompt(p.ID, "same")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentVersion)
	assert.Len(t, p.Versions, 1)
}

func TestRevertRecordsNewVersion(t *testing.T) {
	v, _ := newTestVault(t)
	p, err := v.CreatePrompt("draft", "original", nil)
	require.NoError(t, err)
	_, err = v.EditPrompt(p.ID, "edited")
	require.NoError(t, err)

	p, err = v.RevertPrompt(p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "original", p.Content)
	assert.Equal(t, 3, p.CurrentVersion)
	assert.Len(t, p.Versions, 3)

	_, err = v.RevertPrompt(p.ID, 99)
	assert.ErrorIs(t, err, errs.ErrInvalidVersion)
}

func TestVersionsSurviveReopen(t *testing.T) {
	v, creds := newTestVault(t)
	p, err := v.CreatePrompt("draft", "v1", nil)
	require.NoError(t, err)
	_, err = v.EditPrompt(p.ID, "v2")
	require.NoError(t, err)

	reopened, err := Open(v.Path(), creds)
	require.NoError(t, err)
	got, err := reopened.GetPrompt(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentVersion)
	assert.Equal(t, "v1", got.Version(1).Content)
	assert.Equal(t, "v2", got.Content)
}

func TestFindPrompt(t *testing.T) {
	v, _ := newTestVault(t)
	p, err := v.CreatePrompt("Morning Brief", "...", nil)
	require.NoError(t, err)

	byID, err := v.FindPrompt(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byID.ID)

	byTitle, err := v.FindPrompt("morning brief")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byTitle.ID)

	_, err = v.FindPrompt("nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = v.CreatePrompt("Morning Brief", "other", nil)
	require.NoError(t, err)
	_, err = v.FindPrompt("Morning Brief")
	assert.ErrorIs(t, err, errs.ErrAmbiguous)
}

func TestListPromptsSortedAndDetached(t *testing.T) {
	v, _ := newTestVault(t)
	_, err := v.CreatePrompt("zebra", "z", nil)
	require.NoError(t, err)
	_, err = v.CreatePrompt("Apple", "a", nil)
	require.NoError(t, err)

	prompts := v.ListPrompts()
	require.Len(t, prompts, 2)
	assert.Equal(t, "Apple", prompts[0].Title)

	// Mutating a returned prompt must not leak into the vault.
	prompts[0].Content = "hacked"
	fresh, err := v.GetPrompt(prompts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "a", fresh.Content)
}

func TestDeletePrompt(t *testing.T) {
	v, _ := newTestVault(t)
	p, err := v.CreatePrompt("doomed", "x", nil)
	require.NoError(t, err)

	require.NoError(t, v.DeletePrompt(p.ID))
	_, err = v.GetPrompt(p.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, v.DeletePrompt(p.ID), errs.ErrNotFound)
}

func TestRotatePassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.pv")
	oldCreds := Credentials{Password: []byte("old")}
	v, err := Create(path, oldCreds)
	require.NoError(t, err)
	p, err := v.CreatePrompt("kept", "survives rotation", nil)
	require.NoError(t, err)

	newCreds := Credentials{Password: []byte("new")}
	require.NoError(t, v.Rotate(newCreds))

	_, err = Open(path, oldCreds)
	assert.ErrorIs(t, err, errs.ErrAuthenticationFailed)

	reopened, err := Open(path, newCreds)
	require.NoError(t, err)
	got, err := reopened.GetPrompt(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "survives rotation", got.Content)
}

func TestRotateKeyFileToPassword(t *testing.T) {
	v, oldCreds := newTestVault(t)
	_, err := v.CreatePrompt("kept", "x", nil)
	require.NoError(t, err)

	require.NoError(t, v.Rotate(Credentials{Password: []byte("pw")}))

	mode, _, err := InspectMode(v.Path())
	require.NoError(t, err)
	assert.Equal(t, KeyModePassword, mode)

	_, err = Open(v.Path(), oldCreds)
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	v, _ := newTestVault(t)
	_, err := v.CreatePrompt("Code Review", "Review this diff for {{lang}}", []string{"dev", "review"})
	require.NoError(t, err)
	_, err = v.CreatePrompt("Daily Standup", "Summarize REVIEW notes", []string{"dev"})
	require.NoError(t, err)

	hits, err := v.Search(Query{Text: "review"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Code Review", hits[0].Prompt.Title)

	hits, err = v.Search(Query{Text: "review", InTitle: true, InContent: true})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = v.Search(Query{Text: "REVIEW", InContent: true, CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Daily Standup", hits[0].Prompt.Title)

	hits, err = v.Search(Query{Tags: []string{"dev", "review"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Code Review", hits[0].Prompt.Title)

	hits, err = v.Search(Query{Text: `d.ff`, InContent: true, Regex: true})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = v.Search(Query{Text: `[`, Regex: true})
	assert.Error(t, err)
}

func TestBundleRoundTrip(t *testing.T) {
	v, _ := newTestVault(t)
	p1, err := v.CreatePrompt("one", "first", []string{"a"})
	require.NoError(t, err)
	_, err = v.EditPrompt(p1.ID, "first edited")
	require.NoError(t, err)
	_, err = v.CreatePrompt("two", "second", nil)
	require.NoError(t, err)

	data, err := SealBundle(v.ListPrompts(), []byte("transfer"))
	require.NoError(t, err)

	prompts, err := OpenBundle(data, []byte("transfer"))
	require.NoError(t, err)
	require.Len(t, prompts, 2)

	_, err = OpenBundle(data, []byte("wrong"))
	assert.ErrorIs(t, err, errs.ErrAuthenticationFailed)

	// Import into a fresh vault, then re-import: second pass adds nothing.
	dest, _ := newTestVault(t)
	added, err := dest.ImportPrompts(prompts)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	added, err = dest.ImportPrompts(prompts)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	got, err := dest.GetPrompt(p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "first edited", got.Content)
	assert.Equal(t, 2, got.CurrentVersion)
}

func TestKeyFileHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "key.bin")

	key, created, err := LoadOrGenerateKeyFile(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, key, crypto.KeySize)

	again, created, err := LoadOrGenerateKeyFile(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, key, again)
}

func TestStagedKeyFileLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "key.bin")
	key, _, err := LoadOrGenerateKeyFile(path)
	require.NoError(t, err)

	none, err := LoadStagedKeyFile(path)
	require.NoError(t, err)
	assert.Nil(t, none)

	staged, err := StageKeyFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, key, staged)

	// Staging never touches the primary key file.
	onDisk, created, err := LoadOrGenerateKeyFile(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, key, onDisk)

	loaded, err := LoadStagedKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, staged, loaded)

	require.NoError(t, CommitKeyFile(path))
	onDisk, _, err = LoadOrGenerateKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, staged, onDisk)
	none, err = LoadStagedKeyFile(path)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = StageKeyFile(path)
	require.NoError(t, err)
	require.NoError(t, DiscardStagedKeyFile(path))
	require.NoError(t, DiscardStagedKeyFile(path))
	none, err = LoadStagedKeyFile(path)
	require.NoError(t, err)
	assert.Nil(t, none)
}
