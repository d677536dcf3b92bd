package vault

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/models"
)

// newID returns a short unique identifier. Eight hex characters of a UUID
// keep ids typeable on the command line.
func newID() string {
	return uuid.NewString()[:8]
}

// CreatePrompt stores a new prompt at version 1 and persists the vault.
func (v *Vault) CreatePrompt(title, content string, tags []string) (*models.Prompt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now().UTC()
	p := &models.Prompt{
		ID:             newID(),
		Title:          title,
		Content:        content,
		Tags:           tags,
		CreatedAt:      now,
		UpdatedAt:      now,
		CurrentVersion: 1,
		Versions: []models.VersionRecord{
			{Version: 1, Content: content, Timestamp: now},
		},
	}
	v.data.Prompts = append(v.data.Prompts, p)
	if err := v.save(); err != nil {
		v.data.Prompts = v.data.Prompts[:len(v.data.Prompts)-1]
		return nil, err
	}
	return clonePrompt(p), nil
}

// GetPrompt returns the prompt with the given id.
func (v *Vault) GetPrompt(id string) (*models.Prompt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.promptByID(id)
	if p == nil {
		return nil, fmt.Errorf("prompt %q: %w", id, errs.ErrNotFound)
	}
	return clonePrompt(p), nil
}

// FindPrompt resolves a reference that may be an id or an exact title
// (case-insensitive). A title matching several prompts is an error.
func (v *Vault) FindPrompt(ref string) (*models.Prompt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if p := v.promptByID(ref); p != nil {
		return clonePrompt(p), nil
	}
	var hits []*models.Prompt
	for _, p := range v.data.Prompts {
		if strings.EqualFold(p.Title, ref) {
			hits = append(hits, p)
		}
	}
	switch len(hits) {
	case 0:
		return nil, fmt.Errorf("prompt %q: %w", ref, errs.ErrNotFound)
	case 1:
		return clonePrompt(hits[0]), nil
	default:
		return nil, fmt.Errorf("title %q: %w", ref, errs.ErrAmbiguous)
	}
}

// ListPrompts returns all prompts sorted by title.
func (v *Vault) ListPrompts() []*models.Prompt {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]*models.Prompt, 0, len(v.data.Prompts))
	for _, p := range v.data.Prompts {
		out = append(out, clonePrompt(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

// EditPrompt replaces the prompt's content, recording the new content as a
// fresh version. Identical content is a no-op that leaves history untouched.
func (v *Vault) EditPrompt(id, content string) (*models.Prompt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.promptByID(id)
	if p == nil {
		return nil, fmt.Errorf("prompt %q: %w", id, errs.ErrNotFound)
	}
	if p.Content == content {
		return clonePrompt(p), nil
	}
	if err := v.applyEdit(p, content); err != nil {
		return nil, err
	}
	return clonePrompt(p), nil
}

// RevertPrompt sets the prompt's content to a historical snapshot. The
// revert itself is recorded as a new version; history is never truncated.
func (v *Vault) RevertPrompt(id string, version int) (*models.Prompt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.promptByID(id)
	if p == nil {
		return nil, fmt.Errorf("prompt %q: %w", id, errs.ErrNotFound)
	}
	rec := p.Version(version)
	if rec == nil {
		return nil, fmt.Errorf("prompt %q has no version %d: %w", id, version, errs.ErrInvalidVersion)
	}
	if err := v.applyEdit(p, rec.Content); err != nil {
		return nil, err
	}
	return clonePrompt(p), nil
}

// RenamePrompt changes the title without touching content or history.
func (v *Vault) RenamePrompt(id, title string) (*models.Prompt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.promptByID(id)
	if p == nil {
		return nil, fmt.Errorf("prompt %q: %w", id, errs.ErrNotFound)
	}
	old := p.Title
	p.Title = title
	p.UpdatedAt = time.Now().UTC()
	if err := v.save(); err != nil {
		p.Title = old
		return nil, err
	}
	return clonePrompt(p), nil
}

// SetPromptTags replaces the prompt's tag set.
func (v *Vault) SetPromptTags(id string, tags []string) (*models.Prompt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.promptByID(id)
	if p == nil {
		return nil, fmt.Errorf("prompt %q: %w", id, errs.ErrNotFound)
	}
	old := p.Tags
	p.Tags = tags
	p.UpdatedAt = time.Now().UTC()
	if err := v.save(); err != nil {
		p.Tags = old
		return nil, err
	}
	return clonePrompt(p), nil
}

// DeletePrompt removes a prompt and its history.
func (v *Vault) DeletePrompt(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, p := range v.data.Prompts {
		if p.ID == id {
			v.data.Prompts = append(v.data.Prompts[:i], v.data.Prompts[i+1:]...)
			return v.save()
		}
	}
	return fmt.Errorf("prompt %q: %w", id, errs.ErrNotFound)
}

// ImportPrompts adds prompts from an export bundle, skipping ids that
// already exist. It returns the number imported and persists once.
func (v *Vault) ImportPrompts(prompts []*models.Prompt) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	added := 0
	for _, p := range prompts {
		if v.promptByID(p.ID) != nil {
			continue
		}
		v.data.Prompts = append(v.data.Prompts, clonePrompt(p))
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := v.save(); err != nil {
		v.data.Prompts = v.data.Prompts[:len(v.data.Prompts)-added]
		return 0, err
	}
	return added, nil
}

// applyEdit snapshots content as the next version and persists. Callers
// hold v.mu and have validated the prompt.
func (v *Vault) applyEdit(p *models.Prompt, content string) error {
	now := time.Now().UTC()
	next := p.CurrentVersion + 1
	prev := *p // shallow copy for rollback
	p.Versions = append(p.Versions, models.VersionRecord{
		Version:   next,
		Content:   content,
		Timestamp: now,
	})
	p.CurrentVersion = next
	p.Content = content
	p.UpdatedAt = now
	if err := v.save(); err != nil {
		*p = prev
		return err
	}
	return nil
}

func (v *Vault) promptByID(id string) *models.Prompt {
	for _, p := range v.data.Prompts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func clonePrompt(p *models.Prompt) *models.Prompt {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Versions = append([]models.VersionRecord(nil), p.Versions...)
	return &cp
}
