package vault

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/models"
)

// CreateChain stores a new chain definition and persists the vault. Chains
// are versioned like prompts: the serialized step list is the "content"
// recorded per version.
func (v *Vault) CreateChain(title string, vars map[string]string, steps []models.StepSpec) (*models.ChainDefinition, error) {
	if err := models.ValidateSteps(steps); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now().UTC()
	c := &models.ChainDefinition{
		ID:             newID(),
		Title:          title,
		Vars:           vars,
		Steps:          steps,
		CreatedAt:      now,
		UpdatedAt:      now,
		CurrentVersion: 1,
	}
	snap, err := marshalSteps(steps)
	if err != nil {
		return nil, err
	}
	c.Versions = []models.VersionRecord{{Version: 1, Content: snap, Timestamp: now}}

	v.data.Chains = append(v.data.Chains, c)
	if err := v.save(); err != nil {
		v.data.Chains = v.data.Chains[:len(v.data.Chains)-1]
		return nil, err
	}
	return cloneChain(c), nil
}

// GetChain returns the chain with the given id.
func (v *Vault) GetChain(id string) (*models.ChainDefinition, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c := v.chainByID(id)
	if c == nil {
		return nil, fmt.Errorf("chain %q: %w", id, errs.ErrNotFound)
	}
	return cloneChain(c), nil
}

// FindChain resolves an id or exact title (case-insensitive).
func (v *Vault) FindChain(ref string) (*models.ChainDefinition, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if c := v.chainByID(ref); c != nil {
		return cloneChain(c), nil
	}
	var hits []*models.ChainDefinition
	for _, c := range v.data.Chains {
		if strings.EqualFold(c.Title, ref) {
			hits = append(hits, c)
		}
	}
	switch len(hits) {
	case 0:
		return nil, fmt.Errorf("chain %q: %w", ref, errs.ErrNotFound)
	case 1:
		return cloneChain(hits[0]), nil
	default:
		return nil, fmt.Errorf("title %q: %w", ref, errs.ErrAmbiguous)
	}
}

// ListChains returns all chains sorted by title.
func (v *Vault) ListChains() []*models.ChainDefinition {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]*models.ChainDefinition, 0, len(v.data.Chains))
	for _, c := range v.data.Chains {
		out = append(out, cloneChain(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

// UpdateChain replaces a chain's step list and variables, recording the new
// step list as a fresh version. Broken step lists are rejected here so a
// stepwise edit never stores a chain that cannot run.
func (v *Vault) UpdateChain(id string, vars map[string]string, steps []models.StepSpec) (*models.ChainDefinition, error) {
	if err := models.ValidateSteps(steps); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	c := v.chainByID(id)
	if c == nil {
		return nil, fmt.Errorf("chain %q: %w", id, errs.ErrNotFound)
	}
	snap, err := marshalSteps(steps)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prev := *c
	c.Versions = append(c.Versions, models.VersionRecord{
		Version:   c.CurrentVersion + 1,
		Content:   snap,
		Timestamp: now,
	})
	c.CurrentVersion++
	c.Vars = vars
	c.Steps = steps
	c.UpdatedAt = now
	if err := v.save(); err != nil {
		*c = prev
		return nil, err
	}
	return cloneChain(c), nil
}

// AddChainStep appends one step to a chain.
func (v *Vault) AddChainStep(id string, step models.StepSpec) (*models.ChainDefinition, error) {
	c, err := v.GetChain(id)
	if err != nil {
		return nil, err
	}
	return v.UpdateChain(id, c.Vars, append(c.Steps, step))
}

// RemoveChainStep deletes the step with the given key from a chain.
func (v *Vault) RemoveChainStep(id, key string) (*models.ChainDefinition, error) {
	c, err := v.GetChain(id)
	if err != nil {
		return nil, err
	}
	steps := make([]models.StepSpec, 0, len(c.Steps))
	found := false
	for _, s := range c.Steps {
		if s.Key == key {
			found = true
			continue
		}
		steps = append(steps, s)
	}
	if !found {
		return nil, fmt.Errorf("chain %q has no step %q: %w", id, key, errs.ErrNotFound)
	}
	return v.UpdateChain(id, c.Vars, steps)
}

// DeleteChain removes a chain definition.
func (v *Vault) DeleteChain(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, c := range v.data.Chains {
		if c.ID == id {
			v.data.Chains = append(v.data.Chains[:i], v.data.Chains[i+1:]...)
			return v.save()
		}
	}
	return fmt.Errorf("chain %q: %w", id, errs.ErrNotFound)
}

func (v *Vault) chainByID(id string) *models.ChainDefinition {
	for _, c := range v.data.Chains {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func marshalSteps(steps []models.StepSpec) (string, error) {
	out, err := yaml.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to serialize steps: %w", err)
	}
	return string(out), nil
}

func cloneChain(c *models.ChainDefinition) *models.ChainDefinition {
	cp := *c
	cp.Steps = append([]models.StepSpec(nil), c.Steps...)
	cp.Versions = append([]models.VersionRecord(nil), c.Versions...)
	if c.Vars != nil {
		cp.Vars = make(map[string]string, len(c.Vars))
		for k, val := range c.Vars {
			cp.Vars[k] = val
		}
	}
	return &cp
}
