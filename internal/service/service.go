// Package service is the orchestration facade behind the CLI and the
// interactive browser: it owns the open vault, the provider registry, and
// the render/run entry points.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/dpshade/prompt-vault/internal/chain"
	"github.com/dpshade/prompt-vault/internal/config"
	"github.com/dpshade/prompt-vault/internal/logging"
	"github.com/dpshade/prompt-vault/internal/models"
	"github.com/dpshade/prompt-vault/internal/provider"
	"github.com/dpshade/prompt-vault/internal/renderer"
	"github.com/dpshade/prompt-vault/internal/vault"
)

// Service wires the vault, renderer, chain executor, and providers together.
type Service struct {
	cfg      *config.Config
	vault    *vault.Vault
	registry *provider.Registry
	log      logging.Logger
}

// New builds a service over an already-open vault. The provider registry is
// built from config; a config with no providers still yields a working
// service for render-only use.
func New(cfg *config.Config, v *vault.Vault, log logging.Logger) (*Service, error) {
	registry, err := provider.NewRegistryFromConfig(cfg.Providers)
	if err != nil {
		return nil, err
	}
	switch {
	case cfg.DefaultProvider != "":
		if err := registry.SetDefault(cfg.DefaultProvider); err != nil {
			return nil, err
		}
	case registry.Len() == 1:
		// A single configured backend serves provider-less steps.
		if err := registry.SetDefault(registry.Names()[0]); err != nil {
			return nil, err
		}
	}
	return &Service{cfg: cfg, vault: v, registry: registry, log: log}, nil
}

// Vault exposes the open vault for CRUD operations.
func (s *Service) Vault() *vault.Vault {
	return s.vault
}

// Registry exposes the configured providers.
func (s *Service) Registry() *provider.Registry {
	return s.registry
}

// RenderPrompt resolves a prompt by id or title and fills its placeholders.
func (s *Service) RenderPrompt(ref string, vars map[string]string) (string, error) {
	p, err := s.vault.FindPrompt(ref)
	if err != nil {
		return "", err
	}
	return renderer.Render(p.Content, vars)
}

// RunPrompt renders a prompt and, when providerName is set, sends the
// rendered text to that backend. With no provider it returns the rendered
// text itself, which makes `run` usable without any configuration.
func (s *Service) RunPrompt(ctx context.Context, ref string, vars map[string]string, providerName string) (string, error) {
	rendered, err := s.RenderPrompt(ref, vars)
	if err != nil {
		return "", err
	}
	if providerName == "" {
		return rendered, nil
	}
	p, err := s.registry.Get(providerName)
	if err != nil {
		return "", err
	}
	return p.Complete(ctx, rendered)
}

// RunChain executes a chain definition. Variables from the definition are
// overlaid with overrides; mode picks strict or best-effort failure
// handling. Stored prompt references resolve against a snapshot of the
// vault taken for this run.
func (s *Service) RunChain(ctx context.Context, def *models.ChainDefinition, overrides map[string]string, opts chain.Options) (*chain.Result, error) {
	vars := make(map[string]string, len(def.Vars)+len(overrides))
	for k, v := range def.Vars {
		vars[k] = v
	}
	for k, v := range overrides {
		vars[k] = v
	}
	exec := chain.NewExecutor(&vaultSource{vault: s.vault}, s.registry, s.log)
	return exec.Execute(ctx, def.Steps, vars, opts)
}

// RunChainByRef loads a stored chain by id or title and executes it.
func (s *Service) RunChainByRef(ctx context.Context, ref string, overrides map[string]string, opts chain.Options) (*chain.Result, error) {
	def, err := s.vault.FindChain(ref)
	if err != nil {
		return nil, err
	}
	return s.RunChain(ctx, def, overrides, opts)
}

// SearchPrompts fuzzy-matches a free-form query against title, tags, and
// content, returning best matches first. An empty query lists everything.
func (s *Service) SearchPrompts(query string) []*models.Prompt {
	prompts := s.vault.ListPrompts()
	if query == "" {
		return prompts
	}

	searchStrings := make([]string, len(prompts))
	for i, p := range prompts {
		searchStrings[i] = fmt.Sprintf("%s %s %s", p.Title, strings.Join(p.Tags, " "), p.Content)
	}
	matches := fuzzy.Find(query, searchStrings)

	results := make([]*models.Prompt, 0, len(matches))
	for _, m := range matches {
		results = append(results, prompts[m.Index])
	}
	return results
}

// Stats summarizes the vault contents.
type Stats struct {
	Prompts  int
	Chains   int
	Versions int
	TopTags  []TagCount
}

// TagCount pairs a tag with how many prompts carry it.
type TagCount struct {
	Tag   string
	Count int
}

// Stats counts prompts, chains, stored versions, and tag usage.
func (s *Service) Stats() Stats {
	stats := Stats{}
	tagCounts := make(map[string]int)
	for _, p := range s.vault.ListPrompts() {
		stats.Prompts++
		stats.Versions += len(p.Versions)
		for _, t := range p.Tags {
			tagCounts[strings.ToLower(t)]++
		}
	}
	for _, c := range s.vault.ListChains() {
		stats.Chains++
		stats.Versions += len(c.Versions)
	}
	for tag, n := range tagCounts {
		stats.TopTags = append(stats.TopTags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		if stats.TopTags[i].Count != stats.TopTags[j].Count {
			return stats.TopTags[i].Count > stats.TopTags[j].Count
		}
		return stats.TopTags[i].Tag < stats.TopTags[j].Tag
	})
	return stats
}

// ExportPrompts seals selected prompts (all, when ids is empty) into a
// transfer bundle under passphrase.
func (s *Service) ExportPrompts(ids []string, passphrase []byte) ([]byte, error) {
	var prompts []*models.Prompt
	if len(ids) == 0 {
		prompts = s.vault.ListPrompts()
	} else {
		for _, id := range ids {
			p, err := s.vault.GetPrompt(id)
			if err != nil {
				return nil, err
			}
			prompts = append(prompts, p)
		}
	}
	return vault.SealBundle(prompts, passphrase)
}

// ImportPrompts opens a transfer bundle and adds its prompts, skipping ids
// already present. It returns how many were added.
func (s *Service) ImportPrompts(data, passphrase []byte) (int, error) {
	prompts, err := vault.OpenBundle(data, passphrase)
	if err != nil {
		return 0, err
	}
	return s.vault.ImportPrompts(prompts)
}

// vaultSource adapts the vault to the executor's PromptSource, caching each
// resolved reference so every attempt within one run sees the same content
// even if the vault were edited concurrently.
type vaultSource struct {
	vault *vault.Vault

	mu    sync.Mutex
	cache map[string]string
}

func (vs *vaultSource) PromptContent(ref string) (string, error) {
	vs.mu.Lock()
	if content, ok := vs.cache[ref]; ok {
		vs.mu.Unlock()
		return content, nil
	}
	vs.mu.Unlock()

	p, err := vs.vault.FindPrompt(ref)
	if err != nil {
		return "", err
	}

	vs.mu.Lock()
	if vs.cache == nil {
		vs.cache = make(map[string]string)
	}
	vs.cache[ref] = p.Content
	vs.mu.Unlock()
	return p.Content, nil
}
