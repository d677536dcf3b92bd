// Package provider abstracts the generation backends chain steps call out
// to. The executor only sees the one-method Provider interface and never
// branches on a concrete backend type.
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/dpshade/prompt-vault/internal/errs"
)

// Provider is a single completion capability. Implementations own their own
// timeout behavior; the executor treats a timeout like any other failure.
type Provider interface {
	// Name returns the registry key the provider was configured under.
	Name() string
	// Complete sends the rendered prompt to the backend and returns its text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Registry holds the configured providers keyed by name. A step that names
// no provider resolves to the default, when one is set.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry builds a registry over the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// SetDefault marks an already-registered provider as the fallback for
// lookups with an empty name.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("%q: %w", name, errs.ErrProviderNotFound)
	}
	r.defaultName = name
	return nil
}

// Get resolves a provider by name. An empty name resolves to the default
// provider when one is set.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		if r.defaultName == "" {
			return nil, fmt.Errorf("no default provider configured: %w", errs.ErrProviderNotFound)
		}
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, errs.ErrProviderNotFound)
	}
	return p, nil
}

// Names lists the configured provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of configured providers.
func (r *Registry) Len() int {
	return len(r.providers)
}
