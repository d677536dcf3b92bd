package provider

import (
	"fmt"
	"os"

	"github.com/dpshade/prompt-vault/internal/config"
)

// Known backends and their conventional defaults.
var backendDefaults = map[string]struct {
	baseURL   string
	apiKeyEnv string
}{
	"openai":     {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"openrouter": {"https://openrouter.ai/api/v1", "OPENROUTER_API_KEY"},
	"ollama":     {"http://localhost:11434/v1", ""},
	"anthropic":  {"", "ANTHROPIC_API_KEY"},
}

// NewRegistryFromConfig builds providers from the config.toml providers
// table. A provider whose API key variable is unset fails fast here rather
// than mid-chain.
func NewRegistryFromConfig(providers map[string]config.ProviderConfig) (*Registry, error) {
	r := NewRegistry()
	for name, pc := range providers {
		p, err := build(name, pc)
		if err != nil {
			return nil, err
		}
		r.Register(p)
	}
	return r, nil
}

func build(name string, pc config.ProviderConfig) (Provider, error) {
	defaults, ok := backendDefaults[pc.Backend]
	if !ok {
		return nil, fmt.Errorf("provider %q: unknown backend %q", name, pc.Backend)
	}

	keyEnv := pc.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaults.apiKeyEnv
	}
	apiKey := ""
	if keyEnv != "" {
		apiKey = os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("provider %q: environment variable %s is not set", name, keyEnv)
		}
	}

	baseURL := pc.BaseURL
	if baseURL == "" {
		baseURL = defaults.baseURL
	}

	if pc.Backend == "anthropic" {
		return newAnthropicProvider(name, pc.Model, baseURL, apiKey), nil
	}
	return newOpenAIProvider(name, pc.Model, baseURL, apiKey), nil
}
