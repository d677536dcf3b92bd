package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/prompt-vault/internal/config"
	"github.com/dpshade/prompt-vault/internal/errs"
)

type staticProvider struct{ name string }

func (s *staticProvider) Name() string { return s.name }

func (s *staticProvider) Complete(context.Context, string) (string, error) {
	return s.name + " output", nil
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(&staticProvider{name: "fast"}, &staticProvider{name: "thorough"})

	p, err := r.Get("fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", p.Name())

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, errs.ErrProviderNotFound)

	assert.Equal(t, []string{"fast", "thorough"}, r.Names())
	assert.Equal(t, 2, r.Len())
}

func TestRegistryDefault(t *testing.T) {
	r := NewRegistry(&staticProvider{name: "fast"})

	_, err := r.Get("")
	assert.ErrorIs(t, err, errs.ErrProviderNotFound)

	assert.ErrorIs(t, r.SetDefault("missing"), errs.ErrProviderNotFound)
	require.NoError(t, r.SetDefault("fast"))

	p, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "fast", p.Name())
}

func TestOpenAIProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "reply to " + req.Messages[0].Content}}},
		})
	}))
	defer srv.Close()

	p := newOpenAIProvider("fast", "test-model", srv.URL, "sk-test")
	out, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "reply to hello", out)
}

func TestOpenAIProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newOpenAIProvider("fast", "m", srv.URL, "k")
	_, err := p.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAnthropicProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "thinking", "text": "..."},
				{"type": "text", "text": "claude says hi"},
			},
		})
	}))
	defer srv.Close()

	p := newAnthropicProvider("claude", "model", srv.URL, "sk-ant")
	out, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "claude says hi", out)
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "sk-test")

	reg, err := NewRegistryFromConfig(map[string]config.ProviderConfig{
		"fast": {Backend: "openai", Model: "gpt-4o-mini", APIKeyEnv: "TEST_PROVIDER_KEY"},
		"local": {Backend: "ollama", Model: "llama3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	_, err = NewRegistryFromConfig(map[string]config.ProviderConfig{
		"bad": {Backend: "telepathy"},
	})
	assert.Error(t, err)

	_, err = NewRegistryFromConfig(map[string]config.ProviderConfig{
		"nokey": {Backend: "openai", APIKeyEnv: "UNSET_PROVIDER_KEY"},
	})
	assert.Error(t, err)
}
