// Package llm abstracts one-shot text generation behind a neutral provider
// interface so handlers never see provider-specific transports.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider exposes one blocking text generation operation.
//
// Implementations must be concurrency-safe; handlers resolve providers from
// parallel requests.
type Provider interface {
	// Generate runs one generation request and returns the full text.
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is one provider-neutral generation request.
type Request struct {
	// Model is the provider-specific model name.
	Model string
	// Prompt is the full prompt text.
	Prompt string
	// Temperature controls sampling randomness.
	Temperature float32
	// TopK limits sampling to the K most likely tokens, when supported.
	TopK float32
	// TopP nucleus-samples within the given probability mass.
	TopP float32
	// MaxOutputTokens caps the generated length.
	MaxOutputTokens int
}

// Validate checks one request contract.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("validate llm request: missing model")
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("validate llm request: missing prompt")
	}

	return nil
}

// Registry resolves configured providers by stable profile key.
//
// The provider map is copied on construction and remains immutable afterward,
// so Resolve is concurrency-safe.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry constructs one immutable provider registry.
func NewRegistry(providers map[string]Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("new llm provider registry: empty providers")
	}

	cloned := make(map[string]Provider, len(providers))
	for key, provider := range providers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("new llm provider registry: empty provider key")
		}
		if provider == nil {
			return nil, fmt.Errorf("new llm provider registry: provider %s is nil", trimmedKey)
		}
		if _, exists := cloned[trimmedKey]; exists {
			return nil, fmt.Errorf("new llm provider registry: duplicate provider key %s", trimmedKey)
		}
		cloned[trimmedKey] = provider
	}

	return &Registry{providers: cloned}, nil
}

// Resolve returns one configured provider by key.
func (r *Registry) Resolve(provider string) (Provider, error) {
	if r == nil {
		return nil, fmt.Errorf("resolve llm provider: nil registry")
	}

	trimmed := strings.TrimSpace(provider)
	if trimmed == "" {
		return nil, fmt.Errorf("resolve llm provider: empty provider key")
	}

	resolved, exists := r.providers[trimmed]
	if !exists {
		return nil, fmt.Errorf("resolve llm provider: provider %s is not configured", trimmed)
	}

	return resolved, nil
}
