// Package config loads LLM provider profiles from JSON and builds the
// provider registry from them.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"keai-site/pkg/llm"
	"keai-site/pkg/llm/providers/gemini"
	"keai-site/pkg/llm/providers/openai"
)

const (
	providerTypeOpenAI = "openai"
	providerTypeGemini = "gemini"

	defaultGeminiAPIVersion = "v1beta"
)

// Config is the runtime LLM configuration model loaded from JSON.
type Config struct {
	// Providers contains provider profiles keyed by profile name.
	Providers map[string]ProviderProfile
}

// ProviderProfile describes one named provider profile.
type ProviderProfile struct {
	// Type identifies provider implementation kind (openai|gemini).
	Type string
	// APIKey is the provider credential.
	APIKey string
	// BaseURL optionally overrides provider API endpoint.
	BaseURL string
	// OpenAI carries OpenAI-specific options.
	OpenAI *OpenAIOptions
	// Gemini carries Gemini-specific options.
	Gemini *GeminiOptions
}

// OpenAIOptions carries OpenAI-specific profile options.
type OpenAIOptions struct {
	// Organization optionally scopes requests to one OpenAI organization.
	Organization string
	// Project optionally scopes requests to one OpenAI project.
	Project string
	// MaxRetries optionally overrides SDK retry count.
	MaxRetries *int
}

// GeminiOptions carries Gemini-specific profile options.
type GeminiOptions struct {
	// APIVersion selects the Gemini Developer API version.
	APIVersion string
}

type fileConfig struct {
	Providers map[string]fileProviderEntry `json:"providers"`
}

type fileProviderEntry struct {
	Type    string           `json:"type"`
	APIKey  string           `json:"api_key"`
	BaseURL string           `json:"base_url"`
	OpenAI  *fileOpenAIEntry `json:"openai"`
	Gemini  *fileGeminiEntry `json:"gemini"`
}

type fileOpenAIEntry struct {
	Organization string `json:"organization"`
	Project      string `json:"project"`
	MaxRetries   *int   `json:"max_retries"`
}

type fileGeminiEntry struct {
	APIVersion string `json:"api_version"`
}

type rootRaw struct {
	Providers json.RawMessage `json:"providers"`
}

// LoadFile reads and validates LLM provider configuration from path.
func LoadFile(path string) (Config, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Config{}, fmt.Errorf("load llm config: empty path")
	}

	data, err := os.ReadFile(trimmedPath)
	if err != nil {
		return Config{}, fmt.Errorf("load llm config read %s: %w", trimmedPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load llm config parse %s: %w", trimmedPath, err)
	}

	return cfg, nil
}

// Parse decodes and validates LLM provider configuration from raw JSON.
func Parse(data []byte) (Config, error) {
	if err := validateDuplicateProviderKeys(data); err != nil {
		return Config{}, err
	}

	var parsed fileConfig
	if err := decodeStrictJSON(data, &parsed); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Providers: make(map[string]ProviderProfile, len(parsed.Providers)),
	}

	for key, rawProvider := range parsed.Providers {
		profileKey := strings.TrimSpace(key)
		if profileKey == "" {
			return Config{}, fmt.Errorf("providers: empty provider key")
		}

		profile := parseProviderProfile(rawProvider)
		if err := validateProviderProfile(profileKey, profile); err != nil {
			return Config{}, fmt.Errorf("providers[%s]: %w", profileKey, err)
		}
		cfg.Providers[profileKey] = profile
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks configuration coherence.
func (cfg Config) Validate() error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("validate llm config: providers is required")
	}

	for key, profile := range cfg.Providers {
		profileKey := strings.TrimSpace(key)
		if profileKey == "" {
			return fmt.Errorf("validate llm config providers: empty provider key")
		}
		if err := validateProviderProfile(profileKey, profile); err != nil {
			return fmt.Errorf("validate llm config providers[%s]: %w", profileKey, err)
		}
	}

	return nil
}

// BuildRegistry constructs concrete providers for every configured profile.
func BuildRegistry(cfg Config) (*llm.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("build llm registry: %w", err)
	}

	providers := make(map[string]llm.Provider, len(cfg.Providers))
	for key, profile := range cfg.Providers {
		provider, err := buildProvider(profile)
		if err != nil {
			return nil, fmt.Errorf("build llm registry providers[%s]: %w", key, err)
		}
		providers[key] = provider
	}

	registry, err := llm.NewRegistry(providers)
	if err != nil {
		return nil, fmt.Errorf("build llm registry: %w", err)
	}

	return registry, nil
}

func buildProvider(profile ProviderProfile) (llm.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(profile.Type)) {
	case providerTypeGemini:
		apiVersion := defaultGeminiAPIVersion
		if profile.Gemini != nil && strings.TrimSpace(profile.Gemini.APIVersion) != "" {
			apiVersion = profile.Gemini.APIVersion
		}
		return gemini.New(gemini.ProviderConfig{
			APIKey:     profile.APIKey,
			BaseURL:    profile.BaseURL,
			APIVersion: apiVersion,
		})
	case providerTypeOpenAI:
		openaiConfig := openai.ProviderConfig{
			APIKey:  profile.APIKey,
			BaseURL: profile.BaseURL,
		}
		if profile.OpenAI != nil {
			openaiConfig.Organization = profile.OpenAI.Organization
			openaiConfig.Project = profile.OpenAI.Project
			openaiConfig.MaxRetries = cloneIntPointer(profile.OpenAI.MaxRetries)
		}
		return openai.New(openaiConfig)
	default:
		return nil, fmt.Errorf("unsupported type %q", profile.Type)
	}
}

func parseProviderProfile(raw fileProviderEntry) ProviderProfile {
	profile := ProviderProfile{
		Type:    strings.ToLower(strings.TrimSpace(raw.Type)),
		APIKey:  strings.TrimSpace(raw.APIKey),
		BaseURL: strings.TrimSpace(raw.BaseURL),
	}
	if raw.OpenAI != nil {
		profile.OpenAI = &OpenAIOptions{
			Organization: strings.TrimSpace(raw.OpenAI.Organization),
			Project:      strings.TrimSpace(raw.OpenAI.Project),
			MaxRetries:   cloneIntPointer(raw.OpenAI.MaxRetries),
		}
	}
	if raw.Gemini != nil {
		profile.Gemini = &GeminiOptions{
			APIVersion: strings.TrimSpace(raw.Gemini.APIVersion),
		}
	}

	if profile.Type == providerTypeGemini {
		if profile.Gemini == nil {
			profile.Gemini = &GeminiOptions{APIVersion: defaultGeminiAPIVersion}
		}
		if strings.TrimSpace(profile.Gemini.APIVersion) == "" {
			profile.Gemini.APIVersion = defaultGeminiAPIVersion
		}
	}

	return profile
}

func validateProviderProfile(profileKey string, profile ProviderProfile) error {
	if strings.TrimSpace(profileKey) == "" {
		return fmt.Errorf("empty provider key")
	}

	providerType := strings.ToLower(strings.TrimSpace(profile.Type))
	if providerType == "" {
		return fmt.Errorf("missing type")
	}

	switch providerType {
	case providerTypeOpenAI:
		if strings.TrimSpace(profile.APIKey) == "" {
			return fmt.Errorf("missing api_key")
		}
		if profile.Gemini != nil {
			return fmt.Errorf("gemini options are only supported for gemini providers")
		}
		if profile.OpenAI != nil && profile.OpenAI.MaxRetries != nil && *profile.OpenAI.MaxRetries < 0 {
			return fmt.Errorf("invalid openai options: max_retries must be >= 0")
		}
	case providerTypeGemini:
		if strings.TrimSpace(profile.APIKey) == "" {
			return fmt.Errorf("missing api_key")
		}
		if profile.OpenAI != nil {
			return fmt.Errorf("openai options are only supported for openai providers")
		}
	default:
		return fmt.Errorf("unsupported type %q", profile.Type)
	}

	if rawBaseURL := strings.TrimSpace(profile.BaseURL); rawBaseURL != "" {
		parsed, err := url.Parse(rawBaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid base_url: must include scheme and host")
		}
	}

	return nil
}

func validateDuplicateProviderKeys(data []byte) error {
	var raw rootRaw
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode root json: %w", err)
	}
	if len(raw.Providers) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	decoder := json.NewDecoder(bytes.NewReader(raw.Providers))
	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	delim, ok := token.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("providers: expected object")
	}

	for decoder.More() {
		rawKey, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("providers: %w", err)
		}
		key, ok := rawKey.(string)
		if !ok {
			return fmt.Errorf("providers: expected string key")
		}
		trimmedKey := strings.TrimSpace(key)
		if _, exists := seen[trimmedKey]; exists {
			return fmt.Errorf("providers: duplicate provider key %s", trimmedKey)
		}
		seen[trimmedKey] = struct{}{}

		var discard json.RawMessage
		if err := decoder.Decode(&discard); err != nil {
			return fmt.Errorf("providers[%s]: %w", trimmedKey, err)
		}
	}
	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("providers: %w", err)
	}

	return nil
}

func decodeStrictJSON(data []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("unexpected trailing content")
		}
		return fmt.Errorf("decode trailing json: %w", err)
	}

	return nil
}

func cloneIntPointer(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
