// Package gemini implements an llm.Provider backed by the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"keai-site/pkg/keai"
	"keai-site/pkg/llm"

	"google.golang.org/genai"
)

const defaultAPIVersion = "v1beta"

// ProviderConfig configures one Gemini-backed provider instance.
type ProviderConfig struct {
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// BaseURL optionally overrides the Gemini endpoint.
	BaseURL string
	// APIVersion optionally overrides Gemini API version.
	//
	// Zero defaults to v1beta.
	APIVersion string
}

// Provider is an llm.Provider backed by the Gemini generateContent API.
type Provider struct {
	models geminiModelsClient
}

type geminiModelsClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type normalizedProviderConfig struct {
	apiKey     string
	baseURL    string
	apiVersion string
}

// New builds one Gemini API provider instance.
func New(cfg ProviderConfig) (*Provider, error) {
	normalized, err := normalizeProviderConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("new gemini provider: %w", err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  normalized.apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    normalized.baseURL,
			APIVersion: normalized.apiVersion,
		},
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("new gemini client: models client is nil")
	}

	return &Provider{models: client.Models}, nil
}

// Generate runs one generation request and returns the full response text.
//
// Gemini API failures surface as keai.UpstreamError so callers can classify
// them by status code.
func (p *Provider) Generate(ctx context.Context, req llm.Request) (string, error) {
	if p == nil {
		return "", fmt.Errorf("gemini generate: nil provider")
	}
	if ctx == nil {
		return "", fmt.Errorf("gemini generate: nil context")
	}
	if p.models == nil {
		return "", fmt.Errorf("gemini generate: models client is nil")
	}
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("gemini generate validate request: %w", err)
	}

	config := mapGenerateRequest(req)

	response, err := p.models.GenerateContent(ctx, strings.TrimSpace(req.Model), genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", mapAPIError(err))
	}
	if response == nil {
		return "", fmt.Errorf("gemini generate: nil response")
	}

	text := response.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini generate: empty response text")
	}

	return text, nil
}

func mapGenerateRequest(req llm.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		// The prompts are plain business writing. Blocking categories only
		// produces spurious empty candidates.
		SafetySettings: permissiveSafetySettings(),
	}
	if req.Temperature > 0 {
		temperature := req.Temperature
		config.Temperature = &temperature
	}
	if req.TopK > 0 {
		topK := req.TopK
		config.TopK = &topK
	}
	if req.TopP > 0 {
		topP := req.TopP
		config.TopP = &topP
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	return config
}

func permissiveSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}

	return settings
}

func mapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &keai.UpstreamError{Service: "gemini", Status: apiErr.Code, Body: apiErr.Message}
	}

	return err
}

func normalizeProviderConfig(cfg ProviderConfig) (normalizedProviderConfig, error) {
	trimmedAPIKey := strings.TrimSpace(cfg.APIKey)
	if trimmedAPIKey == "" {
		return normalizedProviderConfig{}, fmt.Errorf("missing api_key")
	}

	trimmedBaseURL := strings.TrimSpace(cfg.BaseURL)
	if trimmedBaseURL != "" {
		parsed, err := url.Parse(trimmedBaseURL)
		if err != nil {
			return normalizedProviderConfig{}, fmt.Errorf("parse base_url: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return normalizedProviderConfig{}, fmt.Errorf("parse base_url: must include scheme and host")
		}
	}

	trimmedAPIVersion := strings.TrimSpace(cfg.APIVersion)
	if trimmedAPIVersion == "" {
		trimmedAPIVersion = defaultAPIVersion
	}
	if !isValidAPIVersion(trimmedAPIVersion) {
		return normalizedProviderConfig{}, fmt.Errorf("invalid api_version %q", cfg.APIVersion)
	}

	return normalizedProviderConfig{
		apiKey:     trimmedAPIKey,
		baseURL:    trimmedBaseURL,
		apiVersion: trimmedAPIVersion,
	}, nil
}

func isValidAPIVersion(raw string) bool {
	if raw == "" {
		return false
	}
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '-', '.', '_':
			continue
		default:
			return false
		}
	}
	return true
}

var _ llm.Provider = (*Provider)(nil)
