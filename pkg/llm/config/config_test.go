package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseProviderProfiles(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"providers": {
			"gemini-main": {
				"type": "gemini",
				"api_key": "gm-test"
			},
			"openai-fallback": {
				"type": "openai",
				"api_key": "sk-test",
				"base_url": "https://api.openai.com/v1",
				"openai": {
					"organization": "org-123",
					"max_retries": 2
				}
			}
		}
	}`)

	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	geminiProfile, exists := cfg.Providers["gemini-main"]
	if !exists {
		t.Fatal("expected gemini-main profile")
	}
	if geminiProfile.Gemini == nil || geminiProfile.Gemini.APIVersion != defaultGeminiAPIVersion {
		t.Fatalf("gemini api version = %+v, want default %s", geminiProfile.Gemini, defaultGeminiAPIVersion)
	}

	openaiProfile, exists := cfg.Providers["openai-fallback"]
	if !exists {
		t.Fatal("expected openai-fallback profile")
	}
	if openaiProfile.OpenAI == nil || openaiProfile.OpenAI.Organization != "org-123" {
		t.Fatalf("openai options = %+v, want organization org-123", openaiProfile.OpenAI)
	}
	if openaiProfile.OpenAI.MaxRetries == nil || *openaiProfile.OpenAI.MaxRetries != 2 {
		t.Fatalf("max retries = %v, want 2", openaiProfile.OpenAI.MaxRetries)
	}
}

func TestParseRejectsInvalidConfigs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		raw              string
		wantErrSubstring string
	}{
		{
			name:             "no providers",
			raw:              `{"providers": {}}`,
			wantErrSubstring: "providers is required",
		},
		{
			name: "unsupported type",
			raw: `{"providers": {"main": {
				"type": "anthropic",
				"api_key": "key"
			}}}`,
			wantErrSubstring: "unsupported type",
		},
		{
			name: "missing api key",
			raw: `{"providers": {"main": {
				"type": "gemini"
			}}}`,
			wantErrSubstring: "missing api_key",
		},
		{
			name: "openai options on gemini provider",
			raw: `{"providers": {"main": {
				"type": "gemini",
				"api_key": "key",
				"openai": {"project": "p"}
			}}}`,
			wantErrSubstring: "only supported for openai providers",
		},
		{
			name: "invalid base url",
			raw: `{"providers": {"main": {
				"type": "openai",
				"api_key": "key",
				"base_url": "not a url"
			}}}`,
			wantErrSubstring: "invalid base_url",
		},
		{
			name: "negative max retries",
			raw: `{"providers": {"main": {
				"type": "openai",
				"api_key": "key",
				"openai": {"max_retries": -1}
			}}}`,
			wantErrSubstring: "max_retries must be >= 0",
		},
		{
			name: "unknown field",
			raw: `{"providers": {"main": {
				"type": "openai",
				"api_key": "key",
				"model": "gpt-4o"
			}}}`,
			wantErrSubstring: "decode json",
		},
		{
			name: "duplicate provider key",
			raw: `{"providers": {
				"main": {"type": "openai", "api_key": "a"},
				"main": {"type": "gemini", "api_key": "b"}
			}}`,
			wantErrSubstring: "duplicate provider key",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(testCase.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), testCase.wantErrSubstring) {
				t.Fatalf("error = %v, want substring %q", err, testCase.wantErrSubstring)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "llm.json")
	raw := `{"providers": {"main": {"type": "gemini", "api_key": "gm-test"}}}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(cfg.Providers) != 1 {
		t.Fatalf("providers = %d, want 1", len(cfg.Providers))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadFile("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestBuildRegistry(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Providers: map[string]ProviderProfile{
			"gemini-main": {Type: "gemini", APIKey: "gm-test"},
			"openai-alt":  {Type: "openai", APIKey: "sk-test"},
		},
	}

	registry, err := BuildRegistry(cfg)
	if err != nil {
		t.Fatalf("BuildRegistry failed: %v", err)
	}
	if _, err := registry.Resolve("gemini-main"); err != nil {
		t.Fatalf("resolve gemini-main: %v", err)
	}
	if _, err := registry.Resolve("openai-alt"); err != nil {
		t.Fatalf("resolve openai-alt: %v", err)
	}
	if _, err := registry.Resolve("unknown"); err == nil {
		t.Fatal("expected error for unknown provider")
	}

	if _, err := BuildRegistry(Config{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}
