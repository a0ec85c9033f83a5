package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"keai-site/pkg/keai"
	"keai-site/pkg/llm"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

func TestNewOpenAIProviderConfigValidation(t *testing.T) {
	t.Parallel()

	negative := -1

	tests := []struct {
		name             string
		cfg              ProviderConfig
		wantErrSubstring string
	}{
		{
			name: "valid config",
			cfg: ProviderConfig{
				APIKey:  "sk-test",
				BaseURL: "https://api.openai.com/v1",
			},
		},
		{
			name: "missing api key",
			cfg: ProviderConfig{
				APIKey: "   ",
			},
			wantErrSubstring: "missing api_key",
		},
		{
			name: "invalid base url",
			cfg: ProviderConfig{
				APIKey:  "sk-test",
				BaseURL: "not a url",
			},
			wantErrSubstring: "parse base_url",
		},
		{
			name: "negative max retries",
			cfg: ProviderConfig{
				APIKey:     "sk-test",
				MaxRetries: &negative,
			},
			wantErrSubstring: "max_retries",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			provider, err := New(testCase.cfg)
			if testCase.wantErrSubstring != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), testCase.wantErrSubstring) {
					t.Fatalf("error = %v, want substring %q", err, testCase.wantErrSubstring)
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if provider == nil {
				t.Fatal("expected provider instance")
			}
		})
	}
}

type fakeCompletionsClient struct {
	lastParams openai.ChatCompletionNewParams
	completion *openai.ChatCompletion
	err        error
}

func (f *fakeCompletionsClient) New(
	_ context.Context,
	body openai.ChatCompletionNewParams,
	_ ...option.RequestOption,
) (*openai.ChatCompletion, error) {
	f.lastParams = body
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

func completionWith(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func TestOpenAIProviderGenerate(t *testing.T) {
	t.Parallel()

	completions := &fakeCompletionsClient{completion: completionWith("generated body")}
	provider := &Provider{completions: completions}

	text, err := provider.Generate(context.Background(), llm.Request{
		Model:           "gpt-4o-mini",
		Prompt:          "write a notice",
		Temperature:     0.7,
		MaxOutputTokens: 1024,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "generated body" {
		t.Fatalf("text = %q, want %q", text, "generated body")
	}
	if completions.lastParams.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want %q", completions.lastParams.Model, "gpt-4o-mini")
	}
	if len(completions.lastParams.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(completions.lastParams.Messages))
	}
	if !completions.lastParams.Temperature.Valid() {
		t.Fatal("expected temperature to be set")
	}
	if !completions.lastParams.MaxCompletionTokens.Valid() {
		t.Fatal("expected max completion tokens to be set")
	}
}

func TestOpenAIProviderGenerateValidation(t *testing.T) {
	t.Parallel()

	provider := &Provider{completions: &fakeCompletionsClient{completion: completionWith("ok")}}

	if _, err := provider.Generate(context.Background(), llm.Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for missing model")
	}
	if _, err := provider.Generate(context.Background(), llm.Request{Model: "gpt-4o-mini"}); err == nil {
		t.Fatal("expected error for missing prompt")
	}
}

func TestOpenAIProviderGenerateNoChoices(t *testing.T) {
	t.Parallel()

	provider := &Provider{completions: &fakeCompletionsClient{completion: &openai.ChatCompletion{}}}

	_, err := provider.Generate(context.Background(), llm.Request{
		Model:  "gpt-4o-mini",
		Prompt: "write a notice",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("error = %v, want no choices", err)
	}
}

func TestOpenAIProviderGenerateMapsAPIError(t *testing.T) {
	t.Parallel()

	apiErr := &openai.Error{StatusCode: 503, Message: "overloaded"}
	provider := &Provider{completions: &fakeCompletionsClient{err: apiErr}}

	_, err := provider.Generate(context.Background(), llm.Request{
		Model:  "gpt-4o-mini",
		Prompt: "write a notice",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var upstream *keai.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if upstream.Service != "openai" {
		t.Fatalf("service = %q, want openai", upstream.Service)
	}
	if upstream.Status != 503 {
		t.Fatalf("status = %d, want 503", upstream.Status)
	}
}
