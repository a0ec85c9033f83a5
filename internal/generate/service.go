// Package generate produces board posts from an LLM provider with bounded
// retries and optional auto-save into the record store.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"keai-site/pkg/keai"
	"keai-site/pkg/llm"
)

const (
	defaultProviderKey    = "gemini"
	defaultModel          = "gemini-2.5-flash"
	defaultAttemptTimeout = 60 * time.Second
	defaultRetryInterval  = 2 * time.Second

	maxAttempts = 3

	defaultTemperature     = 0.7
	defaultTopK            = 40
	defaultTopP            = 0.95
	defaultMaxOutputTokens = 2048
)

// Invalidator triggers one background listing refresh after a write.
type Invalidator interface {
	InvalidateAfterWrite()
}

// Params is one generation request.
type Params struct {
	// Category selects the prompt guide and is required.
	Category string
	// Topic optionally fixes the subject; empty picks one guide topic.
	Topic string
	// CustomPrompt is an optional caller addendum to the prompt.
	CustomPrompt string
	// AutoSave stores the generated post as an unpublished draft.
	AutoSave bool
}

// Result is one generation outcome.
type Result struct {
	Post    GeneratedPost
	Saved   bool
	SavedID string
}

// Option customizes a Service.
type Option func(*Service)

// WithProvider selects the registry profile key used for generation.
func WithProvider(key string) Option {
	return func(s *Service) {
		if strings.TrimSpace(key) != "" {
			s.providerKey = key
		}
	}
}

// WithModel overrides the provider model name.
func WithModel(model string) Option {
	return func(s *Service) {
		if strings.TrimSpace(model) != "" {
			s.model = model
		}
	}
}

// WithAttemptTimeout bounds one provider call.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.attemptTimeout = timeout
		}
	}
}

// WithRetryInterval sets the pause between retry attempts.
func WithRetryInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.retryInterval = interval
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTopicPicker overrides random topic selection.
func WithTopicPicker(pick func(n int) int) Option {
	return func(s *Service) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// Service generates posts through the configured LLM provider.
type Service struct {
	registry    *llm.Registry
	store       keai.PostStore
	invalidator Invalidator

	providerKey    string
	model          string
	attemptTimeout time.Duration
	retryInterval  time.Duration
	logger         *slog.Logger
	pick           func(n int) int
}

// NewService builds a generation service.
//
// store and invalidator may be nil when auto-save is never requested.
func NewService(registry *llm.Registry, store keai.PostStore, invalidator Invalidator, options ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("new generate service: nil registry")
	}

	service := &Service{
		registry:       registry,
		store:          store,
		invalidator:    invalidator,
		providerKey:    defaultProviderKey,
		model:          defaultModel,
		attemptTimeout: defaultAttemptTimeout,
		retryInterval:  defaultRetryInterval,
		logger:         slog.Default(),
		pick:           rand.Intn,
	}
	for _, option := range options {
		option(service)
	}

	return service, nil
}

// Generate produces one post, retrying transient provider failures.
func (s *Service) Generate(ctx context.Context, params Params) (Result, error) {
	category := strings.TrimSpace(params.Category)
	if category == "" {
		return Result{}, keai.NewValidationError("category")
	}
	guide, known := categoryGuides[category]
	if !known {
		return Result{}, &keai.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", category)}
	}

	topic := strings.TrimSpace(params.Topic)
	if topic == "" && len(guide.Topics) > 0 {
		topic = guide.Topics[s.pick(len(guide.Topics))]
	}

	provider, err := s.registry.Resolve(s.providerKey)
	if err != nil {
		return Result{}, fmt.Errorf("generate post: %w", err)
	}

	prompt := buildPrompt(category, guide, topic, strings.TrimSpace(params.CustomPrompt))
	compact := buildCompactPrompt(category, topic)

	text, err := s.generateWithRetry(ctx, provider, prompt, compact)
	if err != nil {
		return Result{}, fmt.Errorf("generate post: %w", err)
	}

	result := Result{Post: parseGenerated(text)}

	if params.AutoSave {
		saved, err := s.save(ctx, result.Post)
		if err != nil {
			return Result{}, fmt.Errorf("generate post save: %w", err)
		}
		result.Saved = true
		result.SavedID = saved.ID
	}

	return result, nil
}

// generateWithRetry runs up to maxAttempts provider calls. The final attempt
// swaps to the compact prompt in case the full instruction is what trips the
// model or the quota.
func (s *Service) generateWithRetry(ctx context.Context, provider llm.Provider, prompt, compact string) (string, error) {
	var (
		text    string
		attempt int
	)

	operation := func() error {
		attempt++
		effective := prompt
		if attempt == maxAttempts {
			effective = compact
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()

		generated, err := provider.Generate(attemptCtx, llm.Request{
			Model:           s.model,
			Prompt:          effective,
			Temperature:     defaultTemperature,
			TopK:            defaultTopK,
			TopP:            defaultTopP,
			MaxOutputTokens: defaultMaxOutputTokens,
		})
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			s.logger.Warn("generation attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return err
		}

		text = generated
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryInterval), maxAttempts-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	return text, nil
}

// retryable reports whether a provider failure is worth another attempt:
// upstream 5xx, rate limiting, or an attempt timeout.
func retryable(err error) bool {
	if upstream, ok := keai.AsUpstreamError(err); ok {
		return upstream.Status == 429 || upstream.Status >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (s *Service) save(ctx context.Context, post GeneratedPost) (keai.Post, error) {
	if s.store == nil {
		return keai.Post{}, fmt.Errorf("no post store configured")
	}

	title := post.Title
	content := post.Content
	summary := post.Summary
	category := savedPostCategory
	published := false

	created, err := s.store.Create(ctx, keai.PostDraft{
		Title:     &title,
		Content:   &content,
		Summary:   &summary,
		Category:  &category,
		Published: &published,
	})
	if err != nil {
		return keai.Post{}, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateAfterWrite()
	}

	return created, nil
}
