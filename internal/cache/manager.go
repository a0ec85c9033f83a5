// Package cache implements the cache-aside listing cache.
//
// The record store stays authoritative at all times; the cache is a pure
// accelerator whose absence or expiry only costs one extra round trip.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"keai-site/pkg/keai"
)

// DefaultTTL bounds how stale a served listing can be.
const DefaultTTL = 5 * time.Minute

// Option mutates manager configuration.
type Option func(*Manager)

// WithTTL sets how long a cache entry stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(manager *Manager) {
		if ttl > 0 {
			manager.ttl = ttl
		}
	}
}

// WithPinnedIDs sets the ordered pin list applied to every listing.
func WithPinnedIDs(ids []string) Option {
	return func(manager *Manager) {
		manager.pinnedIDs = append([]string(nil), ids...)
	}
}

// WithLogger injects a logger, defaulting to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(manager *Manager) {
		if logger != nil {
			manager.logger = logger
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(manager *Manager) {
		if clock != nil {
			manager.clock = clock
		}
	}
}

// Manager decides whether a listing read is served from the cache or from the
// record store, and repopulates the cache after misses and writes.
//
// Safe for concurrent readers. No single-flight deduplication is attempted:
// concurrent readers missing at the same instant each fetch the store once,
// which bounds the redundancy to the TTL window.
type Manager struct {
	store     keai.PostStore
	cache     keai.ListingCache
	pinnedIDs []string
	ttl       time.Duration
	logger    *slog.Logger
	clock     func() time.Time

	background sync.WaitGroup
}

// NewManager builds a cache manager over one post store and one cache backend.
func NewManager(store keai.PostStore, cache keai.ListingCache, options ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("new cache manager: nil post store")
	}
	if cache == nil {
		return nil, fmt.Errorf("new cache manager: nil listing cache")
	}

	manager := &Manager{
		store:  store,
		cache:  cache,
		ttl:    DefaultTTL,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, option := range options {
		option(manager)
	}

	return manager, nil
}

// Result is one listing read outcome.
type Result struct {
	// Records is the pinned, ordered listing.
	Records []keai.Post
	// Cached reports whether the listing came from the cache backend.
	Cached bool
}

// GetListing returns the published listing.
//
// Without forceRefresh a fresh cache entry is served verbatim. On a miss,
// expiry, unreachable backend, or forced refresh, the listing is fetched from
// the record store once, returned immediately, and written back to the cache
// as a detached task whose failure is only logged. A record store failure
// propagates; there is no stale-on-error fallback.
func (m *Manager) GetListing(ctx context.Context, forceRefresh bool) (Result, error) {
	if !forceRefresh {
		entry, found, err := m.cache.Load(ctx)
		if err != nil {
			m.logger.WarnContext(ctx, "listing cache load failed", "error", err)
		}
		if err == nil && found && m.clock().Sub(entry.Timestamp) < m.ttl {
			return Result{Records: entry.Records, Cached: true}, nil
		}
	}

	fetched, err := m.store.ListPublished(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get listing: %w", err)
	}
	ordered := keai.ApplyPinning(fetched, m.pinnedIDs)

	m.spawn("populate listing cache", func(ctx context.Context) {
		m.populate(ctx, ordered)
	})

	return Result{Records: ordered, Cached: false}, nil
}

// GetBySlug resolves one post by its derived slug using the cache-accelerated
// listing. When two titles collide on the same slug, the first record in
// post-pinning listing order wins.
func (m *Manager) GetBySlug(ctx context.Context, slug string) (keai.Post, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return keai.Post{}, keai.NewValidationError("slug")
	}

	listing, err := m.GetListing(ctx, false)
	if err != nil {
		return keai.Post{}, fmt.Errorf("get by slug %s: %w", trimmed, err)
	}

	for _, post := range listing.Records {
		if post.Slug == trimmed {
			return post, nil
		}
	}

	return keai.Post{}, keai.ErrNotFound
}

// InvalidateAfterWrite schedules exactly one forced refresh cycle after a
// record store write. The write caller's response never waits for it.
func (m *Manager) InvalidateAfterWrite() {
	m.spawn("refresh listing cache", func(ctx context.Context) {
		if _, err := m.GetListing(ctx, true); err != nil {
			m.logger.Warn("post-write listing refresh failed", "error", err)
		}
	})
}

// Wait blocks until all detached cache tasks finish. Used on shutdown and in
// tests; request handlers never call it.
func (m *Manager) Wait() {
	m.background.Wait()
}

// populate overwrites the single cache entry with a fresh timestamped
// listing. Idempotent; concurrent callers race under last-write-wins.
func (m *Manager) populate(ctx context.Context, records []keai.Post) {
	entry := keai.CacheEntry{Timestamp: m.clock(), Records: records}
	if err := m.cache.Store(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "listing cache store failed", "error", err)
	}
}

// spawn runs fn detached from the caller's request lifetime, converting
// panics into logs so a cache task can never take the process down.
func (m *Manager) spawn(scope string, fn func(context.Context)) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		defer func() {
			if recovered := recover(); recovered != nil {
				m.logger.Error("background task panicked", "scope", scope, "panic", recovered)
			}
		}()

		fn(context.WithoutCancel(context.Background()))
	}()
}
