package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"keai-site/pkg/keai"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePostStore struct {
	mu      sync.Mutex
	listing []keai.Post
	listErr error
	calls   int32
}

func (f *fakePostStore) ListPublished(context.Context) ([]keai.Post, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	return append([]keai.Post(nil), f.listing...), nil
}

func (f *fakePostStore) GetByID(context.Context, string) (keai.Post, error) {
	return keai.Post{}, keai.ErrNotFound
}

func (f *fakePostStore) Create(context.Context, keai.PostDraft) (keai.Post, error) {
	return keai.Post{}, nil
}

func (f *fakePostStore) Update(context.Context, string, keai.PostDraft) (keai.Post, error) {
	return keai.Post{}, nil
}

func (f *fakePostStore) Delete(context.Context, string) error { return nil }

func (f *fakePostStore) IncrementViews(context.Context, string, int) {}

type failingCache struct {
	loadErr  error
	storeErr error

	mu     sync.Mutex
	stored []keai.CacheEntry
}

func (f *failingCache) Load(context.Context) (keai.CacheEntry, bool, error) {
	return keai.CacheEntry{}, false, f.loadErr
}

func (f *failingCache) Store(_ context.Context, entry keai.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, entry)

	return f.storeErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postIDs(records []keai.Post) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	return ids
}

func listing(ids ...string) []keai.Post {
	posts := make([]keai.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, keai.Post{ID: id, Title: "post " + id, Slug: "post-" + id})
	}

	return posts
}

func newTestManager(t *testing.T, store keai.PostStore, backend keai.ListingCache, options ...Option) *Manager {
	t.Helper()

	options = append([]Option{WithLogger(discardLogger())}, options...)
	manager, err := NewManager(store, backend, options...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(manager.Wait)

	return manager
}

func TestGetListingCacheHit(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakePostStore{listing: listing("fresh")}
	backend := NewMemory()
	if err := backend.Store(context.Background(), keai.CacheEntry{
		Timestamp: now.Add(-time.Minute),
		Records:   listing("cached-b", "cached-a"),
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	manager := newTestManager(t, store, backend, WithClock(func() time.Time { return now }))

	result, err := manager.GetListing(context.Background(), false)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if !result.Cached {
		t.Fatal("fresh entry not served from cache")
	}
	// Hit must preserve the cached order verbatim and never touch the store.
	if diff := cmp.Diff([]string{"cached-b", "cached-a"}, postIDs(result.Records)); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}
	if calls := atomic.LoadInt32(&store.calls); calls != 0 {
		t.Fatalf("store called %d times on a cache hit", calls)
	}
}

func TestGetListingExpiredEntryIsMiss(t *testing.T) {
	t.Parallel()

	ttl := 300 * time.Second
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakePostStore{listing: listing("fresh")}
	backend := NewMemory()
	// Structurally valid blob, one second past the TTL.
	if err := backend.Store(context.Background(), keai.CacheEntry{
		Timestamp: now.Add(-301 * time.Second),
		Records:   listing("stale"),
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	manager := newTestManager(t, store, backend,
		WithTTL(ttl),
		WithClock(func() time.Time { return now }),
	)

	result, err := manager.GetListing(context.Background(), false)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if result.Cached {
		t.Fatal("expired entry served as a hit")
	}
	if diff := cmp.Diff([]string{"fresh"}, postIDs(result.Records)); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}
}

func TestGetListingForceBypassesFreshEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakePostStore{listing: listing("fresh")}
	backend := NewMemory()
	if err := backend.Store(context.Background(), keai.CacheEntry{
		Timestamp: now,
		Records:   listing("cached"),
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	manager := newTestManager(t, store, backend, WithClock(func() time.Time { return now }))

	result, err := manager.GetListing(context.Background(), true)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if result.Cached {
		t.Fatal("forced refresh served the cache")
	}

	manager.Wait()
	entry, found, err := backend.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("cache after forced refresh: found=%v err=%v", found, err)
	}
	// The cache is either untouched or fully replaced, never partial.
	if diff := cmp.Diff([]string{"fresh"}, postIDs(entry.Records)); diff != "" {
		t.Fatalf("cache content (-want +got):\n%s", diff)
	}
}

func TestGetListingAppliesPinning(t *testing.T) {
	t.Parallel()

	store := &fakePostStore{listing: listing("C", "A", "D", "B")}
	manager := newTestManager(t, store, NewMemory(), WithPinnedIDs([]string{"A", "B"}))

	result, err := manager.GetListing(context.Background(), false)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, postIDs(result.Records)); diff != "" {
		t.Fatalf("pinned order (-want +got):\n%s", diff)
	}
}

func TestGetListingStoreErrorPropagates(t *testing.T) {
	t.Parallel()

	upstream := &keai.UpstreamError{Service: "airtable", Status: 500, Body: "boom"}
	store := &fakePostStore{listErr: upstream}
	manager := newTestManager(t, store, NewMemory())

	_, err := manager.GetListing(context.Background(), false)
	if _, ok := keai.AsUpstreamError(err); !ok {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
}

func TestGetListingCacheLoadFailureDegradesToStore(t *testing.T) {
	t.Parallel()

	store := &fakePostStore{listing: listing("direct")}
	backend := &failingCache{loadErr: errors.New("bucket unreachable")}
	manager := newTestManager(t, store, backend)

	result, err := manager.GetListing(context.Background(), false)
	if err != nil {
		t.Fatalf("cache outage must not fail the read: %v", err)
	}
	if result.Cached {
		t.Fatal("unreachable cache reported a hit")
	}
	if diff := cmp.Diff([]string{"direct"}, postIDs(result.Records)); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}
}

func TestGetListingCacheStoreFailureIgnored(t *testing.T) {
	t.Parallel()

	store := &fakePostStore{listing: listing("fresh")}
	backend := &failingCache{storeErr: errors.New("write denied")}
	manager := newTestManager(t, store, backend)

	result, err := manager.GetListing(context.Background(), false)
	if err != nil {
		t.Fatalf("populate failure must not surface: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}

	manager.Wait()
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.stored) != 1 {
		t.Fatalf("populate attempts = %d, want 1", len(backend.stored))
	}
}

func TestInvalidateAfterWriteRefreshes(t *testing.T) {
	t.Parallel()

	store := &fakePostStore{listing: listing("after-write")}
	backend := NewMemory()
	manager := newTestManager(t, store, backend)

	manager.InvalidateAfterWrite()
	manager.Wait()

	entry, found, err := backend.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("cache after invalidate: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff([]string{"after-write"}, postIDs(entry.Records)); diff != "" {
		t.Fatalf("cache content (-want +got):\n%s", diff)
	}
	if calls := atomic.LoadInt32(&store.calls); calls != 1 {
		t.Fatalf("store calls = %d, want exactly 1", calls)
	}
}

func TestGetBySlug(t *testing.T) {
	t.Parallel()

	first := keai.Post{ID: "A", Title: "Shared Title", Slug: "shared-title"}
	second := keai.Post{ID: "B", Title: "Shared Title", Slug: "shared-title"}
	store := &fakePostStore{listing: []keai.Post{second, first}}

	// Pinning A first means A wins the slug collision.
	manager := newTestManager(t, store, NewMemory(), WithPinnedIDs([]string{"A"}))

	post, err := manager.GetBySlug(context.Background(), "shared-title")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if post.ID != "A" {
		t.Fatalf("collision winner = %s, want A (first in post-pinning order)", post.ID)
	}

	if _, err := manager.GetBySlug(context.Background(), "missing-slug"); !errors.Is(err, keai.ErrNotFound) {
		t.Fatalf("missing slug err = %v, want ErrNotFound", err)
	}
	if _, err := manager.GetBySlug(context.Background(), "  "); !keai.IsValidationError(err) {
		t.Fatalf("blank slug err = %v, want validation error", err)
	}
}

func TestGetListingConcurrentReaders(t *testing.T) {
	t.Parallel()

	store := &fakePostStore{listing: listing("only")}
	manager := newTestManager(t, store, NewMemory())

	var group sync.WaitGroup
	for reader := 0; reader < 8; reader++ {
		group.Add(1)
		go func() {
			defer group.Done()
			if _, err := manager.GetListing(context.Background(), false); err != nil {
				t.Errorf("concurrent GetListing: %v", err)
			}
		}()
	}
	group.Wait()
}
