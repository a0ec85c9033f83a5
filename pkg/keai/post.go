package keai

import (
	"context"
	"time"
)

// Post is one board article owned by the record store.
//
// Slug and Pinned are derived at read time and never written back upstream.
type Post struct {
	// ID is the opaque record id assigned by the record store.
	ID string `json:"id"`
	// Title is the article headline.
	Title string `json:"title"`
	// Content is the article body.
	Content string `json:"content"`
	// Summary is a short teaser shown in listings.
	Summary string `json:"summary"`
	// Category is the board category label.
	Category string `json:"category"`
	// ThumbnailURL optionally points at a thumbnail object.
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	// PublishedOn is the calendar date the article was authored (YYYY-MM-DD).
	PublishedOn string `json:"publishedOn"`
	// Views counts detail reads, incremented best-effort.
	Views int `json:"views"`
	// Published controls public visibility.
	Published bool `json:"published"`
	// Slug is derived from Title and never persisted.
	Slug string `json:"slug"`
	// Pinned is derived from the configured pin list and never persisted.
	Pinned bool `json:"pinned"`
}

// PostDraft carries explicitly provided fields for create and update calls.
//
// Nil pointers mean the field was not provided and must be left untouched
// upstream.
type PostDraft struct {
	Title        *string
	Content      *string
	Summary      *string
	Category     *string
	ThumbnailURL *string
	PublishedOn  *string
	Published    *bool
}

// PostStore is the authoritative adapter over the hosted tabular datastore.
type PostStore interface {
	// ListPublished returns visible posts, newest first, capped at one page.
	ListPublished(ctx context.Context) ([]Post, error)
	// GetByID returns one visible post or ErrNotFound.
	//
	// An existing record with Published=false is reported as ErrNotFound so
	// unpublished content cannot be enumerated by id.
	GetByID(ctx context.Context, id string) (Post, error)
	// Create inserts a new post from explicitly provided draft fields.
	Create(ctx context.Context, draft PostDraft) (Post, error)
	// Update patches only the provided draft fields.
	Update(ctx context.Context, id string, draft PostDraft) (Post, error)
	// Delete removes the record permanently.
	Delete(ctx context.Context, id string) error
	// IncrementViews bumps the view counter best-effort.
	//
	// Failures are logged by the implementation and never returned.
	IncrementViews(ctx context.Context, id string, current int)
}

// CacheEntry is the single serialized listing blob held by the object cache.
//
// An entry is valid for reads iff now-Timestamp is under the manager's TTL.
type CacheEntry struct {
	// Timestamp records when the listing was fetched from the record store.
	Timestamp time.Time `json:"timestamp"`
	// Records is the pinned, ordered listing at Timestamp.
	Records []Post `json:"records"`
}

// ListingCache stores and loads the single listing cache entry.
//
// Implementations must be concurrency-safe; concurrent writers race under
// last-write-wins because the cache is never authoritative.
type ListingCache interface {
	// Load returns the current entry. When no entry exists, found is false
	// and err is nil.
	Load(ctx context.Context) (entry CacheEntry, found bool, err error)
	// Store overwrites the entry atomically from the caller's perspective.
	Store(ctx context.Context, entry CacheEntry) error
}
