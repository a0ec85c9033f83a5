package cache

import (
	"context"
	"fmt"

	"keai-site/pkg/keai"
)

// DefaultObjectKey is the single key the listing blob lives under.
const DefaultObjectKey = "cache/board-listing.json"

// JSONObjectStore is the slice of the object store the cache backend needs.
type JSONObjectStore interface {
	// GetJSON loads one JSON object; a missing key is found=false, err=nil.
	GetJSON(ctx context.Context, key string, value any) (found bool, err error)
	// PutJSON overwrites one JSON object.
	PutJSON(ctx context.Context, key string, value any) error
}

// ObjectBacked stores the listing entry as one JSON blob in the object store.
//
// The blob is disposable: it is overwritten whole on every refresh and its
// loss degrades reads to direct record store fetches.
type ObjectBacked struct {
	store JSONObjectStore
	key   string
}

// NewObjectBacked builds an object-store-backed listing cache.
func NewObjectBacked(store JSONObjectStore, key string) (*ObjectBacked, error) {
	if store == nil {
		return nil, fmt.Errorf("new object-backed cache: nil object store")
	}
	if key == "" {
		key = DefaultObjectKey
	}

	return &ObjectBacked{store: store, key: key}, nil
}

// Load returns the stored entry, if any.
func (o *ObjectBacked) Load(ctx context.Context) (keai.CacheEntry, bool, error) {
	var entry keai.CacheEntry
	found, err := o.store.GetJSON(ctx, o.key, &entry)
	if err != nil {
		return keai.CacheEntry{}, false, fmt.Errorf("load listing entry: %w", err)
	}
	if !found {
		return keai.CacheEntry{}, false, nil
	}

	return entry, true, nil
}

// Store overwrites the stored entry, last-write-wins.
func (o *ObjectBacked) Store(ctx context.Context, entry keai.CacheEntry) error {
	if err := o.store.PutJSON(ctx, o.key, entry); err != nil {
		return fmt.Errorf("store listing entry: %w", err)
	}

	return nil
}

var _ keai.ListingCache = (*ObjectBacked)(nil)
