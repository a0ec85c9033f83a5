package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"keai-site/pkg/keai"
)

type fakeJSONStore struct {
	objects map[string][]byte
	getErr  error
	putErr  error
}

func newFakeJSONStore() *fakeJSONStore {
	return &fakeJSONStore{objects: make(map[string][]byte)}
}

func (f *fakeJSONStore) GetJSON(_ context.Context, key string, value any) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, exists := f.objects[key]
	if !exists {
		return false, nil
	}

	return true, json.Unmarshal(raw, value)
}

func (f *fakeJSONStore) PutJSON(_ context.Context, key string, value any) error {
	if f.putErr != nil {
		return f.putErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.objects[key] = raw

	return nil
}

func TestObjectBackedRoundTrip(t *testing.T) {
	t.Parallel()

	store := newFakeJSONStore()
	backend, err := NewObjectBacked(store, "")
	if err != nil {
		t.Fatalf("new object-backed cache: %v", err)
	}
	ctx := context.Background()

	if _, found, err := backend.Load(ctx); err != nil || found {
		t.Fatalf("empty backend: found=%v err=%v", found, err)
	}

	entry := keai.CacheEntry{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Records:   []keai.Post{{ID: "rec1", Title: "Stored"}},
	}
	if err := backend.Store(ctx, entry); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, exists := store.objects[DefaultObjectKey]; !exists {
		t.Fatalf("blob not written under default key; keys = %v", store.objects)
	}

	loaded, found, err := backend.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if !loaded.Timestamp.Equal(entry.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", loaded.Timestamp, entry.Timestamp)
	}
	if len(loaded.Records) != 1 || loaded.Records[0].ID != "rec1" {
		t.Fatalf("records = %+v", loaded.Records)
	}
}

func TestObjectBackedErrors(t *testing.T) {
	t.Parallel()

	store := newFakeJSONStore()
	store.getErr = errors.New("bucket unreachable")
	backend, err := NewObjectBacked(store, "custom/key.json")
	if err != nil {
		t.Fatalf("new object-backed cache: %v", err)
	}

	if _, _, err := backend.Load(context.Background()); err == nil {
		t.Fatal("Load swallowed the backend error")
	}

	store.getErr = nil
	store.putErr = errors.New("write denied")
	if err := backend.Store(context.Background(), keai.CacheEntry{}); err == nil {
		t.Fatal("Store swallowed the backend error")
	}

	if _, err := NewObjectBacked(nil, ""); err == nil {
		t.Fatal("nil store accepted")
	}
}

func TestMemoryLastWriteWins(t *testing.T) {
	t.Parallel()

	backend := NewMemory()
	ctx := context.Background()

	first := keai.CacheEntry{Records: []keai.Post{{ID: "first"}}}
	second := keai.CacheEntry{Records: []keai.Post{{ID: "second"}}}
	if err := backend.Store(ctx, first); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := backend.Store(ctx, second); err != nil {
		t.Fatalf("Store: %v", err)
	}

	entry, found, err := backend.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if entry.Records[0].ID != "second" {
		t.Fatalf("entry = %+v, want last write", entry.Records)
	}
}
