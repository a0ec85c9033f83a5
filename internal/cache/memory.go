package cache

import (
	"context"
	"sync"

	"keai-site/pkg/keai"
)

// Memory is an in-process listing cache.
//
// In a serverless deployment the process may be recycled between invocations,
// so this backend is best-effort only: its presence changes latency, never
// correctness. It also serves as the fake backend in tests.
type Memory struct {
	mu      sync.RWMutex
	entry   keai.CacheEntry
	present bool
}

// NewMemory builds an empty in-memory listing cache.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the current entry, if any.
func (m *Memory) Load(_ context.Context) (keai.CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.present {
		return keai.CacheEntry{}, false, nil
	}

	return m.entry, true, nil
}

// Store overwrites the entry, last-write-wins.
func (m *Memory) Store(_ context.Context, entry keai.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entry = entry
	m.present = true

	return nil
}

var _ keai.ListingCache = (*Memory)(nil)
