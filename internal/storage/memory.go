package storage

import (
	"context"
	"sync"
)

// MemorySlot is an in-memory storage slot.
type MemorySlot struct {
	mu      sync.Mutex
	payload string
	saves   int
}

// NewMemorySlot creates a slot holding payload.
func NewMemorySlot(payload string) *MemorySlot {
	return &MemorySlot{payload: payload}
}

// Load implements Slot.
func (m *MemorySlot) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payload, nil
}

// Save implements Slot.
func (m *MemorySlot) Save(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = payload
	m.saves++
	return nil
}

// Payload returns the stored payload.
func (m *MemorySlot) Payload() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payload
}

// Saves returns how many times Save was called.
func (m *MemorySlot) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// MemoryCache is an in-memory local cache.
type MemoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]string)}
}

// Get implements Cache.
func (m *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Cache.
func (m *MemoryCache) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
