package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store with TTL support.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]*memoryItem
	defaultTTL time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store. A background sweep removes
// expired entries every cleanupInterval.
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	ms := &MemoryStore{
		items:      make(map[string]*memoryItem),
		defaultTTL: defaultTTL,
		stopCh:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go ms.cleanupLoop(cleanupInterval)
	}
	return ms
}

// Get retrieves a value if present and not expired.
func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[key]
	if !exists || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores a value. A zero ttl falls back to the store's default.
func (ms *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl == 0 {
		ttl = ms.defaultTTL
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.items[key] = &memoryItem{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Clear removes all entries.
func (ms *MemoryStore) Clear(_ context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.items = make(map[string]*memoryItem)
	return nil
}

// Stop terminates the cleanup goroutine.
func (ms *MemoryStore) Stop() {
	ms.stopOnce.Do(func() { close(ms.stopCh) })
}

func (ms *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.stopCh:
			return
		}
	}
}

func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, item := range ms.items {
		if now.After(item.expiresAt) {
			delete(ms.items, key)
		}
	}
}
