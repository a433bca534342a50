package cache

import (
	"context"
	"sync"
	"time"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
)

// MemoryConfig defines configuration options for the in-memory store.
type MemoryConfig struct {
	// CleanupInterval is how often the janitor sweeps expired entries.
	// Expired entries are also dropped lazily on read, so the janitor only
	// bounds memory held by keys that are never read again.
	CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
}

type memoryEntry struct {
	value    any
	expireAt time.Time // zero => no TTL
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Memory is an in-process TTL store. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

// NewMemory creates an in-memory store and starts its janitor goroutine.
// Call Stop when the store is no longer needed.
func NewMemory(cfg MemoryConfig) (*Memory, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}

	m := &Memory{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}

	go m.janitor(cfg.CleanupInterval)

	return m, nil
}

func (m *Memory) Get(_ context.Context, key string) (any, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if entry.expired(time.Now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have renewed it.
		if cur, still := m.entries[key]; still && cur.expired(time.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value any, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expireAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	return nil
}

func (m *Memory) Evict(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()

	return nil
}

// Len returns the number of live entries, counting expired ones not yet
// swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stop terminates the janitor goroutine. The store remains usable after
// Stop; entries simply stop being swept in the background.
func (m *Memory) Stop() {
	m.once.Do(func() {
		close(m.stop)
	})
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}
