package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a session field is absent or expired.
var ErrNotFound = errors.New("session: value not found")

// Store is a key-value capability scoped to a session id. CAPTCHA answers and
// CSRF tokens live here rather than in process memory, so verification works
// no matter which instance serves the follow-up request.
type Store interface {
	Get(ctx context.Context, sessionID, field string) (string, error)
	Set(ctx context.Context, sessionID, field, value string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string, fields ...string) error
}

// MemoryStore is a process-local Store used in tests and single-instance
// development setups.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, sessionID, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionID + ":" + field
	entry, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID, field, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.entries[sessionID+":"+field] = entry
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, field := range fields {
		delete(m.entries, sessionID+":"+field)
	}
	return nil
}
