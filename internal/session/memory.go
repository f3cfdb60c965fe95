package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryStore backs tests and single-process dev mode. Sessions are stored as
// JSON so the round-trip matches the Redis store exactly.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	var sess Session
	if err := json.Unmarshal(entry.raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[sess.ID] = memoryEntry{raw: raw, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}
