// Package session provides SessionStore implementations that keep the most
// recently summarized text of each caller.
package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"digestly/internal/domain/entity"
	"digestly/internal/observability/metrics"
	"digestly/internal/usecase/digest"
)

// MemoryConfig configures a MemoryStore.
type MemoryConfig struct {
	// TTL expires a context after it was last written. Zero keeps it forever.
	TTL time.Duration

	// MaxEntries caps the number of callers kept; the least recently written
	// context is evicted first. Zero means unbounded.
	MaxEntries int

	// Now provides the current time for testing. Default: time.Now
	Now func() time.Time
}

// MemoryStore is a process-local SessionStore safe for concurrent use.
// Each caller has at most one context; Put replaces it.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front is the most recently written
	ttl     time.Duration
	max     int
	now     func() time.Time
}

var _ digest.SessionStore = (*MemoryStore)(nil)

type memoryEntry struct {
	callerID string
	src      entity.SourceText
	storedAt time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     cfg.TTL,
		max:     cfg.MaxEntries,
		now:     cfg.Now,
	}
}

// Put stores src as the context of callerID, replacing any previous one.
func (s *MemoryStore) Put(_ context.Context, callerID string, src entity.SourceText) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if el, ok := s.entries[callerID]; ok {
		e := el.Value.(*memoryEntry)
		e.src, e.storedAt = src, now
		s.order.MoveToFront(el)
		return nil
	}

	if s.max > 0 && len(s.entries) >= s.max {
		s.evictOldest()
	}
	s.entries[callerID] = s.order.PushFront(&memoryEntry{callerID: callerID, src: src, storedAt: now})
	metrics.SetSessionContexts(len(s.entries))
	return nil
}

// Get returns the context of callerID. Expired contexts are reported as absent.
func (s *MemoryStore) Get(_ context.Context, callerID string) (entity.SourceText, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.entries[callerID]
	if !ok {
		return entity.SourceText{}, false, nil
	}
	e := el.Value.(*memoryEntry)
	if s.expired(e, s.now()) {
		return entity.SourceText{}, false, nil
	}
	return e.src, true, nil
}

// Delete removes the context of callerID.
func (s *MemoryStore) Delete(_ context.Context, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[callerID]; ok {
		s.order.Remove(el)
		delete(s.entries, callerID)
		metrics.SetSessionContexts(len(s.entries))
	}
	return nil
}

// Len returns the number of stored contexts, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes every context that expired at now and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	// oldest entries sit at the back
	for el := s.order.Back(); el != nil; {
		e := el.Value.(*memoryEntry)
		if !s.expired(e, now) {
			break
		}
		prev := el.Prev()
		s.order.Remove(el)
		delete(s.entries, e.callerID)
		metrics.RecordSessionEviction("expired")
		removed++
		el = prev
	}
	if removed > 0 {
		metrics.SetSessionContexts(len(s.entries))
	}
	return removed
}

func (s *MemoryStore) expired(e *memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.storedAt) >= s.ttl
}

// evictOldest must be called with the write lock held.
func (s *MemoryStore) evictOldest() {
	el := s.order.Back()
	if el == nil {
		return
	}
	s.order.Remove(el)
	delete(s.entries, el.Value.(*memoryEntry).callerID)
	metrics.RecordSessionEviction("capacity")
}
