package cache

import (
	"context"
	"sync"
	"time"

	"github.com/agrocert/backend/internal/domain/inspection"
	"github.com/agrocert/backend/internal/domain/shared"
)

type draftEntry struct {
	draft     inspection.Draft
	expiresAt time.Time
}

// InMemoryDraftStore keeps drafts in a map for single-instance deployments
// and tests. A janitor goroutine drops expired entries until Close.
type InMemoryDraftStore struct {
	mu        sync.RWMutex
	entries   map[inspection.DraftKey]draftEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDraftStore starts a store whose janitor runs every interval.
func NewInMemoryDraftStore(interval time.Duration) *InMemoryDraftStore {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	s := &InMemoryDraftStore{
		entries:  make(map[inspection.DraftKey]draftEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(interval)
	return s
}

// Save overwrites any draft under the same key and resets its expiry.
func (s *InMemoryDraftStore) Save(_ context.Context, draft inspection.Draft, ttl time.Duration) error {
	if err := draft.Key.Validate(); err != nil {
		return err
	}
	payload := make([]byte, len(draft.Payload))
	copy(payload, draft.Payload)
	draft.Payload = payload

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[draft.Key] = draftEntry{draft: draft, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns a copy of the stored draft.
func (s *InMemoryDraftStore) Get(_ context.Context, key inspection.DraftKey) (*inspection.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, shared.ErrNotFound
	}
	d := e.draft
	d.Payload = append([]byte(nil), e.draft.Payload...)
	return &d, nil
}

// Delete removes a draft.
func (s *InMemoryDraftStore) Delete(_ context.Context, key inspection.DraftKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the janitor. Safe to call more than once.
func (s *InMemoryDraftStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries, expired ones included.
func (s *InMemoryDraftStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryDraftStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryDraftStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

var _ inspection.DraftStore = (*InMemoryDraftStore)(nil)
