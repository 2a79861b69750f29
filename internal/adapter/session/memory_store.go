package session

import (
	"context"
	"sync"
	"time"

	"github.com/datasteward/steward/internal/domain"
)

type memoryEntry struct {
	session   domain.EditSession
	expiresAt time.Time
}

// MemoryStore keeps edit sessions in process memory
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]memoryEntry
}

// NewMemoryStore creates an in-memory session store; ttl of zero never expires
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Save(_ context.Context, session *domain.EditSession) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidRequest("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	entry := memoryEntry{session: *session}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[session.ID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.EditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok || s.expired(entry) {
		delete(s.sessions, id)
		return nil, domain.ErrSessionNotFound(id)
	}
	session := entry.session
	return &session, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len reports the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	return len(s.sessions)
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}

func (s *MemoryStore) evictExpired() {
	for id, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, id)
		}
	}
}
