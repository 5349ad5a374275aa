package store

import (
	"sync"
	"time"

	"ai-docedit-be/pkg/document"
)

// Session is the in-memory state of one editing connection: the current
// document snapshot plus the single-writer lock that serializes mutations.
// Chunk and resource stores are owned per session by the container.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu       sync.Mutex
	snapshot *document.Snapshot
}

func NewSession(id, userID string) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
		snapshot:  document.NewEmpty(),
	}
}

// Snapshot returns the current snapshot reference. Snapshots are immutable;
// readers may hold the reference as long as they like.
func (s *Session) Snapshot() *document.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// ReplaceSnapshot installs a new baseline, e.g. from an inbound
// document_structure.
func (s *Session) ReplaceSnapshot(snap *document.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// WithMutationLock runs fn under the session's single-writer lock. fn
// receives the current snapshot and returns its replacement; on error the
// current snapshot stays installed. Two concurrent copy-on-write transforms
// can therefore never race on the same base.
func (s *Session) WithMutationLock(fn func(current *document.Snapshot) (*document.Snapshot, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.snapshot)
	if err != nil {
		return err
	}
	if next != nil {
		s.snapshot = next
	}
	return nil
}
