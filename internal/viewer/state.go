package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"careermap-backend/internal/mindmap"
)

// ErrStateNotFound is returned when no view state is stored.
var ErrStateNotFound = errors.New("view state not found")

// State is the stored expansion state of one user's view of one roadmap.
type State struct {
	RoadmapID string           `json:"roadmapId"`
	Revision  int              `json:"revision"`
	Expanded  []mindmap.NodeID `json:"expanded"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// StateStore persists view state per user and roadmap.
type StateStore interface {
	Get(ctx context.Context, userID, roadmapID string) (State, error)
	Put(ctx context.Context, userID string, st State) error
	Delete(ctx context.Context, userID, roadmapID string) error
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore keeps view state in process. Entries expire after TTL when TTL > 0.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	TTL  time.Duration
	Now  func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		TTL:  ttl,
		Now:  time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID, roadmapID string) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey(userID, roadmapID)
	entry, ok := s.data[key]
	if !ok {
		return State{}, ErrStateNotFound
	}
	if !entry.expiresAt.IsZero() && !s.Now().Before(entry.expiresAt) {
		delete(s.data, key)
		return State{}, ErrStateNotFound
	}
	st := entry.state
	st.Expanded = append([]mindmap.NodeID(nil), st.Expanded...)
	return st, nil
}

func (s *MemoryStore) Put(ctx context.Context, userID string, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{state: st}
	entry.state.Expanded = append([]mindmap.NodeID(nil), st.Expanded...)
	if s.TTL > 0 {
		entry.expiresAt = s.Now().Add(s.TTL)
	}
	s.data[stateKey(userID, st.RoadmapID)] = entry
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, roadmapID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, stateKey(userID, roadmapID))
	return nil
}

func stateKey(userID, roadmapID string) string {
	return userID + "\x00" + roadmapID
}
