package profiles

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Session // sessionID -> session
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Session),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[session.ID] = cloneSession(session)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.data[sessionID]
	if !ok || session.UserID != userID {
		return Session{}, ErrNotFound
	}
	return cloneSession(session), nil
}

func (r *MemoryRepo) Update(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[session.ID]
	if !ok || existing.UserID != session.UserID {
		return ErrNotFound
	}
	r.data[session.ID] = cloneSession(session)
	return nil
}

func cloneSession(s Session) Session {
	s.Questions = append([]string{}, s.Questions...)
	s.Answers = append([]string{}, s.Answers...)
	if s.Profile != nil {
		p := *s.Profile
		p.Interests = append([]string{}, p.Interests...)
		s.Profile = &p
	}
	return s
}
