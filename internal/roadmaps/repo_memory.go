package roadmaps

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Record // id -> record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Record),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = rec
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok || rec.UserID != userID {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// ListByUser returns records for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	recs := make([]Record, 0)
	for _, rec := range r.data {
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if offset >= len(recs) {
		return []Record{}, nil
	}
	end := len(recs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return recs[offset:end], nil
}

func (r *MemoryRepo) UpdateTree(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[rec.ID]
	if !ok || existing.UserID != rec.UserID {
		return ErrNotFound
	}
	existing.Tree = rec.Tree
	existing.SchemaVersion = rec.SchemaVersion
	existing.PromptVersion = rec.PromptVersion
	existing.Provider = rec.Provider
	existing.Model = rec.Model
	existing.Revision = rec.Revision
	existing.UpdatedAt = rec.UpdatedAt
	r.data[rec.ID] = existing
	return nil
}
