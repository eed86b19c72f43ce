package roadmaps

import "context"

// Repo persists roadmap records. Reads are scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, userID, id string) (Record, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error)
	// UpdateTree replaces the tree and generation metadata and stores rec.Revision.
	UpdateTree(ctx context.Context, rec Record) error
}
