package profiles

import "context"

// Repo persists profile sessions. Get returns ErrNotFound for sessions owned by another user.
type Repo interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, userID, sessionID string) (Session, error)
	Update(ctx context.Context, session Session) error
}
