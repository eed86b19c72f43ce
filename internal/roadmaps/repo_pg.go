package roadmaps

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, session_id, profile, tree, schema_version, prompt_version, provider, model, revision, created_at, updated_at`

// Create inserts a new roadmap.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO roadmaps (
    id,
    user_id,
    session_id,
    profile,
    tree,
    schema_version,
    prompt_version,
    provider,
    model,
    revision,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	tree, err := json.Marshal(rec.Tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.SessionID,
		profile,
		tree,
		rec.SchemaVersion,
		rec.PromptVersion,
		rec.Provider,
		rec.Model,
		rec.Revision,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

// Get returns a roadmap owned by userID.
func (r *PGRepo) Get(ctx context.Context, userID, id string) (Record, error) {
	query := `SELECT ` + selectColumns + ` FROM roadmaps WHERE id = $1 AND user_id = $2`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByUser returns roadmaps for a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + selectColumns + `
FROM roadmaps
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// UpdateTree replaces the tree and bumps the stored revision.
func (r *PGRepo) UpdateTree(ctx context.Context, rec Record) error {
	const query = `
UPDATE roadmaps
SET tree = $3,
    schema_version = $4,
    prompt_version = $5,
    provider = $6,
    model = $7,
    revision = $8,
    updated_at = $9
WHERE id = $1 AND user_id = $2`

	tree, err := json.Marshal(rec.Tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		tree,
		rec.SchemaVersion,
		rec.PromptVersion,
		rec.Provider,
		rec.Model,
		rec.Revision,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec     Record
		profile []byte
		tree    []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.SessionID,
		&profile,
		&tree,
		&rec.SchemaVersion,
		&rec.PromptVersion,
		&rec.Provider,
		&rec.Model,
		&rec.Revision,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(profile, &rec.Profile); err != nil {
		return Record{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := json.Unmarshal(tree, &rec.Tree); err != nil {
		return Record{}, fmt.Errorf("decode tree: %w", err)
	}
	return rec, nil
}
