package profiles

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

// Create inserts a new session.
func (r *PGRepo) Create(ctx context.Context, session Session) error {
	const query = `
INSERT INTO profile_sessions (
    id,
    user_id,
    questions,
    answers,
    current_question,
    background,
    resume_key,
    profile,
    completed,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	questions, answers, profile, err := encodeSession(session)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		questions,
		answers,
		session.CurrentQuestion,
		session.Background,
		session.ResumeKey,
		profile,
		session.Completed,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// Get returns a session owned by userID.
func (r *PGRepo) Get(ctx context.Context, userID, sessionID string) (Session, error) {
	const query = `
SELECT id, user_id, questions, answers, current_question, background, resume_key, profile, completed, created_at, updated_at
FROM profile_sessions
WHERE id = $1 AND user_id = $2`

	var (
		session   Session
		questions []byte
		answers   []byte
		profile   []byte
	)
	err := r.DB.QueryRowContext(ctx, query, sessionID, userID).Scan(
		&session.ID,
		&session.UserID,
		&questions,
		&answers,
		&session.CurrentQuestion,
		&session.Background,
		&session.ResumeKey,
		&profile,
		&session.Completed,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if err := json.Unmarshal(questions, &session.Questions); err != nil {
		return Session{}, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal(answers, &session.Answers); err != nil {
		return Session{}, fmt.Errorf("decode answers: %w", err)
	}
	if len(profile) > 0 {
		var p Profile
		if err := json.Unmarshal(profile, &p); err != nil {
			return Session{}, fmt.Errorf("decode profile: %w", err)
		}
		session.Profile = &p
	}
	session.HasBackground = session.Background != ""
	return session, nil
}

// Update overwrites the mutable columns of a session.
func (r *PGRepo) Update(ctx context.Context, session Session) error {
	const query = `
UPDATE profile_sessions
SET questions = $3,
    answers = $4,
    current_question = $5,
    profile = $6,
    completed = $7,
    updated_at = $8
WHERE id = $1 AND user_id = $2`

	questions, answers, profile, err := encodeSession(session)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		questions,
		answers,
		session.CurrentQuestion,
		profile,
		session.Completed,
		session.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeSession(session Session) ([]byte, []byte, []byte, error) {
	questions, err := json.Marshal(nonNil(session.Questions))
	if err != nil {
		return nil, nil, nil, err
	}
	answers, err := json.Marshal(nonNil(session.Answers))
	if err != nil {
		return nil, nil, nil, err
	}
	var profile []byte
	if session.Profile != nil {
		profile, err = json.Marshal(session.Profile)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return questions, answers, profile, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
