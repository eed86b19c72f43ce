package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"careermap-backend/internal/extract"
	"careermap-backend/internal/llm"
	"careermap-backend/internal/shared/storage/object"
	"careermap-backend/internal/shared/telemetry"
)

// Upload is a resume file attached when a session starts.
type Upload struct {
	FileName string
	Body     io.Reader
}

// StartInput seeds a new session.
type StartInput struct {
	Background string
	Resume     *Upload
}

// Service runs the elicitation flow and manages sessions.
type Service struct {
	Runner llm.Runner
	Repo   Repo
	Store  object.ObjectStore
	Now    func() time.Time
	NewID  func() string
}

// NewService constructs a Service. store may be nil when resume uploads are unsupported.
func NewService(runner llm.Runner, repo Repo, store object.ObjectStore) *Service {
	return &Service{
		Runner: runner,
		Repo:   repo,
		Store:  store,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// NextTurn issues one model call and returns the next question or the completed profile.
// Output that violates the turn contract is returned as an llm.ErrSchemaValidation error.
func (s *Service) NextTurn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	req, err := buildTurnRequest(in)
	if err != nil {
		return TurnOutput{}, err
	}
	var out TurnOutput
	err = s.Runner.Run(ctx, req, func(raw json.RawMessage) error {
		decoded, derr := decodeTurn(raw)
		if derr != nil {
			return derr
		}
		out = decoded
		return nil
	})
	if err != nil {
		return TurnOutput{}, fmt.Errorf("profile turn: %w", err)
	}
	return out, nil
}

// Start creates a session and asks the first question.
func (s *Service) Start(ctx context.Context, userID string, in StartInput) (Session, error) {
	if strings.TrimSpace(userID) == "" {
		return Session{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	now := s.Now()
	session := Session{
		ID:         s.NewID(),
		UserID:     userID,
		Questions:  []string{},
		Answers:    []string{},
		Background: extract.Truncate(extract.Normalize(in.Background), extract.DefaultMaxChars),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if in.Resume != nil {
		text, key, err := s.ingestResume(ctx, userID, *in.Resume)
		if err != nil {
			return Session{}, err
		}
		session.ResumeKey = key
		if session.Background == "" {
			session.Background = text
		} else {
			session.Background = extract.Truncate(session.Background+"\n\n"+text, extract.DefaultMaxChars)
		}
	}
	session.HasBackground = session.Background != ""

	out, err := s.NextTurn(ctx, TurnInput{PreviousAnswers: []string{}, Background: session.Background})
	if err != nil {
		return Session{}, err
	}
	applyTurn(&session, out)

	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	telemetry.Info("profile.session_started", map[string]any{
		"session_id":     session.ID,
		"user_id":        userID,
		"has_background": session.HasBackground,
		"completed":      session.Completed,
	})
	return session, nil
}

// Answer records the user's answer to the current question and runs the next turn.
func (s *Service) Answer(ctx context.Context, userID, sessionID, answer string) (Session, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Session{}, fmt.Errorf("%w: answer is required", ErrInvalidInput)
	}
	session, err := s.Repo.Get(ctx, userID, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.Completed {
		return Session{}, ErrSessionComplete
	}

	answers := append(append([]string{}, session.Answers...), answer)
	out, err := s.NextTurn(ctx, TurnInput{
		PreviousAnswers: answers,
		CurrentQuestion: session.CurrentQuestion,
		Background:      session.Background,
	})
	if err != nil {
		return Session{}, err
	}

	session.Answers = answers
	applyTurn(&session, out)
	session.UpdatedAt = s.Now()
	if err := s.Repo.Update(ctx, session); err != nil {
		return Session{}, fmt.Errorf("update session: %w", err)
	}
	if session.Completed {
		telemetry.Info("profile.session_completed", map[string]any{
			"session_id": session.ID,
			"user_id":    userID,
			"turns":      len(session.Answers),
		})
	}
	return session, nil
}

// Get returns a session owned by userID.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (Session, error) {
	return s.Repo.Get(ctx, userID, sessionID)
}

// CompletedProfile returns the profile of a completed session.
func (s *Service) CompletedProfile(ctx context.Context, userID, sessionID string) (Profile, error) {
	session, err := s.Repo.Get(ctx, userID, sessionID)
	if err != nil {
		return Profile{}, err
	}
	if !session.Completed || session.Profile == nil {
		return Profile{}, ErrSessionIncomplete
	}
	return *session.Profile, nil
}

func (s *Service) ingestResume(ctx context.Context, userID string, up Upload) (string, string, error) {
	if s.Store == nil {
		return "", "", fmt.Errorf("%w: resume uploads are not configured", ErrInvalidInput)
	}
	info, err := s.Store.Save(ctx, userID, object.KindResume, up.FileName, up.Body)
	if err != nil {
		return "", "", fmt.Errorf("save resume: %w", err)
	}
	text, err := extract.ResumeText(ctx, s.Store, info, up.FileName, extract.DefaultMaxChars)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return text, info.Key, nil
}

func applyTurn(session *Session, out TurnOutput) {
	if out.IsProfileComplete {
		session.Completed = true
		session.Profile = out.Profile
		session.CurrentQuestion = ""
		return
	}
	session.Questions = append(session.Questions, out.NextQuestion)
	session.CurrentQuestion = out.NextQuestion
}
