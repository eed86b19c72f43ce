package roadmaps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"careermap-backend/internal/llm"
	"careermap-backend/internal/profiles"
	"careermap-backend/internal/shared/telemetry"
)

// ProfileSource resolves the profile of a completed elicitation session.
type ProfileSource interface {
	CompletedProfile(ctx context.Context, userID, sessionID string) (profiles.Profile, error)
}

// CreateInput selects the profile a roadmap is generated from: either inline or by session.
type CreateInput struct {
	Profile   *profiles.Profile
	SessionID string
}

// Service generates and persists roadmaps.
type Service struct {
	Runner   llm.Runner
	Repo     Repo
	Profiles ProfileSource
	adapter  Adapter
	Now      func() time.Time
	NewID    func() string
}

// NewService constructs a Service for a fixed schema version.
func NewService(runner llm.Runner, repo Repo, source ProfileSource, schemaVersion string) (*Service, error) {
	if schemaVersion == "" {
		schemaVersion = DefaultSchemaVersion
	}
	adapter, err := AdapterFor(schemaVersion)
	if err != nil {
		return nil, err
	}
	return &Service{
		Runner:   runner,
		Repo:     repo,
		Profiles: source,
		adapter:  adapter,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}, nil
}

// SchemaVersion returns the configured output schema version.
func (s *Service) SchemaVersion() string {
	return s.adapter.Version()
}

// Generate issues one model call and adapts the result into a canonical tree.
func (s *Service) Generate(ctx context.Context, profile profiles.Profile) (Tree, error) {
	version := s.adapter.Version()
	tmpl, err := llm.PromptTemplate(llm.FlowRoadmap, version)
	if err != nil {
		return Tree{}, err
	}
	user, err := json.Marshal(map[string]any{"profile": profile})
	if err != nil {
		return Tree{}, err
	}
	req := llm.Request{
		Flow:          llm.FlowRoadmap,
		PromptVersion: version,
		System:        llm.Render(tmpl, map[string]string{"PROMPT_VERSION": version}),
		User:          string(user),
		Schema:        s.adapter.Schema(),
	}

	var tree Tree
	err = s.Runner.Run(ctx, req, func(raw json.RawMessage) error {
		adapted, aerr := s.adapter.Adapt(raw)
		if aerr != nil {
			return aerr
		}
		tree = adapted
		return nil
	})
	if err != nil {
		return Tree{}, fmt.Errorf("generate roadmap: %w", err)
	}
	return tree, nil
}

// Create resolves the profile, generates a tree and stores it as revision 1.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Record, error) {
	profile, sessionID, err := s.resolveProfile(ctx, userID, in)
	if err != nil {
		return Record{}, err
	}
	tree, err := s.Generate(ctx, profile)
	if err != nil {
		return Record{}, err
	}
	now := s.Now()
	rec := Record{
		ID:            s.NewID(),
		UserID:        userID,
		SessionID:     sessionID,
		Profile:       profile,
		Tree:          tree,
		SchemaVersion: s.adapter.Version(),
		PromptVersion: s.adapter.Version(),
		Provider:      s.Runner.Provider,
		Model:         s.Runner.Model,
		Revision:      1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("create roadmap: %w", err)
	}
	telemetry.Info("roadmap.created", map[string]any{
		"roadmap_id": rec.ID,
		"user_id":    userID,
		"session_id": sessionID,
		"stages":     len(tree.Stages),
		"schema":     rec.SchemaVersion,
	})
	return rec, nil
}

// Get returns a roadmap owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (Record, error) {
	return s.Repo.Get(ctx, userID, id)
}

// List returns summaries of a user's roadmaps, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Summary, error) {
	recs, err := s.Repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Summary())
	}
	return out, nil
}

// Regenerate replaces the tree from the stored profile and bumps the revision.
// On failure the stored roadmap is left untouched.
func (s *Service) Regenerate(ctx context.Context, userID, id string) (Record, error) {
	rec, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Record{}, err
	}
	tree, err := s.Generate(ctx, rec.Profile)
	if err != nil {
		return Record{}, err
	}
	rec.Tree = tree
	rec.SchemaVersion = s.adapter.Version()
	rec.PromptVersion = s.adapter.Version()
	rec.Provider = s.Runner.Provider
	rec.Model = s.Runner.Model
	rec.Revision++
	rec.UpdatedAt = s.Now()
	if err := s.Repo.UpdateTree(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("update roadmap: %w", err)
	}
	telemetry.Info("roadmap.regenerated", map[string]any{
		"roadmap_id": rec.ID,
		"user_id":    userID,
		"revision":   rec.Revision,
	})
	return rec, nil
}

func (s *Service) resolveProfile(ctx context.Context, userID string, in CreateInput) (profiles.Profile, string, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	switch {
	case in.Profile != nil && sessionID != "":
		return profiles.Profile{}, "", fmt.Errorf("%w: provide either profile or sessionId", ErrInvalidInput)
	case in.Profile != nil:
		if err := llm.Validator().Struct(in.Profile); err != nil {
			return profiles.Profile{}, "", fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(llm.Problems(err), "; "))
		}
		return *in.Profile, "", nil
	case sessionID != "":
		if s.Profiles == nil {
			return profiles.Profile{}, "", fmt.Errorf("%w: sessions are not available", ErrInvalidInput)
		}
		profile, err := s.Profiles.CompletedProfile(ctx, userID, sessionID)
		if err != nil {
			return profiles.Profile{}, "", err
		}
		return profile, sessionID, nil
	default:
		return profiles.Profile{}, "", fmt.Errorf("%w: profile or sessionId is required", ErrInvalidInput)
	}
}
