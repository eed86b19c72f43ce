package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"careermap-backend/internal/llm"
	"careermap-backend/internal/profiles"
	"careermap-backend/internal/shared/telemetry"
)

const promptVersion = "v1"

// ErrInvalidInput reports a missing goal or an incomplete profile.
var ErrInvalidInput = errors.New("invalid input")

// Service recommends learning resources for a profile and goal.
type Service struct {
	Runner llm.Runner
}

// NewService constructs a Service.
func NewService(runner llm.Runner) *Service {
	return &Service{Runner: runner}
}

// Recommend issues one model call and returns the resources in the order given.
func (s *Service) Recommend(ctx context.Context, profile profiles.Profile, goal string) ([]Resource, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("%w: goal is required", ErrInvalidInput)
	}
	if err := llm.Validator().Struct(profile); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(llm.Problems(err), "; "))
	}

	req, err := buildRequest(profile, goal)
	if err != nil {
		return nil, err
	}
	var out []Resource
	err = s.Runner.Run(ctx, req, func(raw json.RawMessage) error {
		var p payload
		if derr := llm.Decode(raw, &p); derr != nil {
			return derr
		}
		out = normalize(p.Resources)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recommend resources: %w", err)
	}

	aiFirst := 0
	for _, r := range out {
		if r.IsAIFirst {
			aiFirst++
		}
	}
	telemetry.Info("resources.recommended", map[string]any{
		"count":    len(out),
		"ai_first": aiFirst,
	})
	return out, nil
}

func buildRequest(profile profiles.Profile, goal string) (llm.Request, error) {
	tmpl, err := llm.PromptTemplate(llm.FlowResources, promptVersion)
	if err != nil {
		return llm.Request{}, err
	}
	user, err := json.Marshal(RecommendInput{Profile: profile, Goal: goal})
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		Flow:          llm.FlowResources,
		PromptVersion: promptVersion,
		System:        llm.Render(tmpl, map[string]string{"PROMPT_VERSION": promptVersion}),
		User:          string(user),
		Schema: llm.Schema{
			Name:        "resource_recommendations",
			Description: "Ordered learning resources for a career goal",
			Definition:  llm.SchemaFor[payload](),
			Strict:      true,
		},
	}, nil
}

func normalize(in []Resource) []Resource {
	out := make([]Resource, 0, len(in))
	for _, r := range in {
		r.Name = strings.TrimSpace(r.Name)
		r.Type = strings.ToLower(strings.TrimSpace(r.Type))
		r.URL = strings.TrimSpace(r.URL)
		r.Description = strings.TrimSpace(r.Description)
		r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
		r.TimeEstimate = strings.TrimSpace(r.TimeEstimate)
		out = append(out, r)
	}
	return out
}
