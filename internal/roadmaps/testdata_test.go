package roadmaps

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"careermap-backend/internal/llm"
	"careermap-backend/internal/profiles"
)

const v3Sample = `{
	"title": "Backend Engineer Path",
	"description": "From fundamentals to production Go services.",
	"stages": [
		{
			"name": "Foundations",
			"type": "foundation",
			"description": "Core CS",
			"items": [
				{
					"name": "Data structures",
					"description": "Lists, maps, trees",
					"resources": [
						{"name": "CLRS", "description": "Classic textbook", "category": "traditional", "url": ""},
						{"name": "AI tutor drills", "description": "Practice with an assistant", "category": "ai_first", "url": "https://example.com/drills"}
					]
				}
			]
		},
		{
			"name": "Go services",
			"type": "skills",
			"description": "",
			"items": []
		}
	]
}`

type fakeLLM struct {
	mu       sync.Mutex
	outputs  []string
	errs     []error
	requests []llm.Request
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.requests)
	f.requests = append(f.requests, req)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.outputs) {
		return json.RawMessage(f.outputs[idx]), nil
	}
	return nil, errors.New("no scripted output")
}

type fakeProfiles struct {
	profiles map[string]profiles.Profile
}

func (f fakeProfiles) CompletedProfile(ctx context.Context, userID, sessionID string) (profiles.Profile, error) {
	p, ok := f.profiles[userID+"/"+sessionID]
	if !ok {
		return profiles.Profile{}, profiles.ErrSessionIncomplete
	}
	return p, nil
}

func sampleProfile() profiles.Profile {
	return profiles.Profile{
		Age:              24,
		Location:         "Lisbon",
		Goals:            "Become a backend engineer",
		Interests:        []string{"Go", "distributed systems"},
		AcademicStanding: "BSc Computer Science",
		LearningStyle:    "hands-on",
		TimeAvailability: "10 hours per week",
	}
}
