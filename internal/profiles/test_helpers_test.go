package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"careermap-backend/internal/llm"
)

type fakeLLM struct {
	mu       sync.Mutex
	outputs  []string
	requests []llm.Request
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.outputs) == 0 {
		return nil, errors.New("no scripted output")
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return json.RawMessage(out), nil
}

func (f *fakeLLM) lastInput() TurnInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	var in TurnInput
	if len(f.requests) > 0 {
		_ = json.Unmarshal([]byte(f.requests[len(f.requests)-1].User), &in)
	}
	return in
}

const completeTurn = `{
	"nextQuestion": "Thanks, that's everything I need.",
	"isProfileComplete": true,
	"profile": {
		"age": 24,
		"location": "Lisbon",
		"goals": "Become a backend engineer",
		"interests": ["distributed systems", "Go"],
		"academicStanding": "BSc Computer Science",
		"learningStyle": "hands-on projects",
		"timeAvailability": "10 hours per week"
	}
}`

func question(q string) string {
	raw, _ := json.Marshal(map[string]any{"nextQuestion": q, "isProfileComplete": false, "profile": nil})
	return string(raw)
}

func newTestService(outputs ...string) (*Service, *fakeLLM) {
	client := &fakeLLM{outputs: outputs}
	svc := NewService(llm.Runner{Client: client}, NewMemoryRepo(), nil)
	n := 0
	svc.NewID = func() string {
		n++
		return "session-" + string(rune('0'+n))
	}
	svc.Now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	return svc, client
}
