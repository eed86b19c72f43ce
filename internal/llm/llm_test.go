package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type scriptedClient struct {
	mu       sync.Mutex
	outputs  []string
	errs     []error
	calls    int
	repairs  []Repair
	deadline bool
}

func (s *scriptedClient) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if r, ok := RepairFromContext(ctx); ok {
		s.repairs = append(s.repairs, r)
	}
	if _, ok := ctx.Deadline(); ok {
		s.deadline = true
	}
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if idx < len(s.outputs) {
		return json.RawMessage(s.outputs[idx]), nil
	}
	return nil, errors.New("no scripted output")
}

type answer struct {
	Value string `json:"value" validate:"required"`
}

func decodeAnswer(dst *answer) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		return Decode(raw, dst)
	}
}

func TestRunnerNoRepairByDefault(t *testing.T) {
	client := &scriptedClient{outputs: []string{`{"value":""}`, `{"value":"ok"}`}}
	var got answer
	err := Runner{Client: client}.Run(context.Background(), Request{Flow: FlowProfileTurn}, decodeAnswer(&got))
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected a single call, got %d", client.calls)
	}
}

func TestRunnerRepairsWhenConfigured(t *testing.T) {
	client := &scriptedClient{outputs: []string{`{"value":""}`, `{"value":"ok"}`}}
	var got answer
	err := Runner{Client: client, RepairAttempts: 1}.Run(context.Background(), Request{Flow: FlowRoadmap}, decodeAnswer(&got))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != "ok" {
		t.Fatalf("expected repaired value, got %q", got.Value)
	}
	if len(client.repairs) != 1 {
		t.Fatalf("expected one repair hint, got %d", len(client.repairs))
	}
	if client.repairs[0].Previous != `{"value":""}` {
		t.Fatalf("unexpected previous output %q", client.repairs[0].Previous)
	}
	if !strings.Contains(client.repairs[0].Problem, "value: required") {
		t.Fatalf("expected validation problem in hint, got %q", client.repairs[0].Problem)
	}
}

func TestRunnerDoesNotRepairProviderErrors(t *testing.T) {
	boom := errors.New("boom")
	client := &scriptedClient{errs: []error{boom}}
	var got answer
	err := Runner{Client: client, RepairAttempts: 3}.Run(context.Background(), Request{Flow: FlowResources}, decodeAnswer(&got))
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected a single call, got %d", client.calls)
	}
}

func TestRunnerMapsDeadlineToTimeout(t *testing.T) {
	client := &scriptedClient{errs: []error{fmt.Errorf("post: %w", context.DeadlineExceeded)}}
	var got answer
	err := Runner{Client: client, Timeout: time.Second}.Run(context.Background(), Request{Flow: FlowRoadmap}, decodeAnswer(&got))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !client.deadline {
		t.Fatalf("expected call context to carry a deadline")
	}
}

func TestRunnerNilClient(t *testing.T) {
	err := Runner{}.Run(context.Background(), Request{}, func(json.RawMessage) error { return nil })
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	var got answer
	if err := Decode(json.RawMessage(`{"value":`), &got); !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	if err := Decode(json.RawMessage(`  `), &got); !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation for empty output, got %v", err)
	}
}

func TestTransientRetries(t *testing.T) {
	client := &scriptedClient{
		errs:    []error{fmt.Errorf("%w: status 503", ErrTransient), nil},
		outputs: []string{"", `{"value":"ok"}`},
	}
	wrapped := WithTransientRetries(client, 1).(retryingClient)
	wrapped.delay = time.Millisecond

	raw, err := wrapped.Generate(context.Background(), Request{Flow: FlowRoadmap})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"value":"ok"}` {
		t.Fatalf("unexpected output %s", raw)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestTransientRetriesDisabled(t *testing.T) {
	client := &scriptedClient{}
	if got := WithTransientRetries(client, 0); got != Client(client) {
		t.Fatalf("expected base client when retries disabled")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: fmt.Errorf("%w: 429", ErrTransient), want: true},
		{err: errors.New("read tcp: connection reset by peer"), want: true},
		{err: ErrSchemaValidation, want: false},
		{err: errors.New("bad request"), want: false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Fatalf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPromptTemplates(t *testing.T) {
	for _, version := range []string{"v1", "v2", "v3"} {
		tmpl, err := PromptTemplate(FlowRoadmap, version)
		if err != nil || strings.TrimSpace(tmpl) == "" {
			t.Fatalf("expected roadmap template %s, got %v", version, err)
		}
	}
	for _, tt := range []struct {
		flow    Flow
		version string
	}{
		{FlowRoadmap, "v9"},
		{FlowProfileTurn, "v2"},
		{FlowResources, ""},
		{Flow("unknown"), "v1"},
	} {
		if _, err := PromptTemplate(tt.flow, tt.version); !errors.Is(err, ErrUnknownPrompt) {
			t.Fatalf("PromptTemplate(%s, %q): expected ErrUnknownPrompt, got %v", tt.flow, tt.version, err)
		}
	}
	rendered := Render("version {{PROMPT_VERSION}}", map[string]string{"PROMPT_VERSION": "v3"})
	if rendered != "version v3" {
		t.Fatalf("unexpected render %q", rendered)
	}
}

func TestRequestHashStable(t *testing.T) {
	a := Request{Flow: FlowRoadmap, PromptVersion: "v3", System: "s", User: "u"}
	b := a
	if a.Hash() != b.Hash() {
		t.Fatalf("expected identical hashes")
	}
	b.User = "other"
	if a.Hash() == b.Hash() {
		t.Fatalf("expected hash to change with input")
	}
}

func TestSchemaForDisallowsAdditionalProperties(t *testing.T) {
	raw, err := json.Marshal(SchemaFor[answer]())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	if !strings.Contains(string(raw), `"additionalProperties":false`) {
		t.Fatalf("expected additionalProperties false, got %s", raw)
	}
	if strings.Contains(string(raw), `"$ref"`) {
		t.Fatalf("expected inline schema, got %s", raw)
	}
}
