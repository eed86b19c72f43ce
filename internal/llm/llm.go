package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// Flow names one of the structured generation calls.
type Flow string

const (
	FlowProfileTurn Flow = "profile_turn"
	FlowRoadmap     Flow = "roadmap"
	FlowResources   Flow = "resources"
)

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
	// ErrSchemaValidation marks model output that does not match the expected shape.
	ErrSchemaValidation = errors.New("llm output failed schema validation")
	// ErrTimeout marks a call that exceeded its deadline.
	ErrTimeout = errors.New("llm call timed out")
	// ErrTransient marks provider failures worth retrying (5xx, 429, connection resets).
	ErrTransient = errors.New("llm transient failure")
)

// Schema describes the JSON shape a call must return.
type Schema struct {
	Name        string
	Description string
	Definition  any
	// Strict requests provider-side strict mode. Only valid when every field is required.
	Strict bool
}

// Request is one structured completion.
type Request struct {
	Flow          Flow
	PromptVersion string
	System        string
	User          string
	Schema        Schema
}

// Hash returns a stable digest of the rendered prompt.
func (r Request) Hash() string {
	sum := sha256.Sum256([]byte(string(r.Flow) + "\x00" + r.PromptVersion + "\x00" + r.System + "\x00" + r.User))
	return hex.EncodeToString(sum[:])
}

// Client abstracts LLM providers. Generate returns the raw JSON document the model produced.
type Client interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}

// Repair carries a rejected output back to the provider on a repair attempt.
type Repair struct {
	Previous string
	Problem  string
}

type repairKey struct{}

// WithRepair returns a context signaling a repair attempt.
func WithRepair(ctx context.Context, r Repair) context.Context {
	return context.WithValue(ctx, repairKey{}, r)
}

// RepairFromContext returns the repair hint, if any.
func RepairFromContext(ctx context.Context) (Repair, bool) {
	r, ok := ctx.Value(repairKey{}).(Repair)
	return r, ok
}

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotImplemented.
func (PlaceholderClient) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotImplemented
}
