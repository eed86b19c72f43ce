package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"careermap-backend/internal/shared/metrics"
	"careermap-backend/internal/shared/telemetry"
)

// Runner executes a structured call, decodes it, and optionally asks the model
// to repair output that failed validation.
type Runner struct {
	Client         Client
	Timeout        time.Duration
	RepairAttempts int
	Provider       string
	Model          string
}

// Run calls the provider and hands the raw output to decode. decode must wrap
// shape problems with ErrSchemaValidation; only those trigger repair attempts.
func (r Runner) Run(ctx context.Context, req Request, decode func(json.RawMessage) error) error {
	if r.Client == nil {
		return ErrNotImplemented
	}
	start := time.Now()
	err := r.run(ctx, req, decode)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrSchemaValidation):
		outcome = metrics.OutcomeSchemaInvalid
	default:
		outcome = metrics.OutcomeError
	}
	metrics.ObserveFlow(string(req.Flow), outcome, elapsed)

	fields := map[string]any{
		"flow":           string(req.Flow),
		"prompt_version": req.PromptVersion,
		"prompt_hash":    req.Hash(),
		"provider":       r.Provider,
		"model":          r.Model,
		"outcome":        outcome,
		"duration_ms":    elapsed.Milliseconds(),
	}
	if err != nil {
		fields["error"] = err
		telemetry.Warn("llm.call", fields)
		return err
	}
	telemetry.Info("llm.call", fields)
	return nil
}

func (r Runner) run(ctx context.Context, req Request, decode func(json.RawMessage) error) error {
	attempts := r.RepairAttempts
	if attempts < 0 {
		attempts = 0
	}
	callCtx := ctx
	for attempt := 0; ; attempt++ {
		raw, err := r.generate(callCtx, req)
		if err != nil {
			return err
		}
		err = decode(raw)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSchemaValidation) || attempt >= attempts {
			return err
		}
		telemetry.Info("llm.repair", map[string]any{
			"flow":    string(req.Flow),
			"attempt": attempt + 1,
			"error":   err,
		})
		callCtx = WithRepair(ctx, Repair{Previous: string(raw), Problem: err.Error()})
	}
}

func (r Runner) generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	raw, err := r.Client.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, err
	}
	return raw, nil
}
