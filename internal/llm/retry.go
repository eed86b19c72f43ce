package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"careermap-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base     Client
	attempts int
	delay    time.Duration
}

// WithTransientRetries retries transient provider failures up to attempts extra times
// with linear backoff. attempts <= 0 returns base unchanged.
func WithTransientRetries(base Client, attempts int) Client {
	if base == nil || attempts <= 0 {
		return base
	}
	return retryingClient{base: base, attempts: attempts, delay: retryBaseDelay}
}

func (r retryingClient) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	raw, err := r.base.Generate(ctx, req)
	for attempt := 1; attempt <= r.attempts && err != nil && IsTransient(err); attempt++ {
		telemetry.Warn("llm.retry", map[string]any{
			"flow":    string(req.Flow),
			"attempt": attempt,
			"error":   err,
		})
		select {
		case <-time.After(time.Duration(attempt) * r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		raw, err = r.base.Generate(ctx, req)
	}
	return raw, err
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout")
}
