package evaluations

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"cvscreen-backend/internal/llm"
	"cvscreen-backend/internal/shared/telemetry"
)

// retryingLLM wraps a client with a single bounded retry for transient
// transport failures. Schema problems never reach this layer; the inner
// client only errors on transport and API faults.
type retryingLLM struct {
	inner   llm.Client
	backoff time.Duration
}

func newRetryingLLM(inner llm.Client) retryingLLM {
	return retryingLLM{inner: inner, backoff: 2 * time.Second}
}

func (r retryingLLM) ScoreCV(ctx context.Context, input llm.ScoreInput) (json.RawMessage, error) {
	raw, err := r.inner.ScoreCV(ctx, input)
	if err == nil || !isTransient(err) || ctx.Err() != nil {
		return raw, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"rubric_version": input.RubricVersion,
		"error":          err.Error(),
	})
	select {
	case <-ctx.Done():
		return nil, err
	case <-time.After(r.backoff):
	}
	return r.inner.ScoreCV(ctx, input)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"status 429", "status 500", "status 502", "status 503", "status 529", "connection refused", "connection reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
