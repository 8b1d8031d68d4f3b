package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts text-generation providers for CV scoring. Implementations
// send the rendered rubric prompt and return the model's single completion
// verbatim; parsing and validation belong to the caller.
type Client interface {
	ScoreCV(ctx context.Context, input ScoreInput) (json.RawMessage, error)
}

// ScoreInput captures the inputs for one scoring call.
type ScoreInput struct {
	Prompt        string
	RubricVersion string
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation used when no provider is wired.
type PlaceholderClient struct{}

// ScoreCV returns ErrNotConfigured.
func (PlaceholderClient) ScoreCV(ctx context.Context, input ScoreInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
