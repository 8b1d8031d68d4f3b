package evaluations

import (
	"context"
	"encoding/json"
	"time"
)

// Repo persists evaluation records. Implementations enforce the forward-only
// status machine: MarkAnalyzing requires pending, Complete requires analyzing,
// MarkError requires a non-terminal state. Violations return
// ErrInvalidTransition.
type Repo interface {
	Create(ctx context.Context, rec *EvaluationRecord) error
	GetByID(ctx context.Context, id string) (*EvaluationRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*EvaluationRecord, error)
	ListAll(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error)

	MarkAnalyzing(ctx context.Context, id string, startedAt time.Time) error
	Complete(ctx context.Context, id string, result CompletedResult) error
	MarkError(ctx context.Context, id string, code, message string, at time.Time) error
	UpdateRaw(ctx context.Context, id string, raw json.RawMessage) error
}
