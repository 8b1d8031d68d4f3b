package evaluations

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"cvscreen-backend/internal/rubric"
)

// MemoryRepo is an in-memory Repo for development and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]*EvaluationRecord
}

// NewMemoryRepo constructs an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]*EvaluationRecord)}
}

func (m *MemoryRepo) Create(ctx context.Context, rec *EvaluationRecord) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneRecord(rec)
	m.records[rec.ID] = cp
	return nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id string) (*EvaluationRecord, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (m *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]*EvaluationRecord, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*EvaluationRecord
	for _, rec := range m.records {
		if rec.OwnerID == ownerID {
			out = append(out, cloneRecord(rec))
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (m *MemoryRepo) ListAll(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*EvaluationRecord
	for _, rec := range m.records {
		out = append(out, cloneRecord(rec))
	}
	sortByCreatedDesc(out)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) MarkAnalyzing(ctx context.Context, id string, startedAt time.Time) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != StatusPending {
		return ErrInvalidTransition
	}
	rec.Status = StatusAnalyzing
	rec.StartedAt = &startedAt
	rec.UpdatedAt = startedAt
	return nil
}

func (m *MemoryRepo) Complete(ctx context.Context, id string, result CompletedResult) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != StatusAnalyzing {
		return ErrInvalidTransition
	}
	score := result.Score
	rec.Status = StatusCompleted
	rec.Score = &score
	rec.Feedback = result.Feedback
	rec.Criteria = cloneCriteria(result.Criteria)
	rec.Highlights = append([]string(nil), result.Highlights...)
	rec.Alerts = append([]string(nil), result.Alerts...)
	if len(result.AnalysisRaw) > 0 {
		rec.AnalysisRaw = append(json.RawMessage(nil), result.AnalysisRaw...)
	}
	rec.CompletedAt = &result.CompletedAt
	rec.UpdatedAt = result.CompletedAt
	return nil
}

func (m *MemoryRepo) MarkError(ctx context.Context, id string, code, message string, at time.Time) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status == StatusCompleted || rec.Status == StatusError {
		return ErrInvalidTransition
	}
	rec.Status = StatusError
	rec.ErrorCode = code
	rec.ErrorMessage = message
	rec.CompletedAt = &at
	rec.UpdatedAt = at
	return nil
}

func (m *MemoryRepo) UpdateRaw(ctx context.Context, id string, raw json.RawMessage) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.AnalysisRaw = append(json.RawMessage(nil), raw...)
	return nil
}

func sortByCreatedDesc(recs []*EvaluationRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}

func cloneRecord(rec *EvaluationRecord) *EvaluationRecord {
	cp := *rec
	cp.Criteria = cloneCriteria(rec.Criteria)
	cp.Highlights = append([]string(nil), rec.Highlights...)
	cp.Alerts = append([]string(nil), rec.Alerts...)
	if len(rec.AnalysisRaw) > 0 {
		cp.AnalysisRaw = append(json.RawMessage(nil), rec.AnalysisRaw...)
	}
	if rec.Score != nil {
		score := *rec.Score
		cp.Score = &score
	}
	if rec.StartedAt != nil {
		t := *rec.StartedAt
		cp.StartedAt = &t
	}
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func cloneCriteria(in map[string]rubric.CriterionResult) map[string]rubric.CriterionResult {
	if in == nil {
		return nil
	}
	out := make(map[string]rubric.CriterionResult, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
