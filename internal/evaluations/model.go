package evaluations

import (
	"encoding/json"
	"time"

	"cvscreen-backend/internal/rubric"
)

// Evaluation lifecycle states. Transitions are forward-only: pending moves to
// analyzing, analyzing moves to completed or error, and error is reachable
// from pending when the pipeline dies before analysis starts. Terminal states
// never change.
const (
	StatusPending   = "pending"
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// EvaluationRecord is one CV evaluation from upload through scoring.
type EvaluationRecord struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`

	FileName      string `json:"fileName"`
	FilePath      string `json:"filePath"`
	FileSizeBytes int64  `json:"fileSizeBytes"`

	RoleInfo           string `json:"roleInfo"`
	CompanyInfo        string `json:"companyInfo"`
	JobDescriptionText string `json:"jobDescriptionText,omitempty"`

	Status string `json:"status"`

	Score      *int                              `json:"score,omitempty"`
	Feedback   string                            `json:"feedback,omitempty"`
	Criteria   map[string]rubric.CriterionResult `json:"criteria,omitempty"`
	Highlights []string                          `json:"highlights,omitempty"`
	Alerts     []string                          `json:"alerts,omitempty"`

	// AnalysisRaw preserves the model output verbatim, including completions
	// that failed to parse.
	AnalysisRaw json.RawMessage `json:"-"`

	RubricVersion string `json:"rubricVersion"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Terminal reports whether the record is in a final state.
func (r *EvaluationRecord) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusError
}

// CompletedResult carries the outputs written when an evaluation finishes
// successfully.
type CompletedResult struct {
	Score       int
	Feedback    string
	Criteria    map[string]rubric.CriterionResult
	Highlights  []string
	Alerts      []string
	AnalysisRaw json.RawMessage
	CompletedAt time.Time
}
