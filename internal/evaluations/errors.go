package evaluations

import "errors"

var (
	// ErrNotFound indicates no evaluation exists with the given id.
	ErrNotFound = errors.New("evaluation not found")
	// ErrInvalidTransition indicates a status update that would move an
	// evaluation backward or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation indicates rejected input before any record was created.
	ErrValidation = errors.New("validation failed")
)

// Stable error codes persisted on failed evaluations and returned to clients.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeExtraction     = "EXTRACTION_ERROR"
	CodeLLMTimeout     = "LLM_TIMEOUT"
	CodeSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	CodeConsistency    = "CONSISTENCY_ERROR"
	CodeStorage        = "STORAGE_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)
