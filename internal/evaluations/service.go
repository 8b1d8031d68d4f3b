package evaluations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvscreen-backend/internal/extract"
	"cvscreen-backend/internal/llm"
	"cvscreen-backend/internal/rubric"
	"cvscreen-backend/internal/shared/config"
	"cvscreen-backend/internal/shared/metrics"
	"cvscreen-backend/internal/shared/storage/object"
	"cvscreen-backend/internal/shared/telemetry"
)

// ServiceConfig holds the scoring policy for new evaluations.
type ServiceConfig struct {
	RubricVersion    string
	CriteriaMismatch string
	Provider         string
	Model            string
}

// Service runs the evaluation pipeline and owns all record status writes.
type Service struct {
	repo      Repo
	store     object.ObjectStore
	extractor extract.TextExtractor
	scorer    llm.Client
	cfg       ServiceConfig
	progress  ProgressSink

	now   func() time.Time
	newID func() string
}

// NewService wires the pipeline dependencies.
func NewService(repo Repo, store object.ObjectStore, extractor extract.TextExtractor, scorer llm.Client, cfg ServiceConfig, progress ProgressSink) *Service {
	if cfg.RubricVersion == "" {
		cfg.RubricVersion = rubric.DefaultVersion
	}
	if cfg.CriteriaMismatch == "" {
		cfg.CriteriaMismatch = config.CriteriaMismatchStrict
	}
	if progress == nil {
		progress = NopSink{}
	}
	return &Service{
		repo:      repo,
		store:     store,
		extractor: extractor,
		scorer:    newRetryingLLM(scorer),
		cfg:       cfg,
		progress:  progress,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// EvaluateInput is the validated request to score one CV.
type EvaluateInput struct {
	OwnerID            string
	FileName           string
	File               io.Reader
	RoleInfo           string
	CompanyInfo        string
	JobDescriptionText string
}

// Evaluate runs the full pipeline synchronously: upload, record creation,
// extraction, scoring, aggregation. It returns an error only when no record
// was created; once a record exists, pipeline failures are written to the
// record and the errored record is returned with a nil error.
func (s *Service) Evaluate(ctx context.Context, in EvaluateInput) (*EvaluationRecord, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	r, ok := rubric.Get(s.cfg.RubricVersion)
	if !ok {
		return nil, fmt.Errorf("unknown rubric version %q", s.cfg.RubricVersion)
	}

	start := s.now()
	metrics.IncEvaluationStarted()

	storageKey, sizeBytes, mimeType, err := s.store.Save(ctx, in.OwnerID, in.FileName, in.File)
	if err != nil {
		metrics.IncEvaluationFailed()
		return nil, fmt.Errorf("store cv: %w", err)
	}
	telemetry.Info("evaluation.upload", map[string]any{
		"owner_id":    in.OwnerID,
		"storage_key": storageKey,
		"size_bytes":  sizeBytes,
		"mime_type":   mimeType,
	})

	rec := &EvaluationRecord{
		ID:                 s.newID(),
		OwnerID:            in.OwnerID,
		FileName:           in.FileName,
		FilePath:           storageKey,
		FileSizeBytes:      sizeBytes,
		RoleInfo:           in.RoleInfo,
		CompanyInfo:        in.CompanyInfo,
		JobDescriptionText: strings.TrimSpace(in.JobDescriptionText),
		Status:             StatusPending,
		RubricVersion:      r.Version,
		Provider:           s.cfg.Provider,
		Model:              s.cfg.Model,
		CreatedAt:          start,
		UpdatedAt:          start,
	}
	s.emit(rec.ID, CheckpointUploadComplete)

	if err := s.repo.Create(ctx, rec); err != nil {
		metrics.IncEvaluationFailed()
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	s.logTransition(rec.ID, "", StatusPending)
	s.emit(rec.ID, CheckpointRecordCreated)

	if err := s.runPipeline(ctx, rec.ID, r, in); err != nil {
		code, msg := classifyFailure(err)
		s.fail(ctx, rec.ID, code, msg, err)
	} else {
		metrics.IncEvaluationCompleted()
		metrics.ObserveEvaluationDurationMs(float64(s.now().Sub(start).Milliseconds()))
		s.logTransition(rec.ID, StatusAnalyzing, StatusCompleted)
		s.emit(rec.ID, CheckpointAnalysisComplete)
	}

	return s.repo.GetByID(ctx, rec.ID)
}

// runPipeline executes extraction through completion for an existing pending
// record. The evaluation id is threaded explicitly through every step.
func (s *Service) runPipeline(ctx context.Context, id string, r rubric.Rubric, in EvaluateInput) error {
	if err := s.repo.MarkAnalyzing(ctx, id, s.now()); err != nil {
		return fmt.Errorf("mark analyzing: %w", err)
	}
	s.logTransition(id, StatusPending, StatusAnalyzing)

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load evaluation: %w", err)
	}

	text, err := s.extractor.Extract(ctx, rec.FilePath)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	s.emit(id, CheckpointTextExtracted)

	prompt := rubric.BuildPrompt(r, text, in.RoleInfo, in.CompanyInfo, in.JobDescriptionText)
	raw, err := s.scorer.ScoreCV(ctx, llm.ScoreInput{Prompt: prompt, RubricVersion: r.Version})
	if err != nil {
		return fmt.Errorf("score cv: %w", err)
	}

	// Preserve the completion before parsing so a schema mismatch still
	// leaves the raw output on the record.
	if err := s.repo.UpdateRaw(ctx, id, raw); err != nil {
		telemetry.Warn("evaluation.raw_not_saved", map[string]any{
			"evaluation_id": id,
			"error":         err.Error(),
		})
	}

	var analysis rubric.ParsedAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return fmt.Errorf("%w: parse analysis: %v", errSchemaMismatch, err)
	}

	switch s.cfg.CriteriaMismatch {
	case config.CriteriaMismatchFillDefaults:
		analysis.Criteria = rubric.FillDefaults(analysis.Criteria, r)
	default:
		if err := rubric.ValidateKeys(analysis.Criteria, r); err != nil {
			return fmt.Errorf("%w: %v", errConsistency, err)
		}
	}

	score, err := rubric.Aggregate(analysis, r)
	if err != nil {
		return fmt.Errorf("%w: %v", errConsistency, err)
	}

	highlights, alerts := ClassifyFeedback(analysis.Feedback)
	result := CompletedResult{
		Score:       score,
		Feedback:    analysis.Feedback,
		Criteria:    analysis.Criteria,
		Highlights:  highlights,
		Alerts:      alerts,
		AnalysisRaw: raw,
		CompletedAt: s.now(),
	}
	if err := s.repo.Complete(ctx, id, result); err != nil {
		return fmt.Errorf("complete evaluation: %w", err)
	}
	return nil
}

// Get returns an evaluation visible to the given owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*EvaluationRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return rec, nil
}

// List returns the owner's evaluations, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*EvaluationRecord, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListAll returns evaluations across all owners, newest first.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

// Band returns the hiring band for a completed record, or empty.
func (s *Service) Band(rec *EvaluationRecord) string {
	if rec == nil || rec.Status != StatusCompleted || rec.Score == nil {
		return ""
	}
	r, ok := rubric.Get(rec.RubricVersion)
	if !ok {
		return ""
	}
	return r.Band(*rec.Score)
}

func (s *Service) emit(id string, checkpoint Checkpoint) {
	s.progress.Publish(ProgressEvent{
		EvaluationID: id,
		Checkpoint:   checkpoint,
		Percent:      checkpointPercent[checkpoint],
		At:           s.now(),
	})
}

func (s *Service) fail(ctx context.Context, id, code, message string, cause error) {
	metrics.IncEvaluationFailed()
	telemetry.Error("evaluation.failed", map[string]any{
		"evaluation_id": id,
		"error_code":    code,
		"error":         cause.Error(),
	})
	// The pipeline can die before the analyzing transition lands, so the
	// prior status is read rather than assumed.
	from := StatusAnalyzing
	if rec, err := s.repo.GetByID(ctx, id); err == nil {
		from = rec.Status
	}
	if err := s.repo.MarkError(ctx, id, code, message, s.now()); err != nil {
		telemetry.Error("evaluation.mark_error_failed", map[string]any{
			"evaluation_id": id,
			"error":         err.Error(),
		})
		return
	}
	s.logTransition(id, from, StatusError)
}

func (s *Service) logTransition(id, from, to string) {
	telemetry.Info("evaluation.status", map[string]any{
		"evaluation_id": id,
		"from":          from,
		"to":            to,
	})
}

var (
	errSchemaMismatch = errors.New("analysis schema mismatch")
	errConsistency    = errors.New("analysis consistency check failed")
)

func validateInput(in EvaluateInput) error {
	switch {
	case strings.TrimSpace(in.OwnerID) == "":
		return fmt.Errorf("%w: owner id is required", ErrValidation)
	case in.File == nil:
		return fmt.Errorf("%w: cv file is required", ErrValidation)
	case strings.TrimSpace(in.FileName) == "":
		return fmt.Errorf("%w: file name is required", ErrValidation)
	case !strings.EqualFold(filepath.Ext(in.FileName), ".pdf"):
		return fmt.Errorf("%w: only PDF files are accepted", ErrValidation)
	case strings.TrimSpace(in.RoleInfo) == "":
		return fmt.Errorf("%w: role info is required", ErrValidation)
	case strings.TrimSpace(in.CompanyInfo) == "":
		return fmt.Errorf("%w: company info is required", ErrValidation)
	}
	return nil
}

// classifyFailure maps pipeline errors to the stable code plus a client-safe
// message. Prompts and raw model output never leak into the message.
func classifyFailure(err error) (code, message string) {
	switch {
	case errors.Is(err, extract.ErrTextTooShort):
		return CodeExtraction, "No se pudo extraer texto suficiente del CV. Probablemente es un documento escaneado; sube un PDF digital."
	case errors.Is(err, errSchemaMismatch):
		return CodeSchemaMismatch, "El análisis no pudo ser interpretado. Intenta nuevamente."
	case errors.Is(err, errConsistency):
		return CodeConsistency, "El análisis devolvió un resultado inconsistente. Intenta nuevamente."
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout"):
		if strings.Contains(err.Error(), "score cv") {
			return CodeLLMTimeout, "El análisis tardó demasiado. Intenta nuevamente."
		}
		return CodeExtraction, "La extracción de texto tardó demasiado. Intenta nuevamente."
	case strings.Contains(err.Error(), "extract text"):
		return CodeExtraction, "No se pudo extraer el texto del CV."
	case strings.Contains(err.Error(), "score cv"):
		return CodeInternal, "El análisis falló. Intenta nuevamente."
	default:
		return CodeInternal, "Ocurrió un error interno. Intenta nuevamente."
	}
}
