package evaluations

import (
	"time"

	"cvscreen-backend/internal/shared/telemetry"
)

// Checkpoint marks a stage of the evaluation pipeline. Percentages are fixed
// per checkpoint and strictly increasing along the pipeline.
type Checkpoint string

const (
	CheckpointUploadComplete   Checkpoint = "upload_complete"
	CheckpointRecordCreated    Checkpoint = "record_created"
	CheckpointTextExtracted    Checkpoint = "text_extracted"
	CheckpointAnalysisComplete Checkpoint = "analysis_complete"
)

var checkpointPercent = map[Checkpoint]int{
	CheckpointUploadComplete:   25,
	CheckpointRecordCreated:    40,
	CheckpointTextExtracted:    70,
	CheckpointAnalysisComplete: 100,
}

// ProgressEvent reports pipeline progress for one evaluation.
type ProgressEvent struct {
	EvaluationID string     `json:"evaluationId"`
	Checkpoint   Checkpoint `json:"checkpoint"`
	Percent      int        `json:"percent"`
	At           time.Time  `json:"at"`
}

// ProgressSink receives progress events. Publish must not block the pipeline.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// NopSink discards progress events.
type NopSink struct{}

func (NopSink) Publish(ProgressEvent) {}

// LogSink writes progress events to the structured log.
type LogSink struct{}

func (LogSink) Publish(event ProgressEvent) {
	telemetry.Info("evaluation.progress", map[string]any{
		"evaluation_id": event.EvaluationID,
		"checkpoint":    string(event.Checkpoint),
		"percent":       event.Percent,
	})
}
