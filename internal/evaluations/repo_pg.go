package evaluations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cvscreen-backend/internal/rubric"
)

// PGRepo is the Postgres-backed Repo.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo constructs a Postgres repository.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

const evaluationColumns = `id, owner_id, file_name, file_path, file_size_bytes,
role_info, company_info, job_description_text, status,
score, feedback, criteria, highlights, alerts, analysis_raw,
rubric_version, provider, model, error_code, error_message,
started_at, completed_at, created_at, updated_at`

func (p *PGRepo) Create(ctx context.Context, rec *EvaluationRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, owner_id, file_name, file_path, file_size_bytes,
			role_info, company_info, job_description_text, status,
			rubric_version, provider, model, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rec.ID, rec.OwnerID, rec.FileName, rec.FilePath, rec.FileSizeBytes,
		rec.RoleInfo, rec.CompanyInfo, nullString(rec.JobDescriptionText), rec.Status,
		rec.RubricVersion, rec.Provider, rec.Model, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (p *PGRepo) GetByID(ctx context.Context, id string) (*EvaluationRecord, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id)
	rec, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (p *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]*EvaluationRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()
	return collectEvaluations(rows)
}

func (p *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list all evaluations: %w", err)
	}
	defer rows.Close()
	return collectEvaluations(rows)
}

func (p *PGRepo) MarkAnalyzing(ctx context.Context, id string, startedAt time.Time) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE evaluations
		SET status = $2, started_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, StatusAnalyzing, startedAt, StatusPending)
	if err != nil {
		return fmt.Errorf("mark analyzing: %w", err)
	}
	return p.checkTransition(ctx, res, id)
}

func (p *PGRepo) Complete(ctx context.Context, id string, result CompletedResult) error {
	criteria, err := marshalCriteria(result.Criteria)
	if err != nil {
		return err
	}
	highlights, err := json.Marshal(result.Highlights)
	if err != nil {
		return fmt.Errorf("marshal highlights: %w", err)
	}
	alerts, err := json.Marshal(result.Alerts)
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE evaluations
		SET status = $2, score = $3, feedback = $4, criteria = $5,
		    highlights = $6, alerts = $7, completed_at = $8, updated_at = $8
		WHERE id = $1 AND status = $9`,
		id, StatusCompleted, result.Score, result.Feedback, criteria,
		highlights, alerts, result.CompletedAt, StatusAnalyzing)
	if err != nil {
		return fmt.Errorf("complete evaluation: %w", err)
	}
	return p.checkTransition(ctx, res, id)
}

func (p *PGRepo) MarkError(ctx context.Context, id string, code, message string, at time.Time) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE evaluations
		SET status = $2, error_code = $3, error_message = $4, completed_at = $5, updated_at = $5
		WHERE id = $1 AND status IN ($6, $7)`,
		id, StatusError, code, message, at, StatusPending, StatusAnalyzing)
	if err != nil {
		return fmt.Errorf("mark error: %w", err)
	}
	return p.checkTransition(ctx, res, id)
}

func (p *PGRepo) UpdateRaw(ctx context.Context, id string, raw json.RawMessage) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE evaluations SET analysis_raw = $2, updated_at = $3 WHERE id = $1`,
		id, encodeRaw(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update analysis raw: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// checkTransition disambiguates a no-op update between a missing row and a
// status guard rejection.
func (p *PGRepo) checkTransition(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var status string
	err = p.db.QueryRowContext(ctx, `SELECT status FROM evaluations WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: evaluation %s is %s", ErrInvalidTransition, id, status)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (*EvaluationRecord, error) {
	var (
		rec        EvaluationRecord
		jdText     sql.NullString
		score      sql.NullInt64
		feedback   sql.NullString
		criteria   []byte
		highlights []byte
		alerts     []byte
		raw        []byte
		errCode    sql.NullString
		errMsg     sql.NullString
		startedAt  sql.NullTime
		doneAt     sql.NullTime
	)
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.FileName, &rec.FilePath, &rec.FileSizeBytes,
		&rec.RoleInfo, &rec.CompanyInfo, &jdText, &rec.Status,
		&score, &feedback, &criteria, &highlights, &alerts, &raw,
		&rec.RubricVersion, &rec.Provider, &rec.Model, &errCode, &errMsg,
		&startedAt, &doneAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.JobDescriptionText = jdText.String
	if score.Valid {
		s := int(score.Int64)
		rec.Score = &s
	}
	rec.Feedback = feedback.String
	rec.ErrorCode = errCode.String
	rec.ErrorMessage = errMsg.String
	if startedAt.Valid {
		t := startedAt.Time
		rec.StartedAt = &t
	}
	if doneAt.Valid {
		t := doneAt.Time
		rec.CompletedAt = &t
	}
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &rec.Criteria); err != nil {
			return nil, fmt.Errorf("decode criteria: %w", err)
		}
	}
	if len(highlights) > 0 {
		if err := json.Unmarshal(highlights, &rec.Highlights); err != nil {
			return nil, fmt.Errorf("decode highlights: %w", err)
		}
	}
	if len(alerts) > 0 {
		if err := json.Unmarshal(alerts, &rec.Alerts); err != nil {
			return nil, fmt.Errorf("decode alerts: %w", err)
		}
	}
	if len(raw) > 0 {
		rec.AnalysisRaw = append(json.RawMessage(nil), raw...)
	}
	return &rec, nil
}

func collectEvaluations(rows *sql.Rows) ([]*EvaluationRecord, error) {
	var out []*EvaluationRecord
	for rows.Next() {
		rec, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func marshalCriteria(criteria map[string]rubric.CriterionResult) ([]byte, error) {
	data, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("marshal criteria: %w", err)
	}
	return data, nil
}

func encodeRaw(raw json.RawMessage) []byte {
	if json.Valid(raw) {
		return raw
	}
	// Broken completions still get preserved, wrapped as a JSON string so the
	// JSONB column accepts them.
	wrapped, err := json.Marshal(map[string]string{"unparsed": string(raw)})
	if err != nil {
		return []byte(`{"unparsed":""}`)
	}
	return wrapped
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
