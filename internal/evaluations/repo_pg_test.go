package evaluations

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGRepo(db), mock
}

func evaluationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "file_name", "file_path", "file_size_bytes",
		"role_info", "company_info", "job_description_text", "status",
		"score", "feedback", "criteria", "highlights", "alerts", "analysis_raw",
		"rubric_version", "provider", "model", "error_code", "error_message",
		"started_at", "completed_at", "created_at", "updated_at",
	})
}

func TestPGCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO evaluations")).
		WithArgs("e1", "user-1", "cv.pdf", "user-1/cv.pdf", int64(1234),
			"role", "company", sql.NullString{String: "jd", Valid: true}, StatusPending,
			"v3", "openai", "gpt-test", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &EvaluationRecord{
		ID: "e1", OwnerID: "user-1", FileName: "cv.pdf", FilePath: "user-1/cv.pdf",
		FileSizeBytes: 1234, RoleInfo: "role", CompanyInfo: "company",
		JobDescriptionText: "jd", Status: StatusPending,
		RubricVersion: "v3", Provider: "openai", Model: "gpt-test",
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := evaluationRows().AddRow(
		"e1", "user-1", "cv.pdf", "user-1/cv.pdf", int64(1234),
		"role", "company", nil, StatusCompleted,
		int64(9), "Buen perfil.", []byte(`{"education":{"passed":true,"message":"ok"}}`),
		[]byte(`["Buen perfil"]`), []byte(`[]`), []byte(`{"feedback":"Buen perfil."}`),
		"v3", "openai", "gpt-test", nil, nil,
		now, now, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM evaluations WHERE id = \\$1").
		WithArgs("e1").
		WillReturnRows(rows)

	rec, err := repo.GetByID(context.Background(), "e1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Status != StatusCompleted || rec.Score == nil || *rec.Score != 9 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Criteria["education"].Message != "ok" {
		t.Fatalf("criteria not decoded: %+v", rec.Criteria)
	}
	if len(rec.Highlights) != 1 {
		t.Fatalf("highlights not decoded: %v", rec.Highlights)
	}
}

func TestPGGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .+ FROM evaluations WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(evaluationRows())

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGMarkAnalyzingGuard(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE evaluations").
		WithArgs("e1", StatusAnalyzing, now, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM evaluations WHERE id = \\$1").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusCompleted))

	err := repo.MarkAnalyzing(context.Background(), "e1", now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestPGMarkAnalyzingMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE evaluations").
		WithArgs("ghost", StatusAnalyzing, now, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM evaluations WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := repo.MarkAnalyzing(context.Background(), "ghost", now)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGComplete(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE evaluations").
		WithArgs("e1", StatusCompleted, 9, "Buen perfil.", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), now, StatusAnalyzing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Complete(context.Background(), "e1", CompletedResult{
		Score:       9,
		Feedback:    "Buen perfil.",
		CompletedAt: now,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestPGMarkError(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE evaluations").
		WithArgs("e1", StatusError, CodeExtraction, "sin texto", now, StatusPending, StatusAnalyzing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkError(context.Background(), "e1", CodeExtraction, "sin texto", now); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
}

func TestPGUpdateRawWrapsInvalidJSON(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE evaluations SET analysis_raw").
		WithArgs("e1", []byte(`{"unparsed":"not json"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateRaw(context.Background(), "e1", []byte("not json")); err != nil {
		t.Fatalf("UpdateRaw: %v", err)
	}
}
