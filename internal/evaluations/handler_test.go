package evaluations

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cvscreen-backend/internal/rubric"
	"cvscreen-backend/internal/shared/config"
)

func newTestRouter(t *testing.T, repo Repo, userID string) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := rubric.MustGet("v3")
	svc := newTestService(repo, &stubExtractor{text: strings.Repeat("experiencia ", 30)},
		&stubLLM{raw: analysisJSON(t, r, 11, "Destacar todo.")}, config.CriteriaMismatchStrict, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	})
	h := NewHandler(svc)
	api := router.Group("/api/v1")
	h.Register(api)
	h.RegisterAdmin(api.Group("/admin"))
	return router, svc
}

func multipartBody(t *testing.T, fields map[string]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("%PDF-1.4 fake content"))
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestCreateEvaluationHappyPath(t *testing.T) {
	repo := NewMemoryRepo()
	router, _ := newTestRouter(t, repo, "user-1")

	body, contentType := multipartBody(t, map[string]string{
		"roleInfo":    "Backend Engineer",
		"companyInfo": "Fintech",
	}, "Currículum.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Score  *int   `json:"score"`
		Band   string `json:"band"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response parse: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Score == nil || *got.Score != 11 {
		t.Errorf("score = %v, want 11", got.Score)
	}
	if got.Band != rubric.BandHire {
		t.Errorf("band = %s, want %s", got.Band, rubric.BandHire)
	}
}

func TestCreateEvaluationMissingFieldsRejectedBeforeRecord(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		file   string
	}{
		{"missing role", map[string]string{"companyInfo": "c"}, "cv.pdf"},
		{"missing company", map[string]string{"roleInfo": "r"}, "cv.pdf"},
		{"missing file", map[string]string{"roleInfo": "r", "companyInfo": "c"}, ""},
		{"wrong extension", map[string]string{"roleInfo": "r", "companyInfo": "c"}, "cv.docx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewMemoryRepo()
			router, _ := newTestRouter(t, repo, "user-1")

			body, contentType := multipartBody(t, tc.fields, tc.file)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if recs, _ := repo.ListAll(context.Background(), 0, 0); len(recs) != 0 {
				t.Fatalf("rejected request created %d records", len(recs))
			}
		})
	}
}

func TestCreateEvaluationRequiresIdentity(t *testing.T) {
	repo := NewMemoryRepo()
	router, _ := newTestRouter(t, repo, "")

	body, contentType := multipartBody(t, map[string]string{"roleInfo": "r", "companyInfo": "c"}, "cv.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGetEvaluationOwnership(t *testing.T) {
	repo := NewMemoryRepo()
	router, svc := newTestRouter(t, repo, "user-1")

	created, err := svc.Evaluate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("seed evaluation: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+created.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner get = %d, want 200", rec.Code)
	}

	otherRouter, _ := newTestRouter(t, repo, "intruder")
	req = httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+created.ID, nil)
	rec = httptest.NewRecorder()
	otherRouter.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-owner get = %d, want 404", rec.Code)
	}
}

func TestListEvaluationsScopedToOwner(t *testing.T) {
	repo := NewMemoryRepo()
	router, svc := newTestRouter(t, repo, "user-1")

	if _, err := svc.Evaluate(context.Background(), validInput()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	other := validInput()
	other.OwnerID = "someone-else"
	other.File = strings.NewReader("%PDF-1.4")
	if _, err := svc.Evaluate(context.Background(), other); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var got struct {
		Evaluations []json.RawMessage `json:"evaluations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Evaluations) != 1 {
		t.Fatalf("owner list has %d entries, want 1", len(got.Evaluations))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/evaluations", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse admin: %v", err)
	}
	if len(got.Evaluations) != 2 {
		t.Fatalf("admin list has %d entries, want 2", len(got.Evaluations))
	}
}
