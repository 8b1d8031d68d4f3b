package evaluations

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cvscreen-backend/internal/shared/server/middleware"
	"cvscreen-backend/internal/shared/server/respond"
)

const maxUploadBytes = 10 << 20

// Handler exposes the evaluations HTTP API.
type Handler struct {
	svc *Service
}

// NewHandler constructs the evaluations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the owner-facing routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/evaluations", h.create)
	rg.GET("/evaluations", h.list)
	rg.GET("/evaluations/:id", h.get)
}

// RegisterAdmin mounts the admin routes.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/evaluations", h.adminList)
}

type evaluationResponse struct {
	*EvaluationRecord
	Band string `json:"band,omitempty"`
}

func (h *Handler) toResponse(rec *EvaluationRecord) evaluationResponse {
	return evaluationResponse{
		EvaluationRecord: rec,
		Band:             h.svc.Band(rec),
	}
}

// create accepts a multipart CV upload and runs the scoring pipeline. All
// preconditions are checked before any record or object is created.
func (h *Handler) create(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	if ownerID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	roleInfo := strings.TrimSpace(c.PostForm("roleInfo"))
	companyInfo := strings.TrimSpace(c.PostForm("companyInfo"))
	jobDescription := c.PostForm("jobDescription")

	if roleInfo == "" {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "roleInfo is required", nil)
		return
	}
	if companyInfo == "" {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "companyInfo is required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "a PDF file is required in the 'file' field", nil)
		return
	}
	if !strings.EqualFold(fileExt(fileHeader.Filename), ".pdf") {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "only PDF files are accepted", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "could not read uploaded file", nil)
		return
	}
	defer file.Close()

	rec, err := h.svc.Evaluate(c.Request.Context(), EvaluateInput{
		OwnerID:            ownerID,
		FileName:           fileHeader.Filename,
		File:               file,
		RoleInfo:           roleInfo,
		CompanyInfo:        companyInfo,
		JobDescriptionText: jobDescription,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			respond.Error(c, http.StatusBadRequest, CodeValidation, err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, CodeInternal, "evaluation could not be started", nil)
		return
	}

	c.Set("evaluationId", rec.ID)
	c.Set("statusTransition", rec.Status)
	respond.Created(c, h.toResponse(rec))
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	rec, err := h.svc.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "evaluation not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, CodeInternal, "could not load evaluation", nil)
		return
	}
	c.Set("evaluationId", rec.ID)
	respond.OK(c, h.toResponse(rec))
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	recs, err := h.svc.List(c.Request.Context(), ownerID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, CodeInternal, "could not list evaluations", nil)
		return
	}
	out := make([]evaluationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, h.toResponse(rec))
	}
	respond.OK(c, gin.H{"evaluations": out})
}

func (h *Handler) adminList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	recs, err := h.svc.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, CodeInternal, "could not list evaluations", nil)
		return
	}
	out := make([]evaluationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, h.toResponse(rec))
	}
	respond.OK(c, gin.H{"evaluations": out})
}

func fileExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}
