package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cvscreen-backend/internal/shared/storage/object"
	"cvscreen-backend/internal/shared/telemetry"
)

// ErrTextTooShort indicates the extracted text is below the minimum usable
// length, which for CVs almost always means a scanned image rather than a
// digital PDF.
var ErrTextTooShort = errors.New("extracted text too short, likely a scanned image")

// TextExtractor converts a stored CV into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, storageKey string) (string, error)
}

// ServiceConfig configures the external extraction service client.
type ServiceConfig struct {
	URL          string
	Mode         string
	SendPII      bool
	Timeout      time.Duration
	SignedURLTTL time.Duration
	MinLength    int
}

// ServiceExtractor delegates extraction to an out-of-process HTTP service.
// The service never receives the PDF bytes; it gets a signed, expiring URL
// to fetch the object itself.
type ServiceExtractor struct {
	store      object.ObjectStore
	cfg        ServiceConfig
	httpClient *http.Client
}

// NewServiceExtractor constructs an extractor backed by an external service.
func NewServiceExtractor(store object.ObjectStore, cfg ServiceConfig) (*ServiceExtractor, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("EXTRACTOR_URL is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = "raw_text"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 30 * time.Minute
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 100
	}
	return &ServiceExtractor{
		store: store,
		cfg:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

type extractRequest struct {
	CVURL            string `json:"cv_url"`
	Mode             string `json:"mode"`
	NeedPersonalData bool   `json:"need_personal_data"`
}

// The service response field has drifted across deployments; accept every
// shape that has shipped.
type extractResponse struct {
	Result  string `json:"result"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// Extract issues a signed URL for the object, posts it to the extraction
// service, and returns the trimmed plain text.
func (e *ServiceExtractor) Extract(ctx context.Context, storageKey string) (string, error) {
	signedURL, err := e.store.SignedURL(ctx, storageKey, e.cfg.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign cv url: %w", err)
	}

	payload, err := json.Marshal(extractRequest{
		CVURL:            signedURL,
		Mode:             e.cfg.Mode,
		NeedPersonalData: e.cfg.SendPII,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("extraction response read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("extraction service status %d: %s", resp.StatusCode, snippet(body))
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("extraction response parse: %w", err)
	}
	text := firstNonEmpty(parsed.Result, parsed.Text, parsed.Content)
	text = strings.TrimSpace(text)

	telemetry.Info("extract.complete", map[string]any{
		"storage_key": storageKey,
		"chars":       len(text),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if len(text) < e.cfg.MinLength {
		return "", fmt.Errorf("%w (%d chars, need %d)", ErrTextTooShort, len(text), e.cfg.MinLength)
	}
	return text, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

var _ TextExtractor = (*ServiceExtractor)(nil)
