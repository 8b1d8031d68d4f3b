package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"cvscreen-backend/internal/shared/storage/object"
)

// LocalExtractor parses PDFs in-process. It is the dev fallback when no
// extraction service is configured and handles digital PDFs only.
type LocalExtractor struct {
	store     object.ObjectStore
	minLength int
}

// NewLocalExtractor constructs an in-process PDF text extractor.
func NewLocalExtractor(store object.ObjectStore, minLength int) *LocalExtractor {
	if minLength <= 0 {
		minLength = 100
	}
	return &LocalExtractor{store: store, minLength: minLength}
}

// Extract reads the stored PDF and returns its trimmed plain text.
func (e *LocalExtractor) Extract(ctx context.Context, storageKey string) (string, error) {
	rc, err := e.store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("open cv object: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read cv object: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if len(text) < e.minLength {
		return "", fmt.Errorf("%w (%d chars, need %d)", ErrTextTooShort, len(text), e.minLength)
	}
	return text, nil
}

var _ TextExtractor = (*LocalExtractor)(nil)
