package object

import (
	"context"
	"io"
	"time"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// SignedURL issues a time-bounded fetch URL so out-of-process services can
// read an object without permanent credentials.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}
