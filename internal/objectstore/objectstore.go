// Package objectstore writes video objects to an S3-compatible bucket and
// builds their public access URLs.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/princekumarofficial/assets-service/internal/config"
)

// Writer persists one object per call. Objects are never overwritten in
// place; every upload gets a fresh key.
type Writer interface {
	Write(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// URL returns the public access URL for key.
	URL(key string) string
}

// New builds the writer selected by cfg.ObjectStore.Backend.
func New(ctx context.Context, cfg *config.Config) (Writer, error) {
	switch cfg.ObjectStore.Backend {
	case "s3":
		return NewS3(ctx, cfg.ObjectStore.Bucket, cfg.ObjectStore.Region)
	case "minio":
		return NewMinIO(ctx, cfg.MinIO, cfg.ObjectStore.Bucket, cfg.ObjectStore.Region)
	default:
		return nil, fmt.Errorf("unknown object store backend %q", cfg.ObjectStore.Backend)
	}
}
