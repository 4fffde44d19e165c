// Package storage holds attachment blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

// ErrBlobNotFound is returned by Open when the key does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists attachment content under storage-relative keys.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the blob store selected by configuration.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (BlobStore, error) {
	switch cfg.Driver {
	case config.StorageDriverLocal:
		store, err := NewLocalStore(cfg.LocalRoot)
		if err != nil {
			return nil, err
		}
		logger.Info("using local attachment storage", zap.String("root", cfg.LocalRoot))
		return store, nil
	case config.StorageDriverS3:
		store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using s3 attachment storage", zap.String("bucket", cfg.S3Bucket))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
