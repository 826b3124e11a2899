// Package storage reads and writes objects in the bucket the pipeline
// consumes from and publishes to.
//
// Three backends share the Store interface: Google Cloud Storage (the
// default), Amazon S3, and a local directory tree used for development and
// tests. Backend errors are classified into ErrNotFound, ErrPermissionDenied
// and ErrTransient; callers match them with errors.Is. Nothing here retries.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/dataclean/internal/config"
)

// Error classes shared by every backend.
var (
	ErrNotFound         = errors.New("object not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTransient        = errors.New("transient storage error")
)

// Backend names accepted by New.
const (
	BackendGCS  = "gcs"
	BackendS3   = "s3"
	BackendFile = "file"
)

// ContentTypeCSV is the content type of every published object.
const ContentTypeCSV = "text/csv"

// Store fetches and publishes whole objects by bucket and key.
type Store interface {
	// Get returns the full contents of an object.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put creates or replaces an object.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// Close releases the backend client.
	Close() error
}

// New creates the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendGCS:
		return NewGCSStore(ctx)
	case BackendS3:
		return NewS3Store(ctx, cfg.Region)
	case BackendFile:
		return NewFileStore(cfg.FileRoot)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// objectError wraps a backend error with its error class and location.
func objectError(op, bucket, key string, class, err error) error {
	return fmt.Errorf("%s %s/%s: %w: %w", op, bucket, key, class, err)
}
