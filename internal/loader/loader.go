// Package loader implements the download stage: it fetches the input
// dataset from object storage into the staging area.
package loader

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/dataclean/internal/logging"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
	"github.com/JonMunkholm/dataclean/internal/staging"
	"github.com/JonMunkholm/dataclean/internal/storage"
)

// Loader copies one object into <staging>/input.csv.
type Loader struct {
	store  storage.Store
	area   *staging.Area
	bucket string
	key    string
}

// New creates a loader for bucket/key.
func New(store storage.Store, area *staging.Area, bucket, key string) *Loader {
	return &Loader{store: store, area: area, bucket: bucket, key: key}
}

// Name implements pipeline.Stage.
func (l *Loader) Name() string { return pipeline.StageDownload }

// Run implements pipeline.Stage. Storage errors are returned as-is so
// callers can classify them with errors.Is.
func (l *Loader) Run(ctx context.Context, h *pipeline.Handoff) error {
	data, err := l.store.Get(ctx, l.bucket, l.key)
	if err != nil {
		return err
	}

	path := l.area.InputPath()
	if err := l.area.Write(path, data); err != nil {
		return fmt.Errorf("staging input: %w", err)
	}
	h.InputPath = path

	logging.FromContext(ctx).Info("input downloaded",
		"bucket", l.bucket,
		"key", l.key,
		"bytes", len(data),
		"path", path,
	)
	return nil
}
