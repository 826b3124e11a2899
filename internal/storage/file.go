package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps objects as files under <root>/<bucket>/<key>.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at root. The directory is created on
// first write.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("file storage root is required")
	}
	return &FileStore{root: root}, nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, objectError("get", bucket, key, classifyFileError(err), err)
	}
	return data, nil
}

// Put implements Store. The object is written to a temporary file and
// renamed into place, so readers never see a partial object.
func (s *FileStore) Put(ctx context.Context, bucket, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return objectError("put", bucket, key, classifyFileError(err), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return objectError("put", bucket, key, classifyFileError(err), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return objectError("put", bucket, key, ErrTransient, err)
	}
	if err := tmp.Close(); err != nil {
		return objectError("put", bucket, key, ErrTransient, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return objectError("put", bucket, key, classifyFileError(err), err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// path maps bucket and key to a file below the root. Keys that would escape
// the bucket directory are rejected.
func (s *FileStore) path(bucket, key string) (string, error) {
	rel := filepath.FromSlash(key)
	if bucket == "" || !filepath.IsLocal(bucket) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid object location %q/%q", bucket, key)
	}
	return filepath.Join(s.root, bucket, rel), nil
}

func classifyFileError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return ErrTransient
	}
}
