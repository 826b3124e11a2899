package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore is a Store backed by Google Cloud Storage. Credentials come from
// Application Default Credentials (workload identity on GKE).
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a GCS client using Application Default Credentials.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Get implements Store.
func (s *GCSStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, objectError("get", bucket, key, classifyGCSError(err), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, objectError("get", bucket, key, classifyGCSError(err), err)
	}
	return data, nil
}

// Put implements Store.
func (s *GCSStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return objectError("put", bucket, key, classifyGCSError(err), err)
	}
	// The upload is only committed by Close.
	if err := w.Close(); err != nil {
		return objectError("put", bucket, key, classifyGCSError(err), err)
	}
	return nil
}

// Close implements Store.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func classifyGCSError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return ErrNotFound
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrPermissionDenied
		}
	}
	return ErrTransient
}
