package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

const gcsBackendName = "gcs"

// GCSStore keeps payloads in a Google Cloud Storage bucket, keyed by digest.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSConfig holds configuration for GCSStore.
type GCSConfig struct {
	Bucket string
	Prefix string
}

// NewGCSStore creates a GCS-backed payload store using application
// default credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Name implements BlobStore.
func (s *GCSStore) Name() string { return gcsBackendName }

// Put uploads the payload unless an object already exists under its key.
func (s *GCSStore) Put(ctx context.Context, r io.Reader) (PutResult, error) {
	data, result, err := bufferAndHash(r)
	if err != nil {
		return PutResult{}, err
	}
	result.BlobKey = s.prefix + casKey(result.SHA256)

	obj := s.client.Bucket(s.bucket).Object(result.BlobKey)
	if _, err := obj.Attrs(ctx); err == nil {
		return result, nil
	} else if !errors.Is(err, storage.ErrObjectNotExist) {
		return PutResult{}, fmt.Errorf("gcs attrs %s: %w", result.BlobKey, err)
	}

	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return PutResult{}, fmt.Errorf("gcs write %s: %w", result.BlobKey, err)
	}
	if err := w.Close(); err != nil {
		return PutResult{}, fmt.Errorf("gcs close %s: %w", result.BlobKey, err)
	}
	return result, nil
}

// Open streams the object stored under key.
func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("gcs get %s: %w", key, err)
	}
	return reader, nil
}

// Close releases the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
