// Package blobstore persists blob payload bytes under content-derived keys.
// Blob identity and metadata live in the database; a backend only stores
// and returns bytes.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound reports a key with no stored payload.
var ErrBlobNotFound = errors.New("blob payload not found")

// PutResult describes one persisted payload.
type PutResult struct {
	SHA256    string
	SizeBytes int64
	BlobKey   string
}

// BlobStore is the payload storage abstraction used by the blob service.
// Put is idempotent: storing the same bytes twice yields the same key.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Name is recorded as the storage backend of every blob row.
	Name() string
}
