package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Backend names accepted by New.
const (
	BackendLocal = localBackendName
	BackendS3    = s3BackendName
	BackendGCS   = gcsBackendName
)

// Config selects and configures a payload backend.
type Config struct {
	Backend  string
	Root     string
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

// New creates the backend named by cfg.Backend. An empty backend selects
// the local content-addressed tree.
func New(ctx context.Context, cfg Config) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendLocal:
		return NewLocalCAS(cfg.Root)
	case BackendS3:
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Store(ctx, S3Config{Bucket: cfg.Bucket, Region: region, Endpoint: cfg.Endpoint, Prefix: cfg.Prefix})
	case BackendGCS:
		return NewGCSStore(ctx, GCSConfig{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.Backend)
	}
}

// bufferAndHash reads r fully for backends that need the digest before
// choosing an object key.
func bufferAndHash(r io.Reader) ([]byte, PutResult, error) {
	if r == nil {
		return nil, PutResult{}, fmt.Errorf("reader is required")
	}
	var buf bytes.Buffer
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(&buf, h), r)
	if err != nil {
		return nil, PutResult{}, err
	}
	return buf.Bytes(), PutResult{SHA256: hex.EncodeToString(h.Sum(nil)), SizeBytes: n}, nil
}
