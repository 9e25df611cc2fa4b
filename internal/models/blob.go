package models

import "time"

// Blob is an immutable stored payload, addressed by the sha256 of its bytes.
// Owner tags record the first entity that wrote the payload; they are not
// reference counts.
type Blob struct {
	ID             string            `json:"id"`
	SHA256         string            `json:"sha256"`
	SizeBytes      int64             `json:"size_bytes"`
	Filename       string            `json:"filename,omitempty"`
	Owner          map[string]string `json:"owner,omitempty"`
	StorageBackend string            `json:"storage_backend"`
	BlobKey        string            `json:"blob_key"`
	CreatedAt      time.Time         `json:"created_at"`
}
