// Package blobs is the content-addressed blob service: payload bytes go to
// a blobstore backend and one immutable row per digest goes to the store.
package blobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"printvault/internal/blobstore"
	"printvault/internal/fingerprint"
	"printvault/internal/models"
)

const defaultMediaType = "application/octet-stream"

// Index is the blob metadata persistence surface.
type Index interface {
	UpsertBlob(ctx context.Context, blob *models.Blob) (*models.Blob, error)
	GetBlob(ctx context.Context, id string) (*models.Blob, error)
	GetBlobBySHA256(ctx context.Context, sha string) (*models.Blob, error)
	GetBlobs(ctx context.Context, ids []string) (map[string]models.Blob, error)
}

// Store deduplicates payloads by sha256. It never deletes.
type Store struct {
	index    Index
	payloads blobstore.BlobStore
	logger   *slog.Logger
}

// New creates a blob service.
func New(index Index, payloads blobstore.BlobStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		index:    index,
		payloads: payloads,
		logger:   logger.With("component", "blobs"),
	}
}

// Put stores data and returns its blob id. When a blob with the same digest
// exists its id is returned and nothing is written: the stored filename and
// owner tags stay those of the first writer.
func (s *Store) Put(ctx context.Context, data []byte, filename string, owner map[string]string) (string, error) {
	digest := fingerprint.ContentHash(data)

	existing, err := s.index.GetBlobBySHA256(ctx, digest)
	if err != nil {
		return "", fmt.Errorf("lookup blob %s: %w", digest, err)
	}
	if existing != nil {
		s.logger.Debug("blob dedup hit", "blob_id", existing.ID, "sha256", digest)
		return existing.ID, nil
	}

	stored, err := s.payloads.Put(ctx, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}

	tags := make(map[string]string, len(owner))
	for key, value := range owner {
		tags[key] = value
	}

	canonical, err := s.index.UpsertBlob(ctx, &models.Blob{
		SHA256:         stored.SHA256,
		SizeBytes:      stored.SizeBytes,
		Filename:       filename,
		Owner:          tags,
		StorageBackend: s.payloads.Name(),
		BlobKey:        stored.BlobKey,
	})
	if err != nil {
		return "", fmt.Errorf("record blob: %w", err)
	}

	s.logger.Debug("blob stored", "blob_id", canonical.ID, "sha256", digest, "size", stored.SizeBytes)
	return canonical.ID, nil
}

// Get returns the payload and stored filename of a blob.
func (s *Store) Get(ctx context.Context, id string) ([]byte, string, error) {
	blob, err := s.lookup(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.read(ctx, blob)
	if err != nil {
		return nil, "", err
	}
	return data, blob.Filename, nil
}

// Open returns the payload as a File. The name falls back to the blob id
// and the media type is guessed from the name's extension.
func (s *Store) Open(ctx context.Context, id string) (*models.File, error) {
	blob, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.read(ctx, blob)
	if err != nil {
		return nil, err
	}

	name := blob.Filename
	if name == "" {
		name = blob.ID
	}
	return &models.File{Name: name, MediaType: MediaTypeFor(name), Data: data}, nil
}

// Stat returns the blob row without reading the payload.
func (s *Store) Stat(ctx context.Context, id string) (*models.Blob, error) {
	return s.lookup(ctx, id)
}

// Archive writes a deflate zip with one entry per id, in the given order.
// Entry names are the stored filenames, or the id when a blob has none.
// Repeated names are written as-is. Every id is resolved before anything
// is written, so an unknown id fails without partial output.
func (s *Store) Archive(ctx context.Context, w io.Writer, ids []string) error {
	if err := models.ValidateIDs(models.KindBlob, ids); err != nil {
		return err
	}
	rows, err := s.index.GetBlobs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lookup blobs: %w", err)
	}
	for _, id := range ids {
		if _, ok := rows[id]; !ok {
			return models.NotFoundf("blob %s", id)
		}
	}

	zw := zip.NewWriter(w)
	for _, id := range ids {
		blob := rows[id]
		name := blob.Filename
		if name == "" {
			name = blob.ID
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: blob.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", name, err)
		}
		if err := s.copyPayload(ctx, entry, &blob); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}

	s.logger.Debug("archive written", "entries", len(ids))
	return nil
}

// MediaTypeFor guesses a media type from the filename extension.
func MediaTypeFor(name string) string {
	if mediaType := mime.TypeByExtension(filepath.Ext(name)); mediaType != "" {
		return mediaType
	}
	return defaultMediaType
}

func (s *Store) lookup(ctx context.Context, id string) (*models.Blob, error) {
	if err := models.ValidateID(models.KindBlob, id); err != nil {
		return nil, err
	}
	blob, err := s.index.GetBlob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup blob %s: %w", id, err)
	}
	if blob == nil {
		return nil, models.NotFoundf("blob %s", id)
	}
	return blob, nil
}

func (s *Store) read(ctx context.Context, blob *models.Blob) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.copyPayload(ctx, &buf, blob); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Store) copyPayload(ctx context.Context, w io.Writer, blob *models.Blob) error {
	rc, err := s.payloads.Open(ctx, blob.BlobKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return models.NotFoundf("payload of blob %s", blob.ID)
		}
		return fmt.Errorf("open payload of blob %s: %w", blob.ID, err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("read payload of blob %s: %w", blob.ID, err)
	}
	return nil
}
