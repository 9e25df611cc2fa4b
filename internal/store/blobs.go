package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"printvault/internal/models"
)

const blobColumns = "id, sha256, size_bytes, filename, owner_json, storage_backend, blob_key, created_at"

// UpsertBlob inserts a blob row if its digest is absent and returns the
// canonical row for the digest. The first writer's filename and owner win.
func (s *Store) UpsertBlob(ctx context.Context, blob *models.Blob) (*models.Blob, error) {
	if blob == nil {
		return nil, fmt.Errorf("blob is required")
	}
	blob.SHA256 = strings.ToLower(strings.TrimSpace(blob.SHA256))
	blob.BlobKey = strings.TrimSpace(blob.BlobKey)
	if blob.SHA256 == "" {
		return nil, fmt.Errorf("sha256 is required")
	}
	if blob.BlobKey == "" {
		return nil, fmt.Errorf("blob_key is required")
	}
	if blob.SizeBytes < 0 {
		return nil, fmt.Errorf("size_bytes must be >= 0")
	}
	if strings.TrimSpace(blob.StorageBackend) == "" {
		return nil, fmt.Errorf("storage_backend is required")
	}

	if blob.ID == "" {
		id, err := s.newID(ctx, models.KindBlob)
		if err != nil {
			return nil, err
		}
		blob.ID = id
	}
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = time.Now().UTC()
	}

	owner := blob.Owner
	if owner == nil {
		owner = map[string]string{}
	}
	ownerJSON, err := toJSON("owner_json", owner)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO blobs (`+blobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, blob.ID, blob.SHA256, blob.SizeBytes, nullIfEmpty(blob.Filename), ownerJSON,
		blob.StorageBackend, blob.BlobKey, formatTime(blob.CreatedAt))
	if err != nil {
		return nil, err
	}

	canonical, err := s.GetBlobBySHA256(ctx, blob.SHA256)
	if err != nil {
		return nil, err
	}
	if canonical == nil {
		return nil, fmt.Errorf("blob not found after upsert")
	}
	return canonical, nil
}

// GetBlob returns one blob by id, or nil when absent.
func (s *Store) GetBlob(ctx context.Context, id string) (*models.Blob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE id = ?`, id)
	return scanBlob(row)
}

// GetBlobBySHA256 returns one blob by digest, or nil when absent.
func (s *Store) GetBlobBySHA256(ctx context.Context, sha string) (*models.Blob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE sha256 = ?`, strings.ToLower(strings.TrimSpace(sha)))
	return scanBlob(row)
}

// GetBlobs returns the blobs for ids keyed by id. Unknown ids are absent.
func (s *Store) GetBlobs(ctx context.Context, ids []string) (map[string]models.Blob, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]models.Blob, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		blob, err := scanBlob(rows)
		if err != nil {
			return nil, err
		}
		if blob != nil {
			out[blob.ID] = *blob
		}
	}
	return out, rows.Err()
}

// CountBlobs returns the number of stored blob rows.
func (s *Store) CountBlobs(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blobs").Scan(&count)
	return count, err
}

func scanBlob(row scanner) (*models.Blob, error) {
	blob := models.Blob{}
	var filename, ownerJSON sql.NullString
	var createdAt string

	err := row.Scan(&blob.ID, &blob.SHA256, &blob.SizeBytes, &filename, &ownerJSON, &blob.StorageBackend, &blob.BlobKey, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	blob.Filename = filename.String
	blob.Owner = map[string]string{}
	if err := fromJSON("owner_json", ownerJSON, &blob.Owner); err != nil {
		return nil, err
	}
	blob.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &blob, nil
}
