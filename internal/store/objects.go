package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const objectColumns = "id, hash_id, status, file_ids_json, extracted_data_json, inserted_at"

// CreateObject inserts an object row, generating its id when empty.
func (s *Store) CreateObject(ctx context.Context, object *models.Object) error {
	if object == nil {
		return fmt.Errorf("object is required")
	}
	if object.ID == "" {
		id, err := s.newID(ctx, models.KindObject)
		if err != nil {
			return err
		}
		object.ID = id
	}
	if object.InsertedAt.IsZero() {
		object.InsertedAt = time.Now().UTC()
	}

	files, err := idsJSON("file_ids_json", object.FileIDs)
	if err != nil {
		return err
	}
	extracted, err := metadataJSON("extracted_data_json", object.ExtractedData)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO objects (`+objectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		object.ID, object.HashID, object.Status, files, extracted, formatTime(object.InsertedAt))
	return err
}

// GetObject returns one object, or nil when absent.
func (s *Store) GetObject(ctx context.Context, id string) (*models.Object, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM objects WHERE id = ?`, id)
	return scanObject(row)
}

// FindObjectByHash returns the earliest object with the fingerprint, or nil.
func (s *Store) FindObjectByHash(ctx context.Context, hashID string) (*models.Object, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM objects WHERE hash_id = ? ORDER BY inserted_at ASC, id ASC LIMIT 1`, hashID)
	return scanObject(row)
}

func scanObject(row scanner) (*models.Object, error) {
	object := models.Object{}
	var files, extracted sql.NullString
	var insertedAt string

	err := row.Scan(&object.ID, &object.HashID, &object.Status, &files, &extracted, &insertedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if object.FileIDs, err = decodeIDs("file_ids_json", files); err != nil {
		return nil, err
	}
	if object.ExtractedData, err = decodeMetadata("extracted_data_json", extracted); err != nil {
		return nil, err
	}
	if object.InsertedAt, err = parseTime(insertedAt); err != nil {
		return nil, err
	}
	return &object, nil
}
