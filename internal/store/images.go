package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const (
	imageColumns      = "id, name, file_id, hash_id, metadata_json, inserted_at"
	collectionColumns = "id, name, image_ids_json, metadata_json, session_id, inserted_at"
)

// CreateImage inserts an image row, generating its id when empty.
func (s *Store) CreateImage(ctx context.Context, image *models.Image) error {
	if image == nil {
		return fmt.Errorf("image is required")
	}
	if image.ID == "" {
		id, err := s.newID(ctx, models.KindImage)
		if err != nil {
			return err
		}
		image.ID = id
	}
	if image.InsertedAt.IsZero() {
		image.InsertedAt = time.Now().UTC()
	}

	metadata, err := metadataJSON("metadata_json", image.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO images (`+imageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		image.ID, image.Name, image.FileID, image.HashID, metadata, formatTime(image.InsertedAt))
	return err
}

// FindImageByHash returns the earliest image with the content hash, or nil.
func (s *Store) FindImageByHash(ctx context.Context, hashID string) (*models.Image, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE hash_id = ? ORDER BY inserted_at ASC, id ASC LIMIT 1`, hashID)
	return scanImage(row)
}

// GetImages returns the images for ids keyed by id. Unknown ids are absent.
func (s *Store) GetImages(ctx context.Context, ids []string) (map[string]models.Image, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]models.Image, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		if image != nil {
			out[image.ID] = *image
		}
	}
	return out, rows.Err()
}

// CreateImageCollection inserts a collection row, generating its id when empty.
func (s *Store) CreateImageCollection(ctx context.Context, collection *models.ImageCollection) error {
	if collection == nil {
		return fmt.Errorf("image collection is required")
	}
	if collection.ID == "" {
		id, err := s.newID(ctx, models.KindImageCollection)
		if err != nil {
			return err
		}
		collection.ID = id
	}
	if collection.InsertedAt.IsZero() {
		collection.InsertedAt = time.Now().UTC()
	}

	images, err := idsJSON("image_ids_json", collection.ImageIDs)
	if err != nil {
		return err
	}
	metadata, err := metadataJSON("metadata_json", collection.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO image_collections (`+collectionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		collection.ID, collection.Name, images, metadata, nullIfEmpty(collection.SessionID), formatTime(collection.InsertedAt))
	return err
}

// GetImageCollections returns the collections for ids keyed by id.
func (s *Store) GetImageCollections(ctx context.Context, ids []string) (map[string]models.ImageCollection, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]models.ImageCollection, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM image_collections WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		collection, err := scanImageCollection(rows)
		if err != nil {
			return nil, err
		}
		if collection != nil {
			out[collection.ID] = *collection
		}
	}
	return out, rows.Err()
}

// SetImageCollectionSession back-fills the owning session on every
// collection in ids. It returns the number of collections updated.
func (s *Store) SetImageCollectionSession(ctx context.Context, sessionID string, ids []string) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	args := append([]any{sessionID}, idArgs(ids)...)
	res, err := s.db.ExecContext(ctx, `UPDATE image_collections SET session_id = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanImage(row scanner) (*models.Image, error) {
	image := models.Image{}
	var metadata sql.NullString
	var insertedAt string

	err := row.Scan(&image.ID, &image.Name, &image.FileID, &image.HashID, &metadata, &insertedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if image.Metadata, err = decodeMetadata("metadata_json", metadata); err != nil {
		return nil, err
	}
	if image.InsertedAt, err = parseTime(insertedAt); err != nil {
		return nil, err
	}
	return &image, nil
}

func scanImageCollection(row scanner) (*models.ImageCollection, error) {
	collection := models.ImageCollection{}
	var images, metadata, sessionID sql.NullString
	var insertedAt string

	err := row.Scan(&collection.ID, &collection.Name, &images, &metadata, &sessionID, &insertedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	collection.SessionID = sessionID.String
	if collection.ImageIDs, err = decodeIDs("image_ids_json", images); err != nil {
		return nil, err
	}
	if collection.Metadata, err = decodeMetadata("metadata_json", metadata); err != nil {
		return nil, err
	}
	if collection.InsertedAt, err = parseTime(insertedAt); err != nil {
		return nil, err
	}
	return &collection, nil
}
