package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const dictionaryColumns = "id, printer, slicer, mapping_json, created_at, updated_at"

// CreateDictionary inserts a dictionary row, generating its id when empty.
func (s *Store) CreateDictionary(ctx context.Context, dict *models.Dictionary) error {
	if dict == nil {
		return fmt.Errorf("dictionary is required")
	}
	if dict.ID == "" {
		id, err := s.newID(ctx, models.KindDictionary)
		if err != nil {
			return err
		}
		dict.ID = id
	}
	now := time.Now().UTC()
	if dict.CreatedAt.IsZero() {
		dict.CreatedAt = now
	}
	if dict.UpdatedAt.IsZero() {
		dict.UpdatedAt = dict.CreatedAt
	}
	if dict.Mapping == nil {
		dict.Mapping = map[string]string{}
	}

	mapping, err := toJSON("mapping_json", dict.Mapping)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO dictionaries (`+dictionaryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		dict.ID, dict.Printer, dict.Slicer, mapping, formatTime(dict.CreatedAt), formatTime(dict.UpdatedAt))
	return err
}

// GetDictionary returns one dictionary, or nil when absent.
func (s *Store) GetDictionary(ctx context.Context, id string) (*models.Dictionary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dictionaryColumns+` FROM dictionaries WHERE id = ?`, id)
	return scanDictionary(row)
}

// FindDictionary returns the earliest dictionary for the pair, or nil.
func (s *Store) FindDictionary(ctx context.Context, printer, slicer string) (*models.Dictionary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dictionaryColumns+` FROM dictionaries WHERE printer = ? AND slicer = ? ORDER BY created_at ASC, id ASC LIMIT 1`, printer, slicer)
	return scanDictionary(row)
}

// ListDictionaries returns every dictionary ordered by pair.
func (s *Store) ListDictionaries(ctx context.Context) ([]models.Dictionary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+dictionaryColumns+` FROM dictionaries ORDER BY printer ASC, slicer ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dicts := []models.Dictionary{}
	for rows.Next() {
		dict, err := scanDictionary(rows)
		if err != nil {
			return nil, err
		}
		if dict != nil {
			dicts = append(dicts, *dict)
		}
	}
	return dicts, rows.Err()
}

// ReplaceDictionary overwrites the stored mapping. It reports false when
// no dictionary has the id.
func (s *Store) ReplaceDictionary(ctx context.Context, id string, mapping map[string]string) (bool, error) {
	if mapping == nil {
		mapping = map[string]string{}
	}
	encoded, err := toJSON("mapping_json", mapping)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE dictionaries SET mapping_json = ?, updated_at = ? WHERE id = ?`,
		encoded, formatTime(time.Now().UTC()), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanDictionary(row scanner) (*models.Dictionary, error) {
	dict := models.Dictionary{}
	var mapping sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&dict.ID, &dict.Printer, &dict.Slicer, &mapping, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	dict.Mapping = map[string]string{}
	if err := fromJSON("mapping_json", mapping, &dict.Mapping); err != nil {
		return nil, err
	}
	if dict.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if dict.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &dict, nil
}
