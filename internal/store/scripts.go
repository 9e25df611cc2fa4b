package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const scriptColumns = "id, name, status, file_id, inserted_at"

// CreateScript inserts a script row, generating its id when empty.
func (s *Store) CreateScript(ctx context.Context, script *models.Script) error {
	if script == nil {
		return fmt.Errorf("script is required")
	}
	if script.ID == "" {
		id, err := s.newID(ctx, models.KindScript)
		if err != nil {
			return err
		}
		script.ID = id
	}
	if script.InsertedAt.IsZero() {
		script.InsertedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO scripts (`+scriptColumns+`) VALUES (?, ?, ?, ?, ?)`,
		script.ID, script.Name, script.Status, nullIfEmpty(script.FileID), formatTime(script.InsertedAt))
	return err
}

// GetScript returns one script, or nil when absent.
func (s *Store) GetScript(ctx context.Context, id string) (*models.Script, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scriptColumns+` FROM scripts WHERE id = ?`, id)
	return scanScript(row)
}

// SetScriptFile attaches the payload and marks the script ingested.
func (s *Store) SetScriptFile(ctx context.Context, id, fileID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE scripts SET status = ?, file_id = ? WHERE id = ?`, models.StatusIngested, fileID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NotFoundf("script %s", id)
	}
	return nil
}

func scanScript(row scanner) (*models.Script, error) {
	script := models.Script{}
	var fileID sql.NullString
	var insertedAt string

	err := row.Scan(&script.ID, &script.Name, &script.Status, &fileID, &insertedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	script.FileID = fileID.String
	if script.InsertedAt, err = parseTime(insertedAt); err != nil {
		return nil, err
	}
	return &script, nil
}
