package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const sessionColumns = "id, status, metadata_json, raw_file_ids_json, print_job_id, timeseries_json, image_collection_ids_json, inserted_at"

// CreateSession inserts a session row, generating its id when empty.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	if session.ID == "" {
		id, err := s.newID(ctx, models.KindSession)
		if err != nil {
			return err
		}
		session.ID = id
	}
	if session.InsertedAt.IsZero() {
		session.InsertedAt = time.Now().UTC()
	}

	metadata, err := metadataJSON("metadata_json", session.Metadata)
	if err != nil {
		return err
	}
	rawFiles, err := idsJSON("raw_file_ids_json", session.RawFileIDs)
	if err != nil {
		return err
	}
	series := session.Timeseries
	if series == nil {
		series = map[string]string{}
	}
	seriesJSON, err := toJSON("timeseries_json", series)
	if err != nil {
		return err
	}
	collections, err := idsJSON("image_collection_ids_json", session.ImageCollectionIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Status, metadata, rawFiles, nullIfEmpty(session.PrintJobID),
		seriesJSON, collections, formatTime(session.InsertedAt))
	return err
}

// GetSession returns one session shell, or nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions returns session shells, newest first. A non-positive limit
// returns every session.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY inserted_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		if session != nil {
			sessions = append(sessions, *session)
		}
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (*models.Session, error) {
	session := models.Session{}
	var metadata, rawFiles, printJobID, series, collections sql.NullString
	var insertedAt string

	err := row.Scan(&session.ID, &session.Status, &metadata, &rawFiles, &printJobID, &series, &collections, &insertedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	session.PrintJobID = printJobID.String
	if session.Metadata, err = decodeMetadata("metadata_json", metadata); err != nil {
		return nil, err
	}
	if session.RawFileIDs, err = decodeIDs("raw_file_ids_json", rawFiles); err != nil {
		return nil, err
	}
	if session.ImageCollectionIDs, err = decodeIDs("image_collection_ids_json", collections); err != nil {
		return nil, err
	}
	session.Timeseries = map[string]string{}
	if err := fromJSON("timeseries_json", series, &session.Timeseries); err != nil {
		return nil, err
	}
	if session.InsertedAt, err = parseTime(insertedAt); err != nil {
		return nil, err
	}
	return &session, nil
}
