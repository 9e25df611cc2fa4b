package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const printJobColumns = "id, printer_id, object_id, status, file_ids_json, file_set_hash, hash_id, metadata_json, inserted_at"

// CreatePrintJob inserts a print job row, generating its id when empty.
func (s *Store) CreatePrintJob(ctx context.Context, job *models.PrintJob) error {
	if job == nil {
		return fmt.Errorf("print job is required")
	}
	if job.ID == "" {
		id, err := s.newID(ctx, models.KindPrintJob)
		if err != nil {
			return err
		}
		job.ID = id
	}
	if job.InsertedAt.IsZero() {
		job.InsertedAt = time.Now().UTC()
	}

	files, err := idsJSON("file_ids_json", job.FileIDs)
	if err != nil {
		return err
	}
	metadata, err := metadataJSON("metadata_json", job.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO print_jobs (`+printJobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, nullIfEmpty(job.PrinterID), nullIfEmpty(job.ObjectID), job.Status, files,
		job.FileSetHash, job.HashID, metadata, formatTime(job.InsertedAt))
	return err
}

// GetPrintJob returns one print job, or nil when absent.
func (s *Store) GetPrintJob(ctx context.Context, id string) (*models.PrintJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+printJobColumns+` FROM print_jobs WHERE id = ?`, id)
	return scanPrintJob(row)
}

// FindPrintJob looks a job up by printer, object and file-set hash. Empty
// printer or object ids match jobs stored without that reference.
func (s *Store) FindPrintJob(ctx context.Context, printerID, objectID, fileSetHash string) (*models.PrintJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+printJobColumns+` FROM print_jobs
		WHERE file_set_hash = ? AND printer_id IS ? AND object_id IS ?
		ORDER BY inserted_at ASC, id ASC LIMIT 1
	`, fileSetHash, nullIfEmpty(printerID), nullIfEmpty(objectID))
	return scanPrintJob(row)
}

func scanPrintJob(row scanner) (*models.PrintJob, error) {
	job := models.PrintJob{}
	var printerID, objectID, files, metadata sql.NullString
	var insertedAt string

	err := row.Scan(&job.ID, &printerID, &objectID, &job.Status, &files, &job.FileSetHash, &job.HashID, &metadata, &insertedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	job.PrinterID = printerID.String
	job.ObjectID = objectID.String
	if job.FileIDs, err = decodeIDs("file_ids_json", files); err != nil {
		return nil, err
	}
	if job.Metadata, err = decodeMetadata("metadata_json", metadata); err != nil {
		return nil, err
	}
	if job.InsertedAt, err = parseTime(insertedAt); err != nil {
		return nil, err
	}
	return &job, nil
}
