package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const printerColumns = "id, printer_id, info_json, status, inserted_at"

// CreatePrinter inserts a printer row, generating its id when empty.
func (s *Store) CreatePrinter(ctx context.Context, printer *models.Printer) error {
	if printer == nil {
		return fmt.Errorf("printer is required")
	}
	if printer.ID == "" {
		id, err := s.newID(ctx, models.KindPrinter)
		if err != nil {
			return err
		}
		printer.ID = id
	}
	if printer.InsertedAt.IsZero() {
		printer.InsertedAt = time.Now().UTC()
	}

	info, err := metadataJSON("info_json", printer.Info)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO printers (`+printerColumns+`) VALUES (?, ?, ?, ?, ?)`,
		printer.ID, printer.PrinterID, info, printer.Status, formatTime(printer.InsertedAt))
	return err
}

// GetPrinter returns one printer, or nil when absent.
func (s *Store) GetPrinter(ctx context.Context, id string) (*models.Printer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+printerColumns+` FROM printers WHERE id = ?`, id)
	return scanPrinter(row)
}

// FindPrinterByNaturalID returns the earliest printer registered under the
// natural identifier, or nil.
func (s *Store) FindPrinterByNaturalID(ctx context.Context, naturalID string) (*models.Printer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+printerColumns+` FROM printers WHERE printer_id = ? ORDER BY inserted_at ASC, id ASC LIMIT 1`, naturalID)
	return scanPrinter(row)
}

// GetPrintersAndObjects resolves ids against both the printers and objects
// collections in a single query. Each id is returned from whichever
// collection holds it.
func (s *Store) GetPrintersAndObjects(ctx context.Context, ids []string) ([]models.Printer, []models.Object, error) {
	ids = uniqueIDs(ids)
	printers := []models.Printer{}
	objects := []models.Object{}
	if len(ids) == 0 {
		return printers, objects, nil
	}

	in := placeholders(len(ids))
	query := `
		SELECT 'printer', id, printer_id, status, info_json, NULL, inserted_at
		FROM printers WHERE id IN (` + in + `)
		UNION ALL
		SELECT 'object', id, hash_id, status, extracted_data_json, file_ids_json, inserted_at
		FROM objects WHERE id IN (` + in + `)`
	args := append(idArgs(ids), idArgs(ids)...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var source, id, key, status, insertedAt string
		var doc, files sql.NullString
		if err := rows.Scan(&source, &id, &key, &status, &doc, &files, &insertedAt); err != nil {
			return nil, nil, err
		}
		inserted, err := parseTime(insertedAt)
		if err != nil {
			return nil, nil, err
		}

		switch source {
		case "printer":
			info, err := decodeMetadata("info_json", doc)
			if err != nil {
				return nil, nil, err
			}
			printers = append(printers, models.Printer{
				ID:         id,
				PrinterID:  key,
				Info:       info,
				Status:     models.IngestStatus(status),
				InsertedAt: inserted,
			})
		case "object":
			extracted, err := decodeMetadata("extracted_data_json", doc)
			if err != nil {
				return nil, nil, err
			}
			fileIDs, err := decodeIDs("file_ids_json", files)
			if err != nil {
				return nil, nil, err
			}
			objects = append(objects, models.Object{
				ID:            id,
				HashID:        key,
				Status:        models.IngestStatus(status),
				FileIDs:       fileIDs,
				ExtractedData: extracted,
				InsertedAt:    inserted,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return printers, objects, nil
}

func scanPrinter(row scanner) (*models.Printer, error) {
	printer := models.Printer{}
	var info sql.NullString
	var insertedAt string

	err := row.Scan(&printer.ID, &printer.PrinterID, &info, &printer.Status, &insertedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if printer.Info, err = decodeMetadata("info_json", info); err != nil {
		return nil, err
	}
	if printer.InsertedAt, err = parseTime(insertedAt); err != nil {
		return nil, err
	}
	return &printer, nil
}
