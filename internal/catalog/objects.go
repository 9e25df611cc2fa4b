package catalog

import (
	"context"
	"fmt"
	"strings"

	"printvault/internal/fingerprint"
	"printvault/internal/models"
)

// CreateOrGetObject returns the object holding exactly these files, or
// creates one. A dedup hit returns the stored id and blob ids untouched;
// extractedData is not merged. An empty file set always creates a new
// object fingerprinted with the empty sentinel.
func (r *Repository) CreateOrGetObject(ctx context.Context, files []models.File, extractedData map[string]any) (string, []string, error) {
	extracted, err := models.NormalizeMetadata(extractedData)
	if err != nil {
		return "", nil, err
	}
	hash := fingerprint.FileSetHash(fileBytes(files))

	if len(files) == 0 {
		return r.insertObject(ctx, hash, files, extracted)
	}

	var id string
	var fileIDs []string
	err = r.guard.Do(ctx, "object:"+hash, func(ctx context.Context) error {
		existing, err := r.store.FindObjectByHash(ctx, hash)
		if err != nil {
			return fmt.Errorf("lookup object: %w", err)
		}
		if existing != nil {
			r.logger.Debug("object dedup hit", "object_id", existing.ID, "hash_id", hash)
			id, fileIDs = existing.ID, existing.FileIDs
			return nil
		}
		id, fileIDs, err = r.insertObject(ctx, hash, files, extracted)
		return err
	})
	return id, fileIDs, err
}

func (r *Repository) insertObject(ctx context.Context, hash string, files []models.File, extracted models.Metadata) (string, []string, error) {
	object := &models.Object{
		HashID:        hash,
		Status:        models.StatusQueued,
		FileIDs:       []string{},
		ExtractedData: extracted,
	}
	if err := r.store.CreateObject(ctx, object); err != nil {
		return "", nil, fmt.Errorf("create object: %w", err)
	}

	fileIDs, err := r.putFiles(ctx, models.KindObject, object.ID, "object_id", files)
	if err != nil {
		return object.ID, fileIDs, err
	}
	r.logger.Info("object created", "object_id", object.ID, "files", len(fileIDs))
	return object.ID, fileIDs, nil
}

// CreateOrGetPrintJob returns the job with the same printer, object and
// file set, or creates one. The lookup ignores metadata; a new job stores
// the composite of the file-set hash and the canonical metadata hash as
// its hash_id. printerID and objectID are optional.
func (r *Repository) CreateOrGetPrintJob(ctx context.Context, files []models.File, printerID, objectID string, metadata map[string]any) (string, []string, error) {
	if err := models.ValidateOptionalID(models.KindPrinter, printerID); err != nil {
		return "", nil, err
	}
	if err := models.ValidateOptionalID(models.KindObject, objectID); err != nil {
		return "", nil, err
	}
	meta, err := models.NormalizeMetadata(metadata)
	if err != nil {
		return "", nil, err
	}
	fileSetHash := fingerprint.FileSetHash(fileBytes(files))

	if len(files) == 0 {
		return r.insertPrintJob(ctx, files, printerID, objectID, fileSetHash, meta)
	}

	var id string
	var fileIDs []string
	key := "printjob:" + strings.Join([]string{printerID, objectID, fileSetHash}, "|")
	err = r.guard.Do(ctx, key, func(ctx context.Context) error {
		existing, err := r.store.FindPrintJob(ctx, printerID, objectID, fileSetHash)
		if err != nil {
			return fmt.Errorf("lookup print job: %w", err)
		}
		if existing != nil {
			r.logger.Debug("print job dedup hit", "job_id", existing.ID, "file_set_hash", fileSetHash)
			id, fileIDs = existing.ID, existing.FileIDs
			return nil
		}
		id, fileIDs, err = r.insertPrintJob(ctx, files, printerID, objectID, fileSetHash, meta)
		return err
	})
	return id, fileIDs, err
}

func (r *Repository) insertPrintJob(ctx context.Context, files []models.File, printerID, objectID, fileSetHash string, meta models.Metadata) (string, []string, error) {
	composite, err := fingerprint.CompositeHash(fileSetHash, meta)
	if err != nil {
		return "", nil, models.Invalidf("print job metadata: %v", err)
	}

	job := &models.PrintJob{
		PrinterID:   printerID,
		ObjectID:    objectID,
		Status:      models.StatusQueued,
		FileIDs:     []string{},
		FileSetHash: fileSetHash,
		HashID:      composite,
		Metadata:    meta,
	}
	if err := r.store.CreatePrintJob(ctx, job); err != nil {
		return "", nil, fmt.Errorf("create print job: %w", err)
	}

	fileIDs, err := r.putFiles(ctx, models.KindPrintJob, job.ID, "job_id", files)
	if err != nil {
		return job.ID, fileIDs, err
	}
	r.logger.Info("print job created", "job_id", job.ID, "printer_id", printerID, "object_id", objectID, "files", len(fileIDs))
	return job.ID, fileIDs, nil
}

// CreateOrGetPrinter returns the printer registered under naturalID, or
// registers it. A repeat call never updates info.
func (r *Repository) CreateOrGetPrinter(ctx context.Context, naturalID string, info map[string]any) (string, error) {
	naturalID = strings.TrimSpace(naturalID)
	if naturalID == "" {
		return "", models.Invalidf("printer identifier is required")
	}
	normalized, err := models.NormalizeMetadata(info)
	if err != nil {
		return "", err
	}

	var id string
	err = r.guard.Do(ctx, "printer:"+naturalID, func(ctx context.Context) error {
		existing, err := r.store.FindPrinterByNaturalID(ctx, naturalID)
		if err != nil {
			return fmt.Errorf("lookup printer: %w", err)
		}
		if existing != nil {
			id = existing.ID
			return nil
		}

		printer := &models.Printer{PrinterID: naturalID, Info: normalized, Status: models.StatusActive}
		if err := r.store.CreatePrinter(ctx, printer); err != nil {
			return fmt.Errorf("create printer: %w", err)
		}
		r.logger.Info("printer registered", "printer_id", printer.ID, "natural_id", naturalID)
		id = printer.ID
		return nil
	})
	return id, err
}
