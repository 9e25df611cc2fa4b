package store

import (
	"context"
	"database/sql"
	"fmt"
)

// StoreInfo summarizes the database for operators.
type StoreInfo struct {
	SchemaVersion       int            `json:"schema_version"`
	Collections         map[string]int `json:"collections"`
	QueuedEntities      int            `json:"queued_entities"`
	TotalBlobBytes      int64          `json:"total_blob_bytes"`
	UnlinkedCollections int            `json:"unlinked_image_collections"`
}

var infoTables = []string{"blobs", "sessions", "objects", "print_jobs", "printers", "images", "image_collections", "timeseries", "dictionaries", "scripts"}

// StoreInfo returns per-collection row counts and ingestion health.
func (s *Store) StoreInfo(ctx context.Context) (*StoreInfo, error) {
	info := &StoreInfo{Collections: make(map[string]int, len(infoTables))}

	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&info.SchemaVersion); err != nil {
		return nil, fmt.Errorf("schema version: %w", err)
	}

	for _, table := range infoTables {
		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		info.Collections[table] = count
	}

	var queued int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions WHERE status = 'queued') +
			(SELECT COUNT(*) FROM objects WHERE status = 'queued') +
			(SELECT COUNT(*) FROM print_jobs WHERE status = 'queued') +
			(SELECT COUNT(*) FROM scripts WHERE status = 'queued')
	`).Scan(&queued)
	if err != nil {
		return nil, fmt.Errorf("count queued: %w", err)
	}
	info.QueuedEntities = queued

	var total sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT SUM(size_bytes) FROM blobs").Scan(&total); err != nil {
		return nil, fmt.Errorf("sum blob sizes: %w", err)
	}
	info.TotalBlobBytes = total.Int64

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM image_collections WHERE session_id IS NULL").Scan(&info.UnlinkedCollections); err != nil {
		return nil, fmt.Errorf("count unlinked collections: %w", err)
	}

	return info, nil
}
