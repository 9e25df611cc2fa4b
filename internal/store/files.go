package store

import (
	"context"
	"fmt"

	"printvault/internal/models"
)

// fileListColumns names the column holding the ordered blob-id list per kind.
var fileListColumns = map[models.Kind]string{
	models.KindSession:  "raw_file_ids_json",
	models.KindObject:   "file_ids_json",
	models.KindPrintJob: "file_ids_json",
}

// SetFiles records the blob-id list and status of a two-phase entity.
// It is used both for the final ingested update and for persisting a
// partial list after a failed blob write.
func (s *Store) SetFiles(ctx context.Context, kind models.Kind, id string, status models.IngestStatus, fileIDs []string) error {
	column, ok := fileListColumns[kind]
	if !ok {
		return fmt.Errorf("%s has no file list", kind)
	}
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	encoded, err := idsJSON(column, fileIDs)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET status = ?, `+column+` = ? WHERE id = ?`, status, encoded, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NotFoundf("%s %s", kind, id)
	}
	return nil
}
