package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"printvault/internal/models"
)

// CreateSession records a printing event. The shell is inserted queued with
// every reference, then each file is stored and the session marked
// ingested. Sessions are never deduplicated.
func (r *Repository) CreateSession(ctx context.Context, files []models.File, metadata map[string]any, printJobID string, timeseries map[string]string, imageCollectionIDs []string) (string, []string, error) {
	if err := models.ValidateOptionalID(models.KindPrintJob, printJobID); err != nil {
		return "", nil, err
	}
	if err := models.ValidateIDs(models.KindImageCollection, imageCollectionIDs); err != nil {
		return "", nil, err
	}
	series := make(map[string]string, len(timeseries))
	names := make([]string, 0, len(timeseries))
	for name := range timeseries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id := timeseries[name]
		if err := models.ValidateID(models.KindTimeseries, id); err != nil {
			return "", nil, fmt.Errorf("timeseries %q: %w", name, err)
		}
		series[name] = id
	}
	meta, err := models.NormalizeMetadata(metadata)
	if err != nil {
		return "", nil, err
	}

	collections := append([]string{}, imageCollectionIDs...)
	session := &models.Session{
		Status:             models.StatusQueued,
		Metadata:           meta,
		RawFileIDs:         []string{},
		PrintJobID:         printJobID,
		Timeseries:         series,
		ImageCollectionIDs: collections,
	}
	if err := r.store.CreateSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	fileIDs, err := r.putFiles(ctx, models.KindSession, session.ID, "session_id", files)
	if err != nil {
		return session.ID, fileIDs, err
	}
	r.logger.Info("session created", "session_id", session.ID, "files", len(fileIDs), "collections", len(collections), "timeseries", len(series))
	return session.ID, fileIDs, nil
}

// LinkSessionToImageCollections sets the session back-reference on each
// collection. Unknown collection ids are ignored.
func (r *Repository) LinkSessionToImageCollections(ctx context.Context, sessionID string, collectionIDs []string) error {
	if err := models.ValidateID(models.KindSession, sessionID); err != nil {
		return err
	}
	if err := models.ValidateIDs(models.KindImageCollection, collectionIDs); err != nil {
		return err
	}
	if len(collectionIDs) == 0 {
		return nil
	}
	updated, err := r.store.SetImageCollectionSession(ctx, sessionID, collectionIDs)
	if err != nil {
		return fmt.Errorf("link session %s: %w", sessionID, err)
	}
	r.logger.Debug("session linked", "session_id", sessionID, "collections", updated)
	return nil
}

// ListSessions returns session shells newest first. A limit of zero or
// less returns all of them.
func (r *Repository) ListSessions(ctx context.Context, limit int) ([]models.Session, error) {
	sessions, err := r.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// CreateScript stores a printer or slicer script. The script name is the
// filename up to its first dot.
func (r *Repository) CreateScript(ctx context.Context, file models.File) (string, string, error) {
	name, _, _ := strings.Cut(file.Name, ".")
	if strings.TrimSpace(name) == "" {
		return "", "", models.Invalidf("script filename %q has no name", file.Name)
	}

	script := &models.Script{Name: name, Status: models.StatusQueued}
	if err := r.store.CreateScript(ctx, script); err != nil {
		return "", "", fmt.Errorf("create script: %w", err)
	}

	blobID, err := r.blobs.Put(ctx, file.Data, file.Name, map[string]string{"script_id": script.ID})
	if err != nil {
		r.logger.Warn("script ingestion stopped", "script_id", script.ID, "error", err)
		return script.ID, "", fmt.Errorf("store script %q: %w", file.Name, err)
	}
	if err := r.store.SetScriptFile(ctx, script.ID, blobID); err != nil {
		return script.ID, blobID, fmt.Errorf("mark script %s ingested: %w", script.ID, err)
	}
	r.logger.Info("script created", "script_id", script.ID, "name", name)
	return script.ID, blobID, nil
}

// ScriptFile returns the blob id holding the script's payload.
func (r *Repository) ScriptFile(ctx context.Context, scriptID string) (string, error) {
	if err := models.ValidateID(models.KindScript, scriptID); err != nil {
		return "", err
	}
	script, err := r.store.GetScript(ctx, scriptID)
	if err != nil {
		return "", fmt.Errorf("get script: %w", err)
	}
	if script == nil || script.FileID == "" {
		return "", models.NotFoundf("script %s", scriptID)
	}
	return script.FileID, nil
}
