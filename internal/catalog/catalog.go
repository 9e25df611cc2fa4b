// Package catalog is the write side of the vault: typed create operations
// over every collection, each applying its own deduplication policy.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"printvault/internal/models"
)

// Store is the persistence surface the repository writes through.
type Store interface {
	CreateSession(ctx context.Context, session *models.Session) error
	ListSessions(ctx context.Context, limit int) ([]models.Session, error)
	SetFiles(ctx context.Context, kind models.Kind, id string, status models.IngestStatus, fileIDs []string) error

	CreateObject(ctx context.Context, object *models.Object) error
	FindObjectByHash(ctx context.Context, hashID string) (*models.Object, error)

	CreatePrintJob(ctx context.Context, job *models.PrintJob) error
	FindPrintJob(ctx context.Context, printerID, objectID, fileSetHash string) (*models.PrintJob, error)

	CreatePrinter(ctx context.Context, printer *models.Printer) error
	FindPrinterByNaturalID(ctx context.Context, naturalID string) (*models.Printer, error)

	CreateImage(ctx context.Context, image *models.Image) error
	FindImageByHash(ctx context.Context, hashID string) (*models.Image, error)
	CreateImageCollection(ctx context.Context, collection *models.ImageCollection) error
	SetImageCollectionSession(ctx context.Context, sessionID string, ids []string) (int64, error)

	CreateTimeseries(ctx context.Context, series *models.Timeseries) error

	CreateScript(ctx context.Context, script *models.Script) error
	GetScript(ctx context.Context, id string) (*models.Script, error)
	SetScriptFile(ctx context.Context, id, fileID string) error

	CreateDictionary(ctx context.Context, dict *models.Dictionary) error
	GetDictionary(ctx context.Context, id string) (*models.Dictionary, error)
	FindDictionary(ctx context.Context, printer, slicer string) (*models.Dictionary, error)
	ListDictionaries(ctx context.Context) ([]models.Dictionary, error)
	ReplaceDictionary(ctx context.Context, id string, mapping map[string]string) (bool, error)
}

// BlobWriter stores payloads by content.
type BlobWriter interface {
	Put(ctx context.Context, data []byte, filename string, owner map[string]string) (string, error)
}

// Repository creates catalog entities. Every dependency is explicit.
type Repository struct {
	store     Store
	blobs     BlobWriter
	converter ImageConverter
	inspector ImageInspector
	guard     Guard
	logger    *slog.Logger
}

// Option customizes a Repository.
type Option func(*Repository)

// WithGuard sets the dedup guard. The default is NoGuard.
func WithGuard(guard Guard) Option {
	return func(r *Repository) {
		if guard != nil {
			r.guard = guard
		}
	}
}

// WithImageConverter replaces the JPEG to PNG converter.
func WithImageConverter(converter ImageConverter) Option {
	return func(r *Repository) {
		if converter != nil {
			r.converter = converter
		}
	}
}

// WithImageInspector replaces the image metadata extractor.
func WithImageInspector(inspector ImageInspector) Option {
	return func(r *Repository) {
		if inspector != nil {
			r.inspector = inspector
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a repository over store and blobs.
func New(store Store, blobs BlobWriter, opts ...Option) *Repository {
	r := &Repository{
		store:     store,
		blobs:     blobs,
		converter: PNGConverter{},
		inspector: DecodeInspector{},
		guard:     NoGuard{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "catalog")
	return r
}

// putFiles writes each file with the owner tag and records the resulting
// list on the entity. When a write fails the partial list is persisted
// with status queued before the error is returned.
func (r *Repository) putFiles(ctx context.Context, kind models.Kind, id, ownerKey string, files []models.File) ([]string, error) {
	owner := map[string]string{ownerKey: id}
	fileIDs := make([]string, 0, len(files))

	for _, file := range files {
		blobID, err := r.blobs.Put(ctx, file.Data, file.Name, owner)
		if err != nil {
			r.logger.Warn("ingestion stopped", "kind", kind.String(), "id", id, "written", len(fileIDs), "error", err)
			if markErr := r.store.SetFiles(ctx, kind, id, models.StatusQueued, fileIDs); markErr != nil {
				return fileIDs, errors.Join(fmt.Errorf("store %s file %q: %w", kind, file.Name, err), markErr)
			}
			return fileIDs, fmt.Errorf("store %s file %q: %w", kind, file.Name, err)
		}
		fileIDs = append(fileIDs, blobID)
	}

	if err := r.store.SetFiles(ctx, kind, id, models.StatusIngested, fileIDs); err != nil {
		return fileIDs, fmt.Errorf("mark %s %s ingested: %w", kind, id, err)
	}
	return fileIDs, nil
}

func fileBytes(files []models.File) [][]byte {
	out := make([][]byte, len(files))
	for i, file := range files {
		out[i] = file.Data
	}
	return out
}
