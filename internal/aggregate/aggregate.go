// Package aggregate assembles the denormalized read view of a session.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"printvault/internal/models"
)

// Reader is the batched lookup surface the aggregator reads through.
type Reader interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetPrintJob(ctx context.Context, id string) (*models.PrintJob, error)
	GetPrintersAndObjects(ctx context.Context, ids []string) ([]models.Printer, []models.Object, error)
	GetImageCollections(ctx context.Context, ids []string) (map[string]models.ImageCollection, error)
	GetImages(ctx context.Context, ids []string) (map[string]models.Image, error)
	GetTimeseries(ctx context.Context, ids []string) (map[string]models.Timeseries, error)
}

// Aggregator joins a session with everything it references. The number of
// queries per call is fixed: one for the shell, two for the print job side,
// two for image collections and one for timeseries.
type Aggregator struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{reader: reader, logger: logger.With("component", "aggregate")}
}

// GetSession returns the session view for id. References that no longer
// resolve are left out of the view rather than reported. A malformed id
// names no session and is reported as not found.
func (a *Aggregator) GetSession(ctx context.Context, id string) (*models.SessionView, error) {
	if err := models.ValidateID(models.KindSession, id); err != nil {
		return nil, models.NotFoundf("session %q", id)
	}

	session, err := a.reader.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if session == nil {
		return nil, models.NotFoundf("session %s", id)
	}

	view := &models.SessionView{
		Session:              *session,
		ImageCollectionsInfo: []models.ImageCollectionView{},
		TimeseriesInfo:       map[string]models.TimeseriesInfo{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.attachPrintJob(gctx, view) })
	g.Go(func() error { return a.attachImageCollections(gctx, view) })
	g.Go(func() error { return a.attachTimeseries(gctx, view) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Debug("session aggregated", "session_id", id,
		"collections", len(view.ImageCollectionsInfo), "timeseries", len(view.TimeseriesInfo))
	return view, nil
}

func (a *Aggregator) attachPrintJob(ctx context.Context, view *models.SessionView) error {
	if view.PrintJobID == "" {
		return nil
	}
	job, err := a.reader.GetPrintJob(ctx, view.PrintJobID)
	if err != nil {
		return fmt.Errorf("get print job %s: %w", view.PrintJobID, err)
	}
	if job == nil {
		return nil
	}
	view.PrintJobInfo = job

	refs := make([]string, 0, 2)
	if job.PrinterID != "" {
		refs = append(refs, job.PrinterID)
	}
	if job.ObjectID != "" {
		refs = append(refs, job.ObjectID)
	}
	if len(refs) == 0 {
		return nil
	}

	printers, objects, err := a.reader.GetPrintersAndObjects(ctx, refs)
	if err != nil {
		return fmt.Errorf("get printer and object: %w", err)
	}
	for i := range printers {
		if printers[i].ID == job.PrinterID {
			view.PrinterInfo = &printers[i]
		}
	}
	for i := range objects {
		if objects[i].ID == job.ObjectID {
			view.ObjectInfo = &objects[i]
		}
	}
	return nil
}

func (a *Aggregator) attachImageCollections(ctx context.Context, view *models.SessionView) error {
	if len(view.ImageCollectionIDs) == 0 {
		return nil
	}
	collections, err := a.reader.GetImageCollections(ctx, view.ImageCollectionIDs)
	if err != nil {
		return fmt.Errorf("get image collections: %w", err)
	}

	var imageIDs []string
	for _, id := range view.ImageCollectionIDs {
		imageIDs = append(imageIDs, collections[id].ImageIDs...)
	}
	images := map[string]models.Image{}
	if len(imageIDs) > 0 {
		images, err = a.reader.GetImages(ctx, imageIDs)
		if err != nil {
			return fmt.Errorf("get images: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(collections))
	infos := make([]models.ImageCollectionView, 0, len(collections))
	for _, id := range view.ImageCollectionIDs {
		collection, ok := collections[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		resolved := make([]models.Image, 0, len(collection.ImageIDs))
		for _, imageID := range collection.ImageIDs {
			if image, ok := images[imageID]; ok {
				resolved = append(resolved, image)
			}
		}
		infos = append(infos, models.ImageCollectionView{ImageCollection: collection, ImagesInfo: resolved})
	}
	view.ImageCollectionsInfo = infos
	return nil
}

func (a *Aggregator) attachTimeseries(ctx context.Context, view *models.SessionView) error {
	if len(view.Timeseries) == 0 {
		return nil
	}
	ids := make([]string, 0, len(view.Timeseries))
	for _, id := range view.Timeseries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	series, err := a.reader.GetTimeseries(ctx, ids)
	if err != nil {
		return fmt.Errorf("get timeseries: %w", err)
	}

	infos := make(map[string]models.TimeseriesInfo, len(view.Timeseries))
	for name, id := range view.Timeseries {
		if s, ok := series[id]; ok {
			infos[name] = s
		}
	}
	view.TimeseriesInfo = infos
	return nil
}
