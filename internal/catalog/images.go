package catalog

import (
	"context"
	"fmt"
	"strings"

	"printvault/internal/fingerprint"
	"printvault/internal/models"
)

// CreateOrGetImage stores file as an image, deduplicated by content hash.
// Only PNG and JPEG are accepted; JPEG input is converted to PNG and the
// dedup check repeated on the converted bytes.
func (r *Repository) CreateOrGetImage(ctx context.Context, file models.File, metadata map[string]any) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(file.MediaType))
	if mediaType != models.MediaTypePNG && mediaType != models.MediaTypeJPEG {
		return "", models.Invalidf("unsupported image type %q for %q", file.MediaType, file.Name)
	}
	meta, err := models.NormalizeMetadata(metadata)
	if err != nil {
		return "", err
	}

	hash := fingerprint.ContentHash(file.Data)
	existing, err := r.store.FindImageByHash(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("lookup image: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	if mediaType == models.MediaTypeJPEG {
		converted, err := r.converter.ToPNG(file)
		if err != nil {
			return "", err
		}
		r.logger.Debug("image converted", "from", file.Name, "to", converted.Name)
		file = converted
		hash = fingerprint.ContentHash(file.Data)
	}

	var id string
	err = r.guard.Do(ctx, "image:"+hash, func(ctx context.Context) error {
		existing, err := r.store.FindImageByHash(ctx, hash)
		if err != nil {
			return fmt.Errorf("lookup image: %w", err)
		}
		if existing != nil {
			id = existing.ID
			return nil
		}

		fields, err := r.inspector.Inspect(file.Data)
		if err != nil {
			return err
		}
		for k, v := range fields {
			meta[k] = v
		}

		fileID, err := r.blobs.Put(ctx, file.Data, file.Name, map[string]string{"image_name": file.Name})
		if err != nil {
			return fmt.Errorf("store image %q: %w", file.Name, err)
		}

		image := &models.Image{Name: file.Name, FileID: fileID, HashID: hash, Metadata: meta}
		if err := r.store.CreateImage(ctx, image); err != nil {
			return fmt.Errorf("create image: %w", err)
		}
		r.logger.Info("image created", "image_id", image.ID, "name", file.Name)
		id = image.ID
		return nil
	})
	return id, err
}

// CreateImageCollection stores every image and inserts a new collection
// listing them in order. Identical collections are not deduplicated.
func (r *Repository) CreateImageCollection(ctx context.Context, name string, images []models.File, metadata map[string]any) (string, error) {
	meta, err := models.NormalizeMetadata(metadata)
	if err != nil {
		return "", err
	}

	imageIDs := make([]string, 0, len(images))
	for _, file := range images {
		id, err := r.CreateOrGetImage(ctx, file, nil)
		if err != nil {
			return "", err
		}
		imageIDs = append(imageIDs, id)
	}

	collection := &models.ImageCollection{Name: name, ImageIDs: imageIDs, Metadata: meta}
	if err := r.store.CreateImageCollection(ctx, collection); err != nil {
		return "", fmt.Errorf("create image collection: %w", err)
	}
	r.logger.Info("image collection created", "collection_id", collection.ID, "images", len(imageIDs))
	return collection.ID, nil
}
