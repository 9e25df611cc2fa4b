package models

import "time"

const (
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
)

// Image is a deduplicated picture. FileID points at the stored payload,
// which is always PNG for images uploaded as JPEG.
type Image struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FileID     string    `json:"file_id"`
	HashID     string    `json:"hash_id"`
	Metadata   Metadata  `json:"metadata"`
	InsertedAt time.Time `json:"inserted_at"`
}

// ImageCollection is an ordered set of images. Collections are never
// deduplicated; SessionID is filled in after the owning session exists.
type ImageCollection struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ImageIDs   []string  `json:"image_file_ids"`
	Metadata   Metadata  `json:"metadata"`
	SessionID  string    `json:"session_id,omitempty"`
	InsertedAt time.Time `json:"inserted_at"`
}
