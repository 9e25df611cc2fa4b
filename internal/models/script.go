package models

import "time"

// Script is a stored printer/slicer script with a single payload.
type Script struct {
	ID         string       `json:"id"`
	Name       string       `json:"script_name"`
	Status     IngestStatus `json:"status"`
	FileID     string       `json:"file_id,omitempty"`
	InsertedAt time.Time    `json:"inserted_at"`
}
