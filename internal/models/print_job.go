package models

import "time"

// PrintJob is one execution of an object on a printer.
//
// FileSetHash is the dedup lookup key together with PrinterID and ObjectID.
// HashID additionally folds in the job metadata and is stored only.
type PrintJob struct {
	ID          string       `json:"id"`
	PrinterID   string       `json:"printer_id,omitempty"`
	ObjectID    string       `json:"object_id,omitempty"`
	Status      IngestStatus `json:"status"`
	FileIDs     []string     `json:"file_ids"`
	FileSetHash string       `json:"file_set_hash"`
	HashID      string       `json:"hash_id"`
	Metadata    Metadata     `json:"metadata"`
	InsertedAt  time.Time    `json:"inserted_at"`
}
