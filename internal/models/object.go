package models

import "time"

// Object is a printable design: the source files a print job was sliced from.
type Object struct {
	ID            string       `json:"id"`
	HashID        string       `json:"hash_id"`
	Status        IngestStatus `json:"status"`
	FileIDs       []string     `json:"file_ids"`
	ExtractedData Metadata     `json:"extracted_data"`
	InsertedAt    time.Time    `json:"inserted_at"`
}
