package models

import "time"

type Printer struct {
	ID         string       `json:"id"`
	PrinterID  string       `json:"printer_id"`
	Info       Metadata     `json:"info"`
	Status     IngestStatus `json:"status"`
	InsertedAt time.Time    `json:"inserted_at"`
}
