package models

import "time"

// Dictionary maps raw slicer field names to canonical names for one
// (printer, slicer) pair. The pair ("", "") is the global registry of
// canonical names.
type Dictionary struct {
	ID        string            `json:"id"`
	Printer   string            `json:"printer"`
	Slicer    string            `json:"slicer"`
	Mapping   map[string]string `json:"dict"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsGlobal reports whether d is the global canonical-name registry.
func (d Dictionary) IsGlobal() bool {
	return d.Printer == "" && d.Slicer == ""
}
