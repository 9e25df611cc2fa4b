package models

import "time"

// Timeseries is one named measurement array. ArraySpan is nil for
// non-numeric data.
type Timeseries struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Data      []any     `json:"data"`
	ArraySize int       `json:"array_size"`
	ArraySpan *float64  `json:"array_span"`
	HashID    string    `json:"hash_id"`
	CreatedAt time.Time `json:"created_at"`
}
