package models

import (
	"fmt"
	"strings"
)

// IngestStatus defines the lifecycle states of ingested entities.
type IngestStatus string

const (
	StatusQueued   IngestStatus = "queued"
	StatusIngested IngestStatus = "ingested"
	StatusActive   IngestStatus = "active"
)

// Kind identifies one persisted collection. It doubles as the id prefix.
type Kind string

const (
	KindBlob            Kind = "bl"
	KindSession         Kind = "ss"
	KindObject          Kind = "ob"
	KindPrintJob        Kind = "pj"
	KindPrinter         Kind = "pr"
	KindImage           Kind = "im"
	KindImageCollection Kind = "ic"
	KindTimeseries      Kind = "ts"
	KindDictionary      Kind = "dc"
	KindScript          Kind = "sc"
)

var validStatuses = map[IngestStatus]struct{}{
	StatusQueued:   {},
	StatusIngested: {},
	StatusActive:   {},
}

var kindNames = map[Kind]string{
	KindBlob:            "blob",
	KindSession:         "session",
	KindObject:          "object",
	KindPrintJob:        "print job",
	KindPrinter:         "printer",
	KindImage:           "image",
	KindImageCollection: "image collection",
	KindTimeseries:      "timeseries",
	KindDictionary:      "dictionary",
	KindScript:          "script",
}

func IsValidStatus(status IngestStatus) bool {
	_, ok := validStatuses[status]
	return ok
}

func ParseStatus(raw string) (IngestStatus, error) {
	value := IngestStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

// String returns the human readable collection name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return string(k)
}
