package models

import "time"

// Session groups the raw files, print job, image collections and
// timeseries recorded for one printing event.
type Session struct {
	ID                 string            `json:"id"`
	Status             IngestStatus      `json:"status"`
	Metadata           Metadata          `json:"metadata"`
	RawFileIDs         []string          `json:"raw_file_ids"`
	PrintJobID         string            `json:"print_job_id,omitempty"`
	Timeseries         map[string]string `json:"timeseries"`
	ImageCollectionIDs []string          `json:"image_collections"`
	InsertedAt         time.Time         `json:"inserted_at"`
}

// SessionView is a session enriched with every entity it references.
type SessionView struct {
	Session
	PrintJobInfo         *PrintJob                 `json:"print_job_info,omitempty"`
	PrinterInfo          *Printer                  `json:"printer_info,omitempty"`
	ObjectInfo           *Object                   `json:"object_info,omitempty"`
	ImageCollectionsInfo []ImageCollectionView     `json:"image_collections_info"`
	TimeseriesInfo       map[string]TimeseriesInfo `json:"timeseries_info"`
}

// ImageCollectionView is a collection with its images resolved in order.
type ImageCollectionView struct {
	ImageCollection
	ImagesInfo []Image `json:"images_info"`
}

// TimeseriesInfo is the stored series as attached to a session view.
type TimeseriesInfo = Timeseries
