package api

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// InfoResponse describes the served database.
type InfoResponse struct {
	DBPath              string         `json:"db_path"`
	SchemaVersion       int            `json:"schema_version"`
	Collections         map[string]int `json:"collections"`
	QueuedEntities      int            `json:"queued_entities"`
	TotalBlobBytes      int64          `json:"total_blob_bytes"`
	UnlinkedCollections int            `json:"unlinked_image_collections"`
}

// KeysResponse lists canonical dictionary names.
type KeysResponse struct {
	Keys []string `json:"keys"`
}
