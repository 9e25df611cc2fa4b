package models

// File is one uploaded payload handed to the repository by an ingestion
// collaborator.
type File struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
}

// Size returns the payload length in bytes.
func (f File) Size() int {
	return len(f.Data)
}
