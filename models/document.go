package models

import "time"

// Document describes one uploaded file scheduled for ingestion.
type Document struct {
	Name       string    `json:"name"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Source returns the stable identifier joining a document to its chunks.
// The storage path wins when present so that re-uploads of the same file
// resolve to the same key.
func (d Document) Source() string {
	if d.Path != "" {
		return d.Path
	}
	return d.Filename
}
