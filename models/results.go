package models

// IngestResult reports the outcome for a single document in a batch.
// A duplicate suppressed by a live lease reports Success with Skipped set,
// distinguishable from a genuine failure.
type IngestResult struct {
	Success      bool   `json:"success"`
	Skipped      bool   `json:"skipped,omitempty"`
	ChunksStored int    `json:"chunks_stored"`
	Source       string `json:"source"`
	Error        string `json:"error,omitempty"`
}

// BatchResult reports the outcome of one ingestion event.
type BatchResult struct {
	Skipped   bool           `json:"skipped,omitempty"` // whole event suppressed by the event lease
	Documents []IngestResult `json:"documents,omitempty"`
}

// DeletionResult reports the outcome of a multi-source deletion request.
type DeletionResult struct {
	Success          bool     `json:"success"`
	SourcesProcessed int      `json:"sources_processed"`
	Failed           []string `json:"failed,omitempty"`
}

// SearchResult is one hit from the tenant-scoped read path.
type SearchResult struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}
