package models

import "time"

// ChunkMetadata is attached to every vector written into an index.
// Source plus Tenant uniquely identifies a logical document version.
type ChunkMetadata struct {
	Source      string            `json:"source" bson:"source"`
	Tenant      string            `json:"tenant" bson:"tenant"`
	ChunkIndex  int               `json:"chunk_index" bson:"chunk_index"`
	ProcessedAt time.Time         `json:"processed_at" bson:"processed_at"`
	Tags        map[string]string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// Chunk is one embedded window of document text. Immutable once written.
type Chunk struct {
	ID        string        `json:"chunk_id" bson:"chunk_id"`
	Text      string        `json:"text" bson:"text"`
	Embedding []float32     `json:"embedding,omitempty" bson:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata" bson:"metadata"`
}
