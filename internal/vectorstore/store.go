// Package vectorstore abstracts the vector index backend. The engine only
// needs a handful of primitives: index lifecycle, namespaced upsert,
// filtered similarity query, and deletion. Provisioning policy (polling,
// settle delays) lives in the registry, not here.
package vectorstore

import (
	"context"
	"errors"

	"chatbot-vector-engine/models"
)

// ErrIndexNotFound is returned by lifecycle operations on absent indexes
// where absence is not tolerated. Deletion paths treat it as success.
var ErrIndexNotFound = errors.New("vector index not found")

// Match is one similarity-query hit.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata models.ChunkMetadata
}

// IndexStats summarizes one physical index.
type IndexStats struct {
	IndexName    string
	TotalVectors int64
	Namespaces   map[string]int64
	Dimension    int
}

// Store is the backend contract. Implementations: MongoStore (Atlas Vector
// Search) for deployments, MemoryStore for tests and local development.
type Store interface {
	// CreateIndex provisions the physical index with the store's fixed
	// dimension and cosine metric. Creating an existing index is a no-op.
	CreateIndex(ctx context.Context, name string) error

	IndexExists(ctx context.Context, name string) (bool, error)

	// IndexReady reports whether the index accepts queries yet. Freshly
	// created indexes may take a while to become queryable.
	IndexReady(ctx context.Context, name string) (bool, error)

	// DeleteIndex drops the physical index and everything in it.
	DeleteIndex(ctx context.Context, name string) error

	// Upsert writes chunks into the namespace, replacing any vectors with
	// the same chunk id.
	Upsert(ctx context.Context, index, namespace string, chunks []models.Chunk) error

	// Query runs a similarity search restricted to the namespace. The
	// filter matches chunk metadata fields ("source", "tenant", or a tag
	// key) and is applied before scoring, so the query vector cannot leak
	// results across it.
	Query(ctx context.Context, index, namespace string, vector []float32, topK int, filter map[string]string) ([]Match, error)

	// DeleteByID removes the identified vectors from the namespace.
	// Unknown ids are ignored.
	DeleteByID(ctx context.Context, index, namespace string, ids []string) error

	// DeleteNamespace removes every vector in the namespace in one call.
	DeleteNamespace(ctx context.Context, index, namespace string) error

	Stats(ctx context.Context, index string) (*IndexStats, error)
}
