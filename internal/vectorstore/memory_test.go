package vectorstore

import (
	"context"
	"testing"

	"chatbot-vector-engine/models"
)

func seedChunk(id, source, tenant string, embedding []float32) models.Chunk {
	return models.Chunk{
		ID:        id,
		Text:      "text for " + id,
		Embedding: embedding,
		Metadata:  models.ChunkMetadata{Source: source, Tenant: tenant},
	}
}

func TestUpsertReplacesSameChunkID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreateIndex(ctx, "chat-bot"); err != nil {
		t.Fatalf("create index: %v", err)
	}

	first := seedChunk("c1", "a.txt", "default", []float32{1, 0})
	if err := s.Upsert(ctx, "chat-bot", "default", []models.Chunk{first}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := first
	second.Text = "updated"
	if err := s.Upsert(ctx, "chat-bot", "default", []models.Chunk{second}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	matches, err := s.Query(ctx, "chat-bot", "default", []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 (same id must replace)", len(matches))
	}
	if matches[0].Text != "updated" {
		t.Fatalf("got stale text %q", matches[0].Text)
	}
}

func TestQueryFiltersBySource(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateIndex(ctx, "chat-bot")

	s.Upsert(ctx, "chat-bot", "default", []models.Chunk{
		seedChunk("c1", "a.txt", "default", []float32{1, 0}),
		seedChunk("c2", "b.txt", "default", []float32{0.9, 0.1}),
	})

	matches, err := s.Query(ctx, "chat-bot", "default", []float32{0.1, 0.1}, 10,
		map[string]string{"source": "b.txt"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "c2" {
		t.Fatalf("filter on source returned %+v, want only c2", matches)
	}
}

func TestNamespacesAreDisjoint(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateIndex(ctx, "chat-bot")

	s.Upsert(ctx, "chat-bot", "tenant-a", []models.Chunk{seedChunk("c1", "a.txt", "tenant-a", []float32{1, 0})})

	matches, err := s.Query(ctx, "chat-bot", "tenant-b", []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("namespace tenant-b leaked %d chunks from tenant-a", len(matches))
	}
}

func TestDeleteByIDIgnoresUnknownIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateIndex(ctx, "chat-bot")
	s.Upsert(ctx, "chat-bot", "default", []models.Chunk{seedChunk("c1", "a.txt", "default", []float32{1, 0})})

	if err := s.DeleteByID(ctx, "chat-bot", "default", []string{"c1", "missing"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stats, err := s.Stats(ctx, "chat-bot")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalVectors != 0 {
		t.Fatalf("expected empty index, have %d vectors", stats.TotalVectors)
	}
}

func TestDeleteIndexOnMissingIndex(t *testing.T) {
	s := NewMemoryStore()
	if err := s.DeleteIndex(context.Background(), "nope"); err != ErrIndexNotFound {
		t.Fatalf("got %v, want ErrIndexNotFound", err)
	}
}
