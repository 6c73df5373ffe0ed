package services

import (
	"context"
	"fmt"
	"testing"

	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/internal/vectorstore"
	"chatbot-vector-engine/models"
)

func testDeletionEngine(t *testing.T) (*DeletionEngine, *vectorstore.MemoryStore) {
	t.Helper()
	cfg := testRegistryConfig()
	store := vectorstore.NewMemoryStore()
	reg := NewIndexRegistry(cfg, store, nil)
	eng := NewDeletionEngine(cfg, store, reg, nil)
	eng.batchDelay = 0
	return eng, store
}

func seedSource(t *testing.T, store *vectorstore.MemoryStore, index, ns, source string, n int) {
	t.Helper()
	store.CreateIndex(context.Background(), index)
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ID:        fmt.Sprintf("%s-%d", source, i),
			Text:      "chunk",
			Embedding: []float32{0.1, 0.1, 0.1},
			Metadata:  models.ChunkMetadata{Source: source, Tenant: ns, ChunkIndex: i},
		}
	}
	if err := store.Upsert(context.Background(), index, ns, chunks); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestDeleteBySourceRemovesAllChunks(t *testing.T) {
	ctx := context.Background()
	eng, store := testDeletionEngine(t)
	tn := tenant.Shared()

	seedSource(t, store, "chat-bot", "default", "handbook.pdf", 250)
	seedSource(t, store, "chat-bot", "default", "other.pdf", 3)

	deleted, err := eng.DeleteBySource(ctx, tn, "handbook.pdf")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 250 {
		t.Fatalf("deleted %d chunks, want 250", deleted)
	}

	stats, _ := store.Stats(ctx, "chat-bot")
	if stats.TotalVectors != 3 {
		t.Fatalf("other source lost chunks, %d left", stats.TotalVectors)
	}
}

func TestDeleteBySourceUnknownSourceIsNoop(t *testing.T) {
	eng, store := testDeletionEngine(t)
	seedSource(t, store, "chat-bot", "default", "kept.pdf", 2)

	deleted, err := eng.DeleteBySource(context.Background(), tenant.Shared(), "never-uploaded.pdf")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted %d chunks from an unknown source", deleted)
	}
}

func TestDeleteBySourceScopedToNamespace(t *testing.T) {
	ctx := context.Background()
	eng, store := testDeletionEngine(t)

	seedSource(t, store, "chat-bot", "default", "shared.pdf", 4)
	seedSource(t, store, "chat-bot", "acme", "shared.pdf", 4)

	if _, err := eng.DeleteBySource(ctx, tenant.Shared(), "shared.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stats, _ := store.Stats(ctx, "chat-bot")
	if stats.Namespaces["acme"] != 4 {
		t.Fatalf("deletion leaked into another namespace: %+v", stats.Namespaces)
	}
	if stats.Namespaces["default"] != 0 {
		t.Fatalf("target namespace not emptied: %+v", stats.Namespaces)
	}
}
