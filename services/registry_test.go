package services

import (
	"context"
	"errors"
	"testing"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/internal/vectorstore"
	"chatbot-vector-engine/models"
)

func testRegistryConfig() *config.Config {
	return &config.Config{
		DefaultIndexName:     "chat-bot",
		VectorDimensions:     3,
		IndexPollInterval:    0,
		IndexPollMaxAttempts: 2,
		IndexSettleDelay:     0,
	}
}

func TestEnsureReadyProvisionsOnFirstUse(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	reg := NewIndexRegistry(testRegistryConfig(), store, nil)

	tn := tenant.Isolated("acme")
	name, err := reg.EnsureReady(ctx, tn)
	if err != nil {
		t.Fatalf("ensure ready: %v", err)
	}
	if name != "chatbot-acme" {
		t.Fatalf("got index %q", name)
	}

	exists, _ := store.IndexExists(ctx, "chatbot-acme")
	if !exists {
		t.Fatal("index was not provisioned")
	}

	// Second call finds the existing index.
	if _, err := reg.EnsureReady(ctx, tn); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
}

func TestEnsureReadyTimeoutIsSoft(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	store.DefaultReady = false
	reg := NewIndexRegistry(testRegistryConfig(), store, nil)

	name, err := reg.EnsureReady(context.Background(), tenant.Isolated("slow"))
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("got %v, want ErrIndexNotReady", err)
	}
	if name != "chatbot-slow" {
		t.Fatalf("index name %q should be usable despite the timeout", name)
	}
}

func TestTeardownRefusesSharedIndex(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	store.CreateIndex(ctx, "chat-bot")
	reg := NewIndexRegistry(testRegistryConfig(), store, nil)

	deleted, err := reg.Teardown(ctx, tenant.Shared())
	if err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if deleted {
		t.Fatal("shared default index must never be deleted")
	}
	if exists, _ := store.IndexExists(ctx, "chat-bot"); !exists {
		t.Fatal("shared index is gone")
	}
}

func TestTeardownMissingIndexIsSuccess(t *testing.T) {
	reg := NewIndexRegistry(testRegistryConfig(), vectorstore.NewMemoryStore(), nil)

	deleted, err := reg.Teardown(context.Background(), tenant.Isolated("never-created"))
	if err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if !deleted {
		t.Fatal("missing index teardown should report success")
	}
}

func TestClearNamespaceOnlyTouchesPopulated(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	store.CreateIndex(ctx, "chat-bot")
	store.Upsert(ctx, "chat-bot", "default", []models.Chunk{
		{ID: "c1", Embedding: []float32{1, 0, 0}, Metadata: models.ChunkMetadata{Source: "a.txt", Tenant: "default"}},
	})
	reg := NewIndexRegistry(testRegistryConfig(), store, nil)

	if err := reg.ClearNamespace(ctx, tenant.Shared()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	stats, _ := store.Stats(ctx, "chat-bot")
	if stats.TotalVectors != 0 {
		t.Fatalf("namespace not cleared, %d vectors left", stats.TotalVectors)
	}

	// Clearing again is a no-op.
	if err := reg.ClearNamespace(ctx, tenant.Shared()); err != nil {
		t.Fatalf("re-clear: %v", err)
	}
}

func TestClearNamespaceOnUnprovisionedIndex(t *testing.T) {
	reg := NewIndexRegistry(testRegistryConfig(), vectorstore.NewMemoryStore(), nil)

	if err := reg.ClearNamespace(context.Background(), tenant.Shared()); err != nil {
		t.Fatalf("clearing before the index exists must be a no-op, got %v", err)
	}
}
