package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatbot-vector-engine/internal/ai"
	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/models"
)

// Pipeline turns a stored document into embedded chunks ready for upsert.
// Load, chunk, embed; every chunk gets a fresh ID and metadata binding it
// to its source and tenant.
type Pipeline struct {
	loader   *DocumentLoader
	chunker  *ChunkingService
	embedder ai.Embedder
}

func NewPipeline(cfg *config.Config, embedder ai.Embedder) *Pipeline {
	return &Pipeline{
		loader:   NewDocumentLoader(cfg),
		chunker:  NewChunkingService(cfg.MaxChunkSize, cfg.ChunkOverlap),
		embedder: embedder,
	}
}

// Process extracts, chunks and embeds one document. A document that
// yields no text fails with ErrEmptyDocument; an embedding failure aborts
// the whole document so partial chunk sets are never written.
func (p *Pipeline) Process(ctx context.Context, tn tenant.Tenant, doc models.Document) ([]models.Chunk, error) {
	text, err := p.loader.Load(ctx, doc)
	if err != nil {
		return nil, err
	}

	pieces := p.chunker.ChunkText(text)
	if len(pieces) == 0 {
		return nil, ErrEmptyDocument
	}

	logger.Debug("Document chunked", "source", doc.Source(), "chunks", len(pieces))

	processedAt := time.Now().UTC()
	chunks := make([]models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		embedding, err := p.embedder.Embed(ctx, piece)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d of %s: %w", i, doc.Source(), err)
		}
		chunks = append(chunks, models.Chunk{
			ID:        uuid.New().String(),
			Text:      piece,
			Embedding: embedding,
			Metadata: models.ChunkMetadata{
				Source:      doc.Source(),
				Tenant:      tn.Key(),
				ChunkIndex:  i,
				ProcessedAt: processedAt,
			},
		})
	}
	return chunks, nil
}

// EmbedQuery embeds free text for the read path.
func (p *Pipeline) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return p.embedder.Embed(ctx, query)
}
