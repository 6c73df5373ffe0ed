package services

import (
	"context"

	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/internal/vectorstore"
	"chatbot-vector-engine/models"
)

// SearchService is the tenant-scoped read path over the vector indexes.
// Failures degrade to empty results so the chat surface keeps answering
// without retrieved context.
type SearchService struct {
	store    vectorstore.Store
	registry *IndexRegistry
	pipeline *Pipeline
}

func NewSearchService(store vectorstore.Store, registry *IndexRegistry, pipeline *Pipeline) *SearchService {
	return &SearchService{store: store, registry: registry, pipeline: pipeline}
}

// Search embeds the query and returns the topK most similar chunks from
// the tenant's namespace. An optional metadata filter narrows the match
// set before ranking.
func (s *SearchService) Search(ctx context.Context, tn tenant.Tenant, query string, topK int, filter map[string]string) []models.SearchResult {
	if topK <= 0 {
		topK = 5
	}

	vector, err := s.pipeline.EmbedQuery(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, returning no context", "tenant", tn.Key(), "error", err)
		return nil
	}

	matches, err := s.store.Query(ctx, s.registry.Resolve(tn), tn.Namespace(), vector, topK, filter)
	if err != nil {
		logger.Warn("Vector search failed, returning no context", "tenant", tn.Key(), "error", err)
		return nil
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.SearchResult{
			Content:  m.Text,
			Metadata: m.Metadata,
		})
	}
	return results
}
