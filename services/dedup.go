package services

import (
	"context"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/internal/vectorstore"
)

// DedupStore answers "has this source already been ingested for this
// tenant" by probing the vector index itself, so it needs no bookkeeping
// of its own. The probe uses a constant placeholder vector with a metadata
// pre-filter on the source; similarity scores are irrelevant, only whether
// any match comes back.
type DedupStore struct {
	store      vectorstore.Store
	registry   *IndexRegistry
	dimensions int
}

func NewDedupStore(cfg *config.Config, store vectorstore.Store, registry *IndexRegistry) *DedupStore {
	return &DedupStore{
		store:      store,
		registry:   registry,
		dimensions: cfg.VectorDimensions,
	}
}

// Exists reports whether any chunk for the source is present in the
// tenant's namespace, which tells the orchestrator to clear the old
// chunk set before writing the new one. Errors are logged and reported
// as "not present": the worst outcome is an upsert on top of the old
// chunks, never a lost document.
func (d *DedupStore) Exists(ctx context.Context, tn tenant.Tenant, source string) bool {
	matches, err := d.store.Query(ctx, d.registry.Resolve(tn), tn.Namespace(),
		placeholder(d.dimensions), 1, map[string]string{"source": source})
	if err != nil {
		logger.Warn("Duplicate check failed, treating as not present", "source", source, "error", err)
		return false
	}
	return len(matches) > 0
}
