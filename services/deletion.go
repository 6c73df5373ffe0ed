package services

import (
	"context"
	"fmt"
	"time"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/telemetry"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/internal/vectorstore"
)

const (
	// deletePageSize bounds how many chunk IDs one query collects per pass.
	deletePageSize = 1000
	// deleteBatchSize bounds each delete call sent to the backend.
	deleteBatchSize = 100
)

// DeletionEngine removes every chunk belonging to a source from a tenant's
// namespace. IDs are collected by metadata query and deleted in small
// batches with a pause between them so bulk removals do not starve reads.
type DeletionEngine struct {
	store      vectorstore.Store
	registry   *IndexRegistry
	dimensions int

	batchDelay  time.Duration
	settleDelay time.Duration

	metrics *telemetry.Metrics
}

func NewDeletionEngine(cfg *config.Config, store vectorstore.Store, registry *IndexRegistry, metrics *telemetry.Metrics) *DeletionEngine {
	return &DeletionEngine{
		store:       store,
		registry:    registry,
		dimensions:  cfg.VectorDimensions,
		batchDelay:  500 * time.Millisecond,
		settleDelay: cfg.IndexSettleDelay,
		metrics:     metrics,
	}
}

// DeleteBySource removes all chunks for one source and returns how many
// were deleted. A source with no chunks is a successful no-op.
func (e *DeletionEngine) DeleteBySource(ctx context.Context, tn tenant.Tenant, source string) (int, error) {
	index := e.registry.Resolve(tn)

	deleted := 0
	for {
		matches, err := e.store.Query(ctx, index, tn.Namespace(),
			placeholder(e.dimensions), deletePageSize, map[string]string{"source": source})
		if err != nil {
			return deleted, fmt.Errorf("failed to find chunks for %s: %w", source, err)
		}
		if len(matches) == 0 {
			break
		}

		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}

		for start := 0; start < len(ids); start += deleteBatchSize {
			end := start + deleteBatchSize
			if end > len(ids) {
				end = len(ids)
			}
			if err := e.store.DeleteByID(ctx, index, tn.Namespace(), ids[start:end]); err != nil {
				return deleted, fmt.Errorf("failed to delete chunk batch for %s: %w", source, err)
			}
			deleted += end - start

			if end < len(ids) {
				if err := sleepCtx(ctx, e.batchDelay); err != nil {
					return deleted, err
				}
			}
		}

		// A page smaller than the query limit means nothing is left behind it.
		if len(matches) < deletePageSize {
			break
		}
		if err := sleepCtx(ctx, e.batchDelay); err != nil {
			return deleted, err
		}
	}

	if deleted > 0 {
		logger.Info("Chunks deleted for source", "source", source, "tenant", tn.Key(), "chunks", deleted)
		if e.metrics != nil {
			e.metrics.RecordDeletion(tn.Key(), int64(deleted))
		}
		if err := sleepCtx(ctx, e.settleDelay); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func placeholder(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = 0.1
	}
	return v
}
