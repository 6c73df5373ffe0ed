package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/telemetry"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/internal/vectorstore"
)

// IndexRegistry owns the physical index lifecycle: resolving tenants to
// index names, provisioning on first use, and teardown when a tenant goes
// away. The shared default index is permanent and never torn down.
type IndexRegistry struct {
	store vectorstore.Store

	defaultIndex    string
	pollInterval    time.Duration
	pollMaxAttempts int
	settleDelay     time.Duration

	metrics *telemetry.Metrics
}

func NewIndexRegistry(cfg *config.Config, store vectorstore.Store, metrics *telemetry.Metrics) *IndexRegistry {
	return &IndexRegistry{
		store:           store,
		defaultIndex:    cfg.DefaultIndexName,
		pollInterval:    cfg.IndexPollInterval,
		pollMaxAttempts: cfg.IndexPollMaxAttempts,
		settleDelay:     cfg.IndexSettleDelay,
		metrics:         metrics,
	}
}

// Resolve maps a tenant to its physical index name without touching the
// backend.
func (r *IndexRegistry) Resolve(tn tenant.Tenant) string {
	return tn.IndexName(r.defaultIndex)
}

// EnsureReady provisions the tenant's index if missing and waits for it to
// become queryable. A provisioning timeout is soft: the index name is still
// returned alongside ErrIndexNotReady and callers proceed, since writes
// queue up behind index builds on the backend anyway.
func (r *IndexRegistry) EnsureReady(ctx context.Context, tn tenant.Tenant) (string, error) {
	name := r.Resolve(tn)

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to check index %s: %w", name, err)
	}

	if !exists {
		logger.Info("Creating vector index", "index", name, "tenant", tn.Key())
		if err := r.store.CreateIndex(ctx, name); err != nil {
			return "", fmt.Errorf("failed to create index %s: %w", name, err)
		}
		if r.metrics != nil {
			r.metrics.RecordIndexLifecycle(name, "created")
		}
	}

	for attempt := 0; attempt < r.pollMaxAttempts; attempt++ {
		ready, err := r.store.IndexReady(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to poll index %s: %w", name, err)
		}
		if ready {
			return name, nil
		}
		if err := sleepCtx(ctx, r.pollInterval); err != nil {
			return "", err
		}
	}

	logger.Warn("Index not ready after poll window, proceeding", "index", name, "attempts", r.pollMaxAttempts)
	return name, ErrIndexNotReady
}

// Teardown removes an isolated tenant's physical index. It refuses the
// shared tenant (the default index holds every admin namespace) and treats
// an already-missing index as success.
func (r *IndexRegistry) Teardown(ctx context.Context, tn tenant.Tenant) (bool, error) {
	if !tn.Isolated() {
		logger.Warn("Refusing to tear down the shared default index", "index", r.defaultIndex)
		return false, nil
	}

	name := r.Resolve(tn)
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	if !exists {
		return true, nil
	}

	if err := r.store.DeleteIndex(ctx, name); err != nil {
		return false, fmt.Errorf("failed to delete index %s: %w", name, err)
	}
	if r.metrics != nil {
		r.metrics.RecordIndexLifecycle(name, "deleted")
	}

	logger.Info("Vector index deleted", "index", name, "tenant", tn.Key())
	return true, sleepCtx(ctx, r.settleDelay)
}

// ClearNamespace drops a tenant's namespace inside the shared index. Stats
// are checked first so an empty or unknown namespace is a no-op.
func (r *IndexRegistry) ClearNamespace(ctx context.Context, tn tenant.Tenant) error {
	name := r.Resolve(tn)

	stats, err := r.store.Stats(ctx, name)
	if errors.Is(err, vectorstore.ErrIndexNotFound) {
		// Never provisioned means nothing to clear.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stats for %s: %w", name, err)
	}
	if stats.Namespaces[tn.Namespace()] == 0 {
		return nil
	}

	if err := r.store.DeleteNamespace(ctx, name, tn.Namespace()); err != nil {
		return fmt.Errorf("failed to clear namespace %s: %w", tn.Namespace(), err)
	}

	logger.Info("Namespace cleared", "index", name, "namespace", tn.Namespace())
	return nil
}

// Stats reports vector counts for the tenant's index.
func (r *IndexRegistry) Stats(ctx context.Context, tn tenant.Tenant) (*vectorstore.IndexStats, error) {
	return r.store.Stats(ctx, r.Resolve(tn))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
