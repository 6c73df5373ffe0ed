package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/lease"
	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/telemetry"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/internal/vectorstore"
	"chatbot-vector-engine/models"
)

// Orchestrator drives ingestion and teardown end to end. Duplicate work is
// suppressed at two levels (whole event, then per document) with TTL
// leases, and all mutations for one tenant run strictly one at a time so
// concurrent events cannot interleave writes and deletes.
//
// Nothing here retries. A failed document releases its lease and the batch
// moves on; the caller decides whether to resubmit.
type Orchestrator struct {
	store    vectorstore.Store
	leases   lease.Store
	pipeline *Pipeline
	registry *IndexRegistry
	dedup    *DedupStore
	deletion *DeletionEngine
	records  *RecordService
	metrics  *telemetry.Metrics

	eventLeaseTTL time.Duration
	docLeaseTTL   time.Duration

	tenantLocks sync.Map // tenant key -> chan struct{} with capacity 1
}

func NewOrchestrator(
	cfg *config.Config,
	store vectorstore.Store,
	leases lease.Store,
	pipeline *Pipeline,
	registry *IndexRegistry,
	dedup *DedupStore,
	deletion *DeletionEngine,
	records *RecordService,
	metrics *telemetry.Metrics,
) *Orchestrator {
	return &Orchestrator{
		store:         store,
		leases:        leases,
		pipeline:      pipeline,
		registry:      registry,
		dedup:         dedup,
		deletion:      deletion,
		records:       records,
		metrics:       metrics,
		eventLeaseTTL: cfg.EventLeaseTTL,
		docLeaseTTL:   cfg.DocLeaseTTL,
	}
}

// IngestBatch processes one documents-uploaded event. A live event lease
// for the same tenant and document set suppresses the whole batch; within
// a batch each document is guarded by its own lease, and a source that is
// already indexed has its old chunks deleted before the new ones land.
// Per-document failures release that document's lease and the batch
// continues.
func (o *Orchestrator) IngestBatch(ctx context.Context, tn tenant.Tenant, configID string, docs []models.Document) (*models.BatchResult, error) {
	if len(docs) == 0 {
		return &models.BatchResult{}, nil
	}

	ctx, span := otel.Tracer("orchestrator").Start(ctx, "ingest.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant", tn.Key()),
		attribute.Int("documents", len(docs)),
	)

	eventKey := o.eventKey(tn, sourceNames(docs))
	acquired, err := o.leases.TryAcquire(ctx, eventKey, o.eventLeaseTTL)
	if err != nil {
		logger.Warn("Event lease check failed, processing anyway", "tenant", tn.Key(), "error", err)
		acquired = true
	}
	if !acquired {
		logger.Info("Duplicate event suppressed", "tenant", tn.Key(), "documents", len(docs))
		return &models.BatchResult{Skipped: true}, nil
	}

	unlock, err := o.lockTenant(ctx, tn.Key())
	if err != nil {
		o.leases.Release(ctx, eventKey)
		return nil, err
	}
	defer unlock()

	result, err := o.ingestLocked(ctx, tn, configID, docs)
	if err != nil {
		o.leases.Release(ctx, eventKey)
		return nil, err
	}

	failed := false
	for _, d := range result.Documents {
		if !d.Success {
			failed = true
			break
		}
	}
	if failed {
		// Leave the event retryable; succeeded documents stay covered by
		// their own leases.
		o.leases.Release(ctx, eventKey)
	} else if err := o.leases.Complete(ctx, eventKey, o.eventLeaseTTL); err != nil {
		logger.Warn("Failed to complete event lease", "tenant", tn.Key(), "error", err)
	}
	return result, nil
}

func (o *Orchestrator) ingestLocked(ctx context.Context, tn tenant.Tenant, configID string, docs []models.Document) (*models.BatchResult, error) {
	index, err := o.registry.EnsureReady(ctx, tn)
	if err != nil && err != ErrIndexNotReady {
		return nil, err
	}

	result := &models.BatchResult{Documents: make([]models.IngestResult, 0, len(docs))}
	for _, doc := range docs {
		result.Documents = append(result.Documents, o.ingestOne(ctx, tn, index, doc))
	}

	o.records.TouchUpdatedAt(ctx, configID)
	return result, nil
}

func (o *Orchestrator) ingestOne(ctx context.Context, tn tenant.Tenant, index string, doc models.Document) models.IngestResult {
	source := doc.Source()
	docKey := o.docKey(tn, source)

	acquired, err := o.leases.TryAcquire(ctx, docKey, o.docLeaseTTL)
	if err != nil {
		logger.Warn("Document lease check failed, processing anyway", "source", source, "error", err)
		acquired = true
	}
	if !acquired {
		logger.Info("Duplicate document suppressed by lease", "source", source, "tenant", tn.Key())
		o.recordOutcome(tn, "skipped", 0)
		return models.IngestResult{Success: true, Skipped: true, Source: source}
	}

	// An already-indexed source is superseded: old chunk set out, new
	// bytes in. Leases are the only duplicate-request gate.
	if o.dedup.Exists(ctx, tn, source) {
		logger.Info("Source already indexed, superseding", "source", source, "tenant", tn.Key())
		if _, err := o.deletion.DeleteBySource(ctx, tn, source); err != nil {
			return o.failDocument(ctx, tn, docKey, source, err)
		}
	}

	chunks, err := o.pipeline.Process(ctx, tn, doc)
	if err != nil {
		return o.failDocument(ctx, tn, docKey, source, err)
	}

	if err := o.store.Upsert(ctx, index, tn.Namespace(), chunks); err != nil {
		return o.failDocument(ctx, tn, docKey, source, err)
	}

	if err := o.leases.Complete(ctx, docKey, o.docLeaseTTL); err != nil {
		logger.Warn("Failed to complete document lease", "source", source, "error", err)
	}

	logger.Info("Document ingested", "source", source, "tenant", tn.Key(), "chunks", len(chunks))
	o.recordOutcome(tn, "processed", len(chunks))
	return models.IngestResult{Success: true, ChunksStored: len(chunks), Source: source}
}

// failDocument releases the lease so a resubmission is not mistaken for a
// duplicate, then reports the failure without aborting the batch.
func (o *Orchestrator) failDocument(ctx context.Context, tn tenant.Tenant, docKey, source string, cause error) models.IngestResult {
	if err := o.leases.Release(ctx, docKey); err != nil {
		logger.Warn("Failed to release document lease", "source", source, "error", err)
	}
	logger.Error("Document ingestion failed", "source", source, "tenant", tn.Key(), "error", cause)
	o.recordOutcome(tn, "failed", 0)
	return models.IngestResult{Success: false, Source: source, Error: cause.Error()}
}

// DeleteSources removes every chunk for each listed source. One failing
// source does not stop the rest; failures are reported by name.
func (o *Orchestrator) DeleteSources(ctx context.Context, tn tenant.Tenant, configID string, sources []string) (*models.DeletionResult, error) {
	unlock, err := o.lockTenant(ctx, tn.Key())
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := o.deleteLocked(ctx, tn, sources)
	o.records.TouchUpdatedAt(ctx, configID)
	return result, nil
}

func (o *Orchestrator) deleteLocked(ctx context.Context, tn tenant.Tenant, sources []string) *models.DeletionResult {
	result := &models.DeletionResult{Success: true}
	for _, source := range sources {
		if _, err := o.deletion.DeleteBySource(ctx, tn, source); err != nil {
			logger.Error("Source deletion failed", "source", source, "tenant", tn.Key(), "error", err)
			result.Success = false
			result.Failed = append(result.Failed, source)
			continue
		}
		// Drop any suppression for the source so a future re-upload of the
		// same file is ingested fresh.
		if err := o.leases.Release(ctx, o.docKey(tn, source)); err != nil {
			logger.Warn("Failed to release document lease", "source", source, "error", err)
		}
		result.SourcesProcessed++
	}
	return result
}

// ApplyConfigChange reconciles a config update: chunks for removed sources
// are deleted, then newly added documents are ingested, all under one
// tenant turn so readers never observe a half-applied change.
func (o *Orchestrator) ApplyConfigChange(ctx context.Context, tn tenant.Tenant, configID string, removed []string, added []models.Document) (*models.BatchResult, *models.DeletionResult, error) {
	unlock, err := o.lockTenant(ctx, tn.Key())
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	deletions := o.deleteLocked(ctx, tn, removed)

	var batch *models.BatchResult
	if len(added) > 0 {
		batch, err = o.ingestLocked(ctx, tn, configID, added)
		if err != nil {
			return nil, deletions, err
		}
	} else {
		batch = &models.BatchResult{}
		o.records.TouchUpdatedAt(ctx, configID)
	}
	return batch, deletions, nil
}

// RemoveTenant tears down everything the tenant owns: the whole physical
// index for an isolated tenant, or just its namespace inside the shared
// index. Returns whether an index was actually deleted.
func (o *Orchestrator) RemoveTenant(ctx context.Context, tn tenant.Tenant) (bool, error) {
	unlock, err := o.lockTenant(ctx, tn.Key())
	if err != nil {
		return false, err
	}
	defer unlock()

	if tn.Isolated() {
		return o.registry.Teardown(ctx, tn)
	}
	return false, o.registry.ClearNamespace(ctx, tn)
}

// lockTenant serializes all mutations for one tenant. Waiters queue on a
// buffered channel, so a burst of events for the same tenant runs FIFO
// while different tenants proceed in parallel.
func (o *Orchestrator) lockTenant(ctx context.Context, key string) (func(), error) {
	v, _ := o.tenantLocks.LoadOrStore(key, make(chan struct{}, 1))
	ch := v.(chan struct{})
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// eventKey fingerprints one upload event: same tenant plus same document
// set means the same event regardless of ordering.
func (o *Orchestrator) eventKey(tn tenant.Tenant, sources []string) string {
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	h := sha256.Sum256([]byte(tn.Key() + "\n" + strings.Join(sorted, "\n")))
	return "event:" + hex.EncodeToString(h[:])
}

func (o *Orchestrator) docKey(tn tenant.Tenant, source string) string {
	return "doc:" + tn.Key() + ":" + source
}

func (o *Orchestrator) recordOutcome(tn tenant.Tenant, outcome string, chunks int) {
	if o.metrics != nil {
		o.metrics.RecordDocument(tn.Key(), outcome, int64(chunks))
	}
}

func sourceNames(docs []models.Document) []string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Source()
	}
	return names
}
