package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/models"
	"chatbot-vector-engine/services"
)

const (
	TaskIngestDocuments = "vector:ingest"
	TaskDeleteSources   = "vector:delete"
	TaskConfigUpdate    = "vector:config_update"
	TaskTenantDelete    = "vector:tenant_delete"
)

// Every task runs with MaxRetry(0). The lease layer treats a resubmitted
// event as a duplicate inside its TTL window, so queue-level retries would
// only burn work to be suppressed; failed documents are reported and the
// control plane decides whether to resubmit.

type IngestPayload struct {
	TenantKey string            `json:"tenant_key"`
	ConfigID  string            `json:"config_id"`
	Documents []models.Document `json:"documents"`
}

type DeletePayload struct {
	TenantKey string   `json:"tenant_key"`
	ConfigID  string   `json:"config_id"`
	Sources   []string `json:"sources"`
}

type ConfigUpdatePayload struct {
	TenantKey string            `json:"tenant_key"`
	ConfigID  string            `json:"config_id"`
	Removed   []string          `json:"removed"`
	Added     []models.Document `json:"added"`
}

type TenantDeletePayload struct {
	TenantKey string `json:"tenant_key"`
}

// Task creators
func NewIngestTask(tenantKey, configID string, docs []models.Document) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		TenantKey: tenantKey,
		ConfigID:  configID,
		Documents: docs,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocuments,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(15*time.Minute),
		asynq.Queue("ingest"),
	), nil
}

func NewDeleteTask(tenantKey, configID string, sources []string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeletePayload{
		TenantKey: tenantKey,
		ConfigID:  configID,
		Sources:   sources,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDeleteSources,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewConfigUpdateTask(tenantKey, configID string, removed []string, added []models.Document) (*asynq.Task, error) {
	payload, err := json.Marshal(ConfigUpdatePayload{
		TenantKey: tenantKey,
		ConfigID:  configID,
		Removed:   removed,
		Added:     added,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskConfigUpdate,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(15*time.Minute),
		asynq.Queue("ingest"),
	), nil
}

func NewTenantDeleteTask(tenantKey string) (*asynq.Task, error) {
	payload, err := json.Marshal(TenantDeletePayload{TenantKey: tenantKey})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskTenantDelete,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// Task handlers
type TaskProcessor struct {
	orchestrator *services.Orchestrator
}

func NewTaskProcessor(orchestrator *services.Orchestrator) *TaskProcessor {
	return &TaskProcessor{orchestrator: orchestrator}
}

func (p *TaskProcessor) HandleIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	tn := tenant.Resolve(payload.TenantKey)
	logger.Info("Processing ingest task", "tenant", tn.Key(), "documents", len(payload.Documents))

	result, err := p.orchestrator.IngestBatch(ctx, tn, payload.ConfigID, payload.Documents)
	if err != nil {
		return err
	}
	if result.Skipped {
		logger.Info("Ingest task suppressed as duplicate", "tenant", tn.Key())
		return nil
	}

	failed := 0
	for _, d := range result.Documents {
		if !d.Success {
			failed++
		}
	}
	if failed > 0 {
		logger.Warn("Ingest task finished with failures", "tenant", tn.Key(), "failed", failed, "total", len(result.Documents))
	}
	return nil
}

func (p *TaskProcessor) HandleDelete(ctx context.Context, t *asynq.Task) error {
	var payload DeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	tn := tenant.Resolve(payload.TenantKey)
	result, err := p.orchestrator.DeleteSources(ctx, tn, payload.ConfigID, payload.Sources)
	if err != nil {
		return err
	}
	if !result.Success {
		logger.Warn("Deletion task finished with failures", "tenant", tn.Key(), "failed", result.Failed)
	}
	return nil
}

func (p *TaskProcessor) HandleConfigUpdate(ctx context.Context, t *asynq.Task) error {
	var payload ConfigUpdatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	tn := tenant.Resolve(payload.TenantKey)
	_, _, err := p.orchestrator.ApplyConfigChange(ctx, tn, payload.ConfigID, payload.Removed, payload.Added)
	return err
}

func (p *TaskProcessor) HandleTenantDelete(ctx context.Context, t *asynq.Task) error {
	var payload TenantDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	tn := tenant.Resolve(payload.TenantKey)
	deleted, err := p.orchestrator.RemoveTenant(ctx, tn)
	if err != nil {
		return err
	}
	logger.Info("Tenant removed", "tenant", tn.Key(), "index_deleted", deleted)
	return nil
}

// Register wires all handlers onto the worker mux.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskIngestDocuments, p.HandleIngest)
	mux.HandleFunc(TaskDeleteSources, p.HandleDelete)
	mux.HandleFunc(TaskConfigUpdate, p.HandleConfigUpdate)
	mux.HandleFunc(TaskTenantDelete, p.HandleTenantDelete)
}
