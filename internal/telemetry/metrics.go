package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the ingestion engine's counters
type Metrics struct {
	DocumentsProcessed metric.Int64Counter
	DocumentsSkipped   metric.Int64Counter
	DocumentsFailed    metric.Int64Counter
	ChunksStored       metric.Int64Counter
	ChunksDeleted      metric.Int64Counter
	IndexesCreated     metric.Int64Counter
	IndexesDeleted     metric.Int64Counter
}

// InitMetrics initializes all ingestion metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("chatbot-vector-engine")

	documentsProcessed, err := meter.Int64Counter(
		"ingest.documents.processed",
		metric.WithDescription("Documents fully ingested into a vector index"),
	)
	if err != nil {
		return nil, err
	}

	documentsSkipped, err := meter.Int64Counter(
		"ingest.documents.skipped",
		metric.WithDescription("Documents skipped as duplicates by lease or content check"),
	)
	if err != nil {
		return nil, err
	}

	documentsFailed, err := meter.Int64Counter(
		"ingest.documents.failed",
		metric.WithDescription("Documents that failed ingestion"),
	)
	if err != nil {
		return nil, err
	}

	chunksStored, err := meter.Int64Counter(
		"ingest.chunks.stored",
		metric.WithDescription("Chunks written into vector indexes"),
	)
	if err != nil {
		return nil, err
	}

	chunksDeleted, err := meter.Int64Counter(
		"ingest.chunks.deleted",
		metric.WithDescription("Chunks removed by source or namespace deletion"),
	)
	if err != nil {
		return nil, err
	}

	indexesCreated, err := meter.Int64Counter(
		"index.created",
		metric.WithDescription("Physical vector indexes provisioned"),
	)
	if err != nil {
		return nil, err
	}

	indexesDeleted, err := meter.Int64Counter(
		"index.deleted",
		metric.WithDescription("Physical vector indexes torn down"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		DocumentsProcessed: documentsProcessed,
		DocumentsSkipped:   documentsSkipped,
		DocumentsFailed:    documentsFailed,
		ChunksStored:       chunksStored,
		ChunksDeleted:      chunksDeleted,
		IndexesCreated:     indexesCreated,
		IndexesDeleted:     indexesDeleted,
	}, nil
}

// RecordDocument records the outcome of one document ingestion
func (m *Metrics) RecordDocument(tenant, outcome string, chunks int64) {
	attrs := metric.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.String("outcome", outcome),
	)

	ctx := context.Background()
	switch outcome {
	case "processed":
		m.DocumentsProcessed.Add(ctx, 1, attrs)
		m.ChunksStored.Add(ctx, chunks, attrs)
	case "skipped":
		m.DocumentsSkipped.Add(ctx, 1, attrs)
	case "failed":
		m.DocumentsFailed.Add(ctx, 1, attrs)
	}
}

// RecordDeletion records chunks removed for a tenant
func (m *Metrics) RecordDeletion(tenant string, chunks int64) {
	m.ChunksDeleted.Add(context.Background(), chunks, metric.WithAttributes(
		attribute.String("tenant", tenant),
	))
}

// RecordIndexLifecycle records index creation or teardown
func (m *Metrics) RecordIndexLifecycle(index, operation string) {
	attrs := metric.WithAttributes(attribute.String("index", index))

	ctx := context.Background()
	switch operation {
	case "created":
		m.IndexesCreated.Add(ctx, 1, attrs)
	case "deleted":
		m.IndexesDeleted.Add(ctx, 1, attrs)
	}
}
