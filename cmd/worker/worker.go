package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"chatbot-vector-engine/internal/ai"
	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/lease"
	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/queue"
	"chatbot-vector-engine/internal/telemetry"
	"chatbot-vector-engine/internal/vectorstore"
	"chatbot-vector-engine/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("chatbot-vector-engine-worker")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Initialize the embedder
	embedder, err := ai.NewGeminiEmbedder(cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	// Lease store backend
	var leases lease.Store
	if cfg.LeaseBackend == "redis" {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer rdb.Close()
		leases = lease.NewRedisStore(rdb)
	} else {
		leases = lease.NewMemoryStore()
	}

	// Wire the ingestion engine
	store := vectorstore.NewMongoStore(mongoClient, cfg.VectorDimensions)
	registry := services.NewIndexRegistry(cfg, store, metrics)
	pipeline := services.NewPipeline(cfg, embedder)
	dedup := services.NewDedupStore(cfg, store, registry)
	deletion := services.NewDeletionEngine(cfg, store, registry, metrics)
	records := services.NewRecordService(mongoClient.Database(cfg.DBName))
	orchestrator := services.NewOrchestrator(cfg, store, leases, pipeline, registry, dedup, deletion, records, metrics)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"ingest":  6,
				"default": 4,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor and register handlers
	processor := queue.NewTaskProcessor(orchestrator)
	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("Starting ingestion worker",
		"concurrency", 10,
		"lease_backend", cfg.LeaseBackend,
		"redis", redisOpt.Addr,
	)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
