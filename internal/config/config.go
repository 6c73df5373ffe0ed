package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string

	// Intake API service-to-service auth
	ServiceTokenSecret string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Lease store backend: "memory" for single-instance, "redis" for replicas
	LeaseBackend  string
	DocLeaseTTL   time.Duration
	EventLeaseTTL time.Duration

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// Vector index
	DefaultIndexName     string
	VectorDimensions     int
	IndexPollInterval    time.Duration
	IndexPollMaxAttempts int
	IndexSettleDelay     time.Duration

	// Embeddings
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	EmbeddingRPM          int

	FileStorageDir string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/chatbot_vectors"),
		DBName:   getEnv("DB_NAME", "chatbot_vectors"),
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		ServiceTokenSecret: getEnv("SERVICE_TOKEN_SECRET", ""),

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LeaseBackend:  getEnv("LEASE_BACKEND", "memory"),
		DocLeaseTTL:   getEnvDuration("DOC_LEASE_TTL", 60*time.Second),
		EventLeaseTTL: getEnvDuration("EVENT_LEASE_TTL", 30*time.Second),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		DefaultIndexName:     getEnv("DEFAULT_INDEX_NAME", "chat-bot"),
		VectorDimensions:     getEnvInt("VECTOR_DIM", 768),
		IndexPollInterval:    getEnvDuration("INDEX_POLL_INTERVAL", 2*time.Second),
		IndexPollMaxAttempts: getEnvInt("INDEX_POLL_MAX_ATTEMPTS", 30),
		IndexSettleDelay:     getEnvDuration("INDEX_SETTLE_DELAY", 2*time.Second),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingRPM:          getEnvInt("EMBEDDING_RPM", 100),

		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ServiceTokenSecret == "" {
		return nil, fmt.Errorf("SERVICE_TOKEN_SECRET is required - set it in .env file")
	}

	if cfg.LeaseBackend != "memory" && cfg.LeaseBackend != "redis" {
		return nil, fmt.Errorf("LEASE_BACKEND must be \"memory\" or \"redis\", got %q", cfg.LeaseBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
