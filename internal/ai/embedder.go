package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"chatbot-vector-engine/internal/config"
	"chatbot-vector-engine/internal/logger"
)

// ErrBackendUnavailable is returned when the embedding backend is down or
// the circuit breaker is open. Transient; the caller surfaces it without
// retrying (retries are disabled by design to avoid duplicate writes).
var ErrBackendUnavailable = errors.New("embedding backend unavailable")

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// GeminiEmbedder embeds with Google Generative AI (text-embedding-004,
// 768 dimensions), guarded by a rate limiter and a circuit breaker.
type GeminiEmbedder struct {
	client  *genai.Client
	model   string
	dim     int
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewGeminiEmbedder(cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiEmbeddings",
		MaxRequests: 5,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with a small buffer against clock skew on the API side
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.EmbeddingRPM)*0.9/60.0), cfg.EmbeddingRPM/10+1)

	return &GeminiEmbedder{
		client:  client,
		model:   cfg.GoogleEmbeddingsModel,
		dim:     cfg.VectorDimensions,
		breaker: breaker,
		limiter: limiter,
	}, nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("gemini-embedder")
	ctx, span := tracer.Start(ctx, "gemini.embed_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", g.model),
		attribute.Int("gemini.text_length", len(text)),
	)

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		model := g.client.EmbeddingModel(g.model)
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return nil, fmt.Errorf("embed content: %w", err)
	}

	return result.([]float32), nil
}

func (g *GeminiEmbedder) Dimension() int {
	return g.dim
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
