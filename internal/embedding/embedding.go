// Package embedding wraps a langchaingo embedder behind the fixed-dimension
// gateway the retrieval engine depends on.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"topic-rag/internal/config"
	"topic-rag/internal/models"
)

type Embedder struct {
	impl *embeddings.EmbedderImpl
	dim  int
}

// New builds an embedder for the configured provider. The dimension is a
// deployment constant that must match the embedding model's output.
func New(cfg *config.LLMConfig, dim int) (*Embedder, error) {
	client, err := newEmbedderClient(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &Embedder{impl: embedder, dim: dim}, nil
}

func newEmbedderClient(cfg *config.LLMConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "ollama", "":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ollama: %v", models.ErrBackendUnavailable, err)
		}
		return llm, nil
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: openai: %v", models.ErrBackendUnavailable, err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

func (e *Embedder) Dimension() int { return e.dim }

// Embed returns the vector for text. Whitespace-only input maps to a zero
// vector instead of failing, so existence probes and blank descriptions
// never crash ingestion.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dim), nil
	}
	return e.impl.EmbedQuery(ctx, text)
}
