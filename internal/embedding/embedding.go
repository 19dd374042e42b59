// Package embedding wraps the external embed(text) -> vector
// capability behind a small interface, with langchaingo-backed
// implementations and a bounded cache.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dmaharana/docchat/internal/config"
)

// Embedder converts text into a fixed-dimension vector. It must be
// deterministic for identical input, which is what makes caching by
// exact text sound.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// langchainEmbedder adapts a langchaingo embedder to the Embedder
// interface.
type langchainEmbedder struct {
	impl *embeddings.EmbedderImpl
}

func (e *langchainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	return vec, nil
}

// NewEmbedder builds an embedder from the configured provider:
// "ollama" for a local Ollama server, anything else is treated as an
// OpenAI-compatible endpoint.
func NewEmbedder(llmConfig *config.LLMConfig) (Embedder, error) {
	var (
		llm embeddings.EmbedderClient
		err error
	)
	switch llmConfig.Provider {
	case "ollama":
		llm, err = ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
	default:
		llm, err = openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
			openai.WithEmbeddingModel(llmConfig.Model),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %w", err)
	}

	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("model", llmConfig.Model).
		Msg("initialized embedder")

	return &langchainEmbedder{impl: impl}, nil
}
