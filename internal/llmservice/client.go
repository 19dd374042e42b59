// Package llmservice wraps the external generate(prompt) -> text
// capability. Generation is fallible and latency-unbounded; callers
// own the fallback policy.
package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/dmaharana/docchat/internal/config"
)

type Client struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
}

// NewClient builds a generation client from the configured provider:
// "ollama" for a local Ollama server, anything else is treated as an
// OpenAI-compatible endpoint.
func NewClient(llmConfig *config.LLMConfig) (*Client, error) {
	var (
		llm llms.Model
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
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inference LLM: %w", err)
	}

	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("model", llmConfig.Model).
		Msg("initialized generation client")

	return &Client{
		llm:         llm,
		temperature: llmConfig.Temperature,
		maxTokens:   llmConfig.MaxTokens,
	}, nil
}

// Generate produces text for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	var opts []llms.CallOption
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	res, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	return res.Choices[0].Content, nil
}
