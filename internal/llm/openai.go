// Package llm wraps an OpenAI-compatible API for text generation and
// embeddings. Both are optional; callers fall back to deterministic paths.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNotConfigured = errors.New("language model not configured")
	ErrEmptyResponse = errors.New("language model returned no choices")
)

// Config selects the backend and generation parameters.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
}

// Client talks to the chat completion and embedding endpoints.
type Client struct {
	api            *openai.Client
	model          string
	embeddingModel string
	maxTokens      int
	temperature    float32
	log            zerolog.Logger
}

// New returns ErrNotConfigured when no API key is set.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}
	return &Client{
		api:            openai.NewClientWithConfig(oc),
		model:          model,
		embeddingModel: embeddingModel,
		maxTokens:      cfg.MaxTokens,
		temperature:    cfg.Temperature,
		log:            log.With().Str("component", "llm").Str("model", model).Logger(),
	}, nil
}

// Generate sends one system instruction and one user prompt. No retries.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	c.log.Debug().Int("promptTokens", resp.Usage.PromptTokens).Int("completionTokens", resp.Usage.CompletionTokens).Msg("generated reply")
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, e := range resp.Data {
		if e.Index < 0 || e.Index >= len(out) {
			return nil, fmt.Errorf("embeddings: index %d out of range", e.Index)
		}
		out[e.Index] = e.Embedding
	}
	return out, nil
}
