package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"scholarag/internal/domain"
	"scholarag/internal/metrics"
)

// Completer generates answers via the chat completions endpoint of an
// OpenAI-compatible API (Groq in the default configuration).
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	topP        float32
	provider    string
	logger      *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	TopP        float32
	Provider    string
	Logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		topP:        cfg.TopP,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// ModelName identifies the completion model.
func (c *Completer) ModelName() string {
	return c.model
}

// Complete implements domain.Completer with a single chat turn.
// Failures wrap domain.ErrGeneration; there is no retry.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		TopP:        c.topP,
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return "", parseAPIError("completion", domain.ErrGeneration, err)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGeneration)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
