package domain

import "context"

// EmbeddingResult is a vector plus provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Queries and indexed chunks must be embedded
// with the same model, so implementations expose their model identity.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	ModelName() string
}

// Completer produces a text completion for a prompt. Failures wrap
// ErrGeneration and always propagate; the pipeline never retries a
// completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HealthChecker is an optional capability of embedders and completers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
