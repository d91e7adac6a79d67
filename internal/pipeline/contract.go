package pipeline

import (
	"context"

	"scholarag/internal/chunker"
	"scholarag/internal/domain"
	"scholarag/internal/loader"
)

// Loader supplies extracted documents.
type Loader interface {
	LoadAll(ctx context.Context) ([]loader.Document, error)
}

// Chunker splits a document into indexable chunks.
type Chunker interface {
	Split(sourceDocument, documentText string, pages []chunker.PageText) []domain.Chunk
}

// Index is the lifecycle surface of the vector index the pipeline
// drives.
type Index interface {
	GetOrCreate(ctx context.Context, chunks []domain.Chunk) error
	Refresh(ctx context.Context, chunks []domain.Chunk) error
	Count(ctx context.Context) int
	Ready() bool
}

// Retriever selects context chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) []domain.Chunk
}

// Composer produces the final response from retrieved chunks.
type Composer interface {
	Answer(ctx context.Context, question string, retrieved []domain.Chunk) (domain.Response, error)
}

// HealthChecker probes an external provider.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
