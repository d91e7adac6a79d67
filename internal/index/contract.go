package index

import (
	"context"
	"errors"
	"time"

	"scholarag/internal/domain"
)

// ErrMetaNotFound is returned by VectorStore.ReadMeta when the backend
// holds no index metadata.
var ErrMetaNotFound = errors.New("index metadata not found")

// Item is a chunk paired with its embedding, the unit of storage.
type Item struct {
	Chunk  domain.Chunk
	Vector []float32
}

// Match is a stored chunk with its distance from a query vector.
// Lower distance means more similar.
type Match struct {
	Chunk    domain.Chunk
	Distance float64
}

// Meta describes how an index was built. An index is only usable by a
// store whose embedder matches the recorded model.
type Meta struct {
	EmbeddingModel string    `json:"embedding_model"`
	ChunkCount     int       `json:"chunk_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// VectorStore is the storage contract for the index lifecycle.
type VectorStore interface {
	Upsert(ctx context.Context, items []Item) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
	ReadMeta(ctx context.Context) (Meta, error)
	WriteMeta(ctx context.Context, meta Meta) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	ModelName() string
}
