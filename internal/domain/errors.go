package domain

import "errors"

var (
	// ErrChunking signals a misconfigured text splitter (caller error, checked eagerly).
	ErrChunking = errors.New("chunking misconfigured")
	// ErrIndex signals unreadable, unwritable, or corrupt vector index state.
	ErrIndex = errors.New("index error")
	// ErrGeneration signals a completion provider failure.
	ErrGeneration = errors.New("generation failed")
	// ErrNoDocuments signals an empty or unreadable document corpus.
	ErrNoDocuments = errors.New("no documents found")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
)
