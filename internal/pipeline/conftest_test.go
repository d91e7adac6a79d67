package pipeline

import (
	"context"
	"errors"

	"scholarag/internal/chunker"
	"scholarag/internal/domain"
	"scholarag/internal/loader"
)

type fakeLoader struct {
	docs []loader.Document
	err  error
}

func (f *fakeLoader) LoadAll(_ context.Context) ([]loader.Document, error) {
	return f.docs, f.err
}

type fakeChunker struct{}

func (fakeChunker) Split(source, text string, _ []chunker.PageText) []domain.Chunk {
	return []domain.Chunk{domain.NewChunk(text, source, 0, 1)}
}

type fakeIndex struct {
	getOrCreateCalls int
	refreshCalls     int
	gotChunks        []domain.Chunk
	ready            bool
	count            int
	err              error
}

func (f *fakeIndex) GetOrCreate(_ context.Context, chunks []domain.Chunk) error {
	f.getOrCreateCalls++
	f.gotChunks = chunks
	return f.err
}

func (f *fakeIndex) Refresh(_ context.Context, chunks []domain.Chunk) error {
	f.refreshCalls++
	f.gotChunks = chunks
	return f.err
}

func (f *fakeIndex) Count(_ context.Context) int { return f.count }
func (f *fakeIndex) Ready() bool                 { return f.ready }

type fakeRetriever struct {
	chunks []domain.Chunk
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string) []domain.Chunk {
	return f.chunks
}

type fakeComposer struct {
	resp        domain.Response
	err         error
	gotQuestion string
}

func (f *fakeComposer) Answer(_ context.Context, question string, _ []domain.Chunk) (domain.Response, error) {
	f.gotQuestion = question
	return f.resp, f.err
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) HealthCheck(_ context.Context) error { return f.err }

// fakeEmbedder is a deterministic index.Embedder for integration-style
// tests over the real chunker, index, and memory backend.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	// Token-count histogram over a tiny vocabulary; crude but stable.
	vec := make([]float32, 8)
	for i, ch := range text {
		vec[i%8] += float32(ch % 13)
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(text)}, nil
}

func (fakeEmbedder) ModelName() string { return "fake-model" }

var errBoom = errors.New("boom")
