package index

import (
	"context"
	"sync"
	"time"

	"scholarag/internal/domain"
)

// fakeEmbedder counts calls and returns a fixed-dimension vector.
type fakeEmbedder struct {
	mu    sync.Mutex
	model string
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{
		Embedding:   []float32{float32(len(text)), 1, 0},
		TotalTokens: len(text),
	}, nil
}

func (f *fakeEmbedder) ModelName() string { return f.model }

func (f *fakeEmbedder) embedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeBackend is an in-memory VectorStore with injectable failures.
type fakeBackend struct {
	mu      sync.Mutex
	items   []Item
	meta    *Meta
	matches []Match

	deleteErrs  []error
	deleteCalls int
	countErr    error
	upsertErr   error
}

func (f *fakeBackend) Upsert(_ context.Context, items []Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeBackend) Query(_ context.Context, _ []float32, topK int) ([]Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.matches != nil {
		return f.matches, nil
	}
	out := make([]Match, 0, topK)
	for i, it := range f.items {
		if i == topK {
			break
		}
		out = append(out, Match{Chunk: it.Chunk, Distance: float64(i) / 10})
	}
	return out, nil
}

func (f *fakeBackend) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.items), nil
}

func (f *fakeBackend) DeleteAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if len(f.deleteErrs) > 0 {
		err := f.deleteErrs[0]
		f.deleteErrs = f.deleteErrs[1:]
		if err != nil {
			return err
		}
	}
	f.items = nil
	f.meta = nil
	return nil
}

func (f *fakeBackend) ReadMeta(_ context.Context) (Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meta == nil {
		return Meta{}, ErrMetaNotFound
	}
	return *f.meta, nil
}

func (f *fakeBackend) WriteMeta(_ context.Context, meta Meta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta = &meta
	return nil
}

func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, domain.NewChunk("chunk text number "+string(rune('a'+i)), "doc.pdf", i, 1))
	}
	return chunks
}

func staleMeta(model string, count int) *Meta {
	return &Meta{EmbeddingModel: model, ChunkCount: count, CreatedAt: time.Now().UTC()}
}
