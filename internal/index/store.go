// Package index manages the vector index lifecycle: creation from
// chunks, loading of a persisted index, and rebuilds.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"scholarag/internal/domain"
	"scholarag/internal/logger"
)

const (
	deleteAttempts = 3
	retryPause     = 200 * time.Millisecond
)

// Store owns a vector index built over document chunks. All lifecycle
// transitions take the write lock, so a Refresh never races a Query.
type Store struct {
	mu      sync.RWMutex
	backend VectorStore
	embed   Embedder
	log     *zap.Logger

	ready bool
	count int
}

// NewStore creates a store over the given backend. The index is not
// loaded until GetOrCreate, Load, or the first Query.
func NewStore(backend VectorStore, embed Embedder, log *zap.Logger) *Store {
	return &Store{backend: backend, embed: embed, log: log}
}

// Create builds a fresh index from chunks, replacing nothing: callers
// that need a rebuild go through Refresh. Empty input is an error so a
// misconfigured ingest cannot silently produce an empty index.
func (s *Store) Create(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, chunks)
}

func (s *Store) createLocked(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index: %w", domain.ErrIndex)
	}

	items := make([]Item, 0, len(chunks))
	for _, chunk := range chunks {
		res, err := s.embed.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %d of %s: %w: %w",
				chunk.ChunkIndex, chunk.SourceDocument, domain.ErrIndex, err)
		}
		items = append(items, Item{Chunk: chunk, Vector: res.Embedding})
	}

	if err := s.backend.Upsert(ctx, items); err != nil {
		return fmt.Errorf("store vectors: %w: %w", domain.ErrIndex, err)
	}

	meta := Meta{
		EmbeddingModel: s.embed.ModelName(),
		ChunkCount:     len(items),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.backend.WriteMeta(ctx, meta); err != nil {
		return fmt.Errorf("write index metadata: %w: %w", domain.ErrIndex, err)
	}

	s.ready = true
	s.count = len(items)
	s.log.Info("index created",
		zap.Int("chunks", len(items)),
		zap.String("embedding_model", meta.EmbeddingModel))
	return nil
}

// Load attaches to an index already persisted in the backend. Returns
// false without error when the backend holds no vectors. An index built
// with a different embedding model is unusable and an error.
func (s *Store) Load(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (bool, error) {
	count, err := s.backend.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count stored vectors: %w: %w", domain.ErrIndex, err)
	}
	if count == 0 {
		return false, nil
	}

	meta, err := s.backend.ReadMeta(ctx)
	if err != nil {
		if errors.Is(err, ErrMetaNotFound) {
			return false, fmt.Errorf("index has %d vectors but no metadata: %w", count, domain.ErrIndex)
		}
		return false, fmt.Errorf("read index metadata: %w: %w", domain.ErrIndex, err)
	}
	if meta.EmbeddingModel != s.embed.ModelName() {
		return false, fmt.Errorf("index built with model %q, embedder uses %q: %w",
			meta.EmbeddingModel, s.embed.ModelName(), domain.ErrIndex)
	}

	s.ready = true
	s.count = count
	s.log.Info("index loaded",
		zap.Int("chunks", count),
		zap.String("embedding_model", meta.EmbeddingModel))
	return true, nil
}

// GetOrCreate loads the persisted index if one exists, otherwise builds
// one from chunks. Idempotent: a second call attaches to the first
// call's index without re-embedding anything.
func (s *Store) GetOrCreate(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	if loaded {
		return nil
	}
	return s.createLocked(ctx, chunks)
}

// Refresh deletes the existing index and rebuilds it from chunks. The
// store is not ready between the delete and the rebuild, so concurrent
// queries observe an empty index rather than stale vectors.
func (s *Store) Refresh(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	s.count = 0

	if err := s.deleteWithRetry(ctx); err != nil {
		return err
	}
	return s.createLocked(ctx, chunks)
}

// deleteWithRetry retries the backend delete with a growing pause.
// Exhausting the attempts leaves the old index in place and fails the
// refresh.
func (s *Store) deleteWithRetry(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= deleteAttempts; attempt++ {
		lastErr = s.backend.DeleteAll(ctx)
		if lastErr == nil {
			return nil
		}
		s.log.Warn("index delete failed",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt == deleteAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("delete index: %w: %w", domain.ErrIndex, ctx.Err())
		case <-time.After(time.Duration(attempt) * retryPause):
		}
	}
	return fmt.Errorf("delete index after %d attempts: %w: %w", deleteAttempts, domain.ErrIndex, lastErr)
}

// Query embeds the question and returns the topK nearest chunks in
// ascending distance order. An unloadable or empty index yields no
// matches and no error.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, nil
	}

	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrIndex, err)
	}

	matches, err := s.backend.Query(ctx, res.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w: %w", domain.ErrIndex, err)
	}
	return matches, nil
}

// Count returns the number of indexed chunks, 0 when no index is
// loaded.
func (s *Store) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return 0
	}
	return s.count
}

// Ready reports whether an index is loaded and queryable.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// ensureLoaded attaches to a persisted index on first use. A missing
// index is not an error here; Query treats it as no matches.
func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()
	if ready {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	loaded, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	if !loaded {
		logger.FromContext(ctx).Debug("no persisted index to load")
	}
	return nil
}
