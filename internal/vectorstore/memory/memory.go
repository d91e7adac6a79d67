// Package memory is an in-process VectorStore backend with exhaustive
// cosine search. Suited to small corpora and tests; nothing survives a
// restart.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"scholarag/internal/index"
)

// Store keeps items and metadata in memory behind a RWMutex.
type Store struct {
	mu    sync.RWMutex
	items []index.Item
	meta  *index.Meta
}

func New() *Store {
	return &Store{}
}

func (s *Store) Upsert(_ context.Context, items []index.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return nil
}

// Query scans every stored item and returns the topK nearest by cosine
// distance, ascending.
func (s *Store) Query(_ context.Context, vector []float32, topK int) ([]index.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 || len(s.items) == 0 {
		return nil, nil
	}

	matches := make([]index.Match, 0, len(s.items))
	for _, it := range s.items {
		matches = append(matches, index.Match{
			Chunk:    it.Chunk,
			Distance: cosineDistance(vector, it.Vector),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.meta = nil
	return nil
}

func (s *Store) ReadMeta(_ context.Context) (index.Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return index.Meta{}, index.ErrMetaNotFound
	}
	return *s.meta, nil
}

func (s *Store) WriteMeta(_ context.Context, meta index.Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &meta
	return nil
}

// cosineDistance is 1 - cosine similarity, 0 for identical directions
// and 2 for opposite ones. Mismatched or zero vectors get the maximum
// distance so they sort last.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
