package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"scholarag/internal/domain"
	"scholarag/internal/index"
)

func item(text string, vec []float32) index.Item {
	return index.Item{
		Chunk:  domain.NewChunk(text, "doc.pdf", 0, 1),
		Vector: vec,
	}
}

func TestQuery_OrdersByCosineDistance(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Upsert(ctx, []index.Item{
		item("opposite", []float32{-1, 0}),
		item("identical", []float32{2, 0}), // same direction, different magnitude
		item("orthogonal", []float32{0, 1}),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := s.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}

	wantOrder := []string{"identical", "orthogonal", "opposite"}
	wantDist := []float64{0, 1, 2}
	for i, m := range matches {
		if m.Chunk.Text != wantOrder[i] {
			t.Errorf("match %d = %q, want %q", i, m.Chunk.Text, wantOrder[i])
		}
		if math.Abs(m.Distance-wantDist[i]) > 1e-9 {
			t.Errorf("match %d distance = %v, want %v", i, m.Distance, wantDist[i])
		}
	}
}

func TestQuery_TopKTruncates(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Upsert(ctx, []index.Item{
		item("a", []float32{1, 0}),
		item("b", []float32{0.9, 0.1}),
		item("c", []float32{0, 1}),
	})

	matches, err := s.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}

func TestQuery_Empty(t *testing.T) {
	s := New()
	matches, err := s.Query(context.Background(), []float32{1, 0}, 4)
	if err != nil || matches != nil {
		t.Fatalf("empty store: matches=%v err=%v", matches, err)
	}
}

func TestQuery_MismatchedDimensionsSortLast(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Upsert(ctx, []index.Item{
		item("bad", []float32{1, 0, 0}),
		item("good", []float32{1, 0}),
	})

	matches, err := s.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if matches[0].Chunk.Text != "good" {
		t.Fatalf("mismatched-dimension item sorted first: %q", matches[0].Chunk.Text)
	}
	if matches[1].Distance != 2 {
		t.Fatalf("mismatched-dimension distance = %v, want 2", matches[1].Distance)
	}
}

func TestDeleteAll(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Upsert(ctx, []index.Item{item("a", []float32{1})})
	_ = s.WriteMeta(ctx, index.Meta{EmbeddingModel: "m", ChunkCount: 1, CreatedAt: time.Now()})

	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("Count after DeleteAll = %d", n)
	}
	if _, err := s.ReadMeta(ctx); !errors.Is(err, index.ErrMetaNotFound) {
		t.Fatalf("expected ErrMetaNotFound after DeleteAll, got %v", err)
	}
}

func TestMeta_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.ReadMeta(ctx); !errors.Is(err, index.ErrMetaNotFound) {
		t.Fatalf("expected ErrMetaNotFound on fresh store, got %v", err)
	}

	want := index.Meta{EmbeddingModel: "test-model", ChunkCount: 7, CreatedAt: time.Now().UTC()}
	if err := s.WriteMeta(ctx, want); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}
	got, err := s.ReadMeta(ctx)
	if err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if got != want {
		t.Fatalf("meta = %+v, want %+v", got, want)
	}
}
