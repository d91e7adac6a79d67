// Package retriever selects the chunks relevant to a question by
// similarity, with a single-best fallback when nothing clears the
// threshold.
package retriever

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"scholarag/internal/domain"
	"scholarag/internal/index"
)

// Index is the consumer interface for similarity queries.
type Index interface {
	Query(ctx context.Context, text string, topK int) ([]index.Match, error)
}

// Retriever converts distances to similarity scores and filters by a
// threshold. Retrieval failures degrade to an empty result so the
// caller can still answer with "no information".
type Retriever struct {
	idx       Index
	topK      int
	threshold float64
	log       *zap.Logger

	fallbacks prometheus.Counter
	errs      prometheus.Counter
}

// New creates a retriever. The counters may be nil.
func New(idx Index, topK int, threshold float64, log *zap.Logger, fallbacks, errs prometheus.Counter) *Retriever {
	return &Retriever{
		idx:       idx,
		topK:      topK,
		threshold: threshold,
		log:       log,
		fallbacks: fallbacks,
		errs:      errs,
	}
}

// Retrieve returns up to topK chunks whose similarity clears the
// threshold, in descending relevance order. When matches exist but
// none clears it, the single best match is returned so an on-topic
// question is not starved by a strict threshold.
func (r *Retriever) Retrieve(ctx context.Context, question string) []domain.Chunk {
	matches, err := r.idx.Query(ctx, question, r.topK)
	if err != nil {
		r.log.Error("retrieval failed", zap.Error(err))
		if r.errs != nil {
			r.errs.Inc()
		}
		return nil
	}
	if len(matches) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(matches))
	for _, m := range matches {
		if similarity(m.Distance) >= r.threshold {
			chunks = append(chunks, m.Chunk)
		}
	}
	if len(chunks) > 0 {
		return chunks
	}

	// Matches are distance-ascending, so the first is the best.
	r.log.Debug("no match cleared the threshold, falling back to best",
		zap.Float64("best_distance", matches[0].Distance),
		zap.Float64("threshold", r.threshold))
	if r.fallbacks != nil {
		r.fallbacks.Inc()
	}
	return []domain.Chunk{matches[0].Chunk}
}

// similarity maps a distance to (0, 1]: 0 distance scores 1, growing
// distance decays toward 0.
func similarity(distance float64) float64 {
	return 1 / (1 + distance)
}
