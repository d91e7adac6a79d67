// Package composer turns retrieved chunks into a grounded answer: it
// builds the prompt, invokes the completion provider once, and scores
// the result.
package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"scholarag/internal/domain"
)

// NoInformationAnswer is returned without calling the LLM when nothing
// relevant was retrieved.
const NoInformationAnswer = "Sorry, I could not find relevant information in the documents to answer your question."

const previewLen = 200

// Completer is the consumer interface for text generation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Composer assembles structured responses. topK is the retrieval k the
// confidence base is normalized against.
type Composer struct {
	llm        Completer
	topK       int
	log        *zap.Logger
	confidence prometheus.Histogram
}

// New creates a composer. The histogram may be nil.
func New(llm Completer, topK int, log *zap.Logger, confidence prometheus.Histogram) *Composer {
	return &Composer{llm: llm, topK: topK, log: log, confidence: confidence}
}

// Answer produces a response for the question grounded in the
// retrieved chunks. Empty retrieval short-circuits without a
// completion call; completion failures propagate unretried.
func (c *Composer) Answer(ctx context.Context, question string, retrieved []domain.Chunk) (domain.Response, error) {
	if len(retrieved) == 0 {
		c.observeConfidence(0)
		return domain.Response{
			Answer:     NoInformationAnswer,
			Sources:    []domain.SourceRef{},
			Confidence: 0,
		}, nil
	}

	answer, err := c.llm.Complete(ctx, buildPrompt(question, retrieved))
	if err != nil {
		return domain.Response{}, fmt.Errorf("generate answer: %w", err)
	}

	conf := confidence(retrieved, c.topK)
	c.observeConfidence(conf)
	c.log.Debug("answer composed",
		zap.Int("chunks", len(retrieved)),
		zap.Float64("confidence", conf))

	return domain.Response{
		Answer:         answer,
		Sources:        buildSources(retrieved),
		Confidence:     conf,
		DocumentsFound: len(retrieved),
	}, nil
}

func (c *Composer) observeConfidence(v float64) {
	if c.confidence != nil {
		c.confidence.Observe(v)
	}
}

// buildPrompt wraps the chunk texts and the question in a fixed
// instruction block that demands grounding in the supplied context.
func buildPrompt(question string, retrieved []domain.Chunk) string {
	texts := make([]string, len(retrieved))
	for i, chunk := range retrieved {
		texts[i] = chunk.Text
	}

	var b strings.Builder
	b.WriteString("You are an assistant specialized in analyzing scientific documents.\n")
	b.WriteString("You must answer questions based only on the documents provided.\n\n")
	b.WriteString("CONTEXT (source documents):\n")
	b.WriteString(strings.Join(texts, "\n\n"))
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString("1. Answer precisely and in detail, using only the information in the context.\n")
	b.WriteString("2. If the information is not available in the documents, say so clearly.\n")
	b.WriteString("3. Cite sources by document name and page number where possible.\n")
	b.WriteString("4. Structure the answer clearly and professionally.\n")
	b.WriteString("5. Use appropriate scientific language.\n\n")
	b.WriteString("ANSWER:")
	return b.String()
}

// confidence rewards both enough retrieved chunks and corroboration
// across documents. The diversity bonus is capped so one repeated
// document cannot inflate the score; the total never exceeds 1.
func confidence(retrieved []domain.Chunk, topK int) float64 {
	if topK <= 0 {
		topK = 1
	}

	base := float64(len(retrieved)) / float64(topK)
	if base > 1 {
		base = 1
	}

	docs := make(map[string]struct{}, len(retrieved))
	for _, chunk := range retrieved {
		docs[chunk.SourceDocument] = struct{}{}
	}
	bonus := float64(len(docs)) / 2.0
	if bonus > 0.2 {
		bonus = 0.2
	}

	if total := base + bonus; total < 1 {
		return total
	}
	return 1
}

func buildSources(retrieved []domain.Chunk) []domain.SourceRef {
	sources := make([]domain.SourceRef, 0, len(retrieved))
	for _, chunk := range retrieved {
		preview := chunk.Text
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		sources = append(sources, domain.SourceRef{
			SourceDocument: chunk.SourceDocument,
			ApproxPage:     chunk.ApproxPage,
			ChunkPreview:   preview,
			ChunkLength:    chunk.CharLength,
		})
	}
	return sources
}
