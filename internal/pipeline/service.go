// Package pipeline wires loading, chunking, indexing, retrieval, and
// answer composition into the operations the transports expose.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"scholarag/internal/domain"
)

// DocumentSummary reports what one ingested document contributed.
type DocumentSummary struct {
	Name       string `json:"name"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	TextLength int    `json:"text_length"`
}

// IngestResult summarizes one ingest run.
type IngestResult struct {
	Documents   []DocumentSummary `json:"documents"`
	TotalChunks int               `json:"total_chunks"`
	Refreshed   bool              `json:"refreshed"`
}

// Status is a snapshot of pipeline readiness.
type Status struct {
	IndexReady     bool   `json:"index_ready"`
	IndexedChunks  int    `json:"indexed_chunks"`
	EmbeddingModel string `json:"embedding_model"`
	LLMModel       string `json:"llm_model"`
	LLMReady       bool   `json:"llm_ready"`
}

// Service is the question-answering pipeline.
type Service struct {
	loader    Loader
	chunker   Chunker
	idx       Index
	retriever Retriever
	composer  Composer

	llmHealth      HealthChecker // optional
	embeddingModel string
	llmModel       string
	log            *zap.Logger
}

// New creates the pipeline service. llmHealth may be nil when the
// provider exposes no health probe.
func New(
	l Loader,
	c Chunker,
	idx Index,
	r Retriever,
	comp Composer,
	llmHealth HealthChecker,
	embeddingModel, llmModel string,
	log *zap.Logger,
) *Service {
	return &Service{
		loader:         l,
		chunker:        c,
		idx:            idx,
		retriever:      r,
		composer:       comp,
		llmHealth:      llmHealth,
		embeddingModel: embeddingModel,
		llmModel:       llmModel,
		log:            log,
	}
}

// Ingest loads every document, chunks it, and builds the index. With
// force the existing index is torn down and rebuilt; otherwise a
// persisted index is reused as-is.
func (s *Service) Ingest(ctx context.Context, force bool) (IngestResult, error) {
	docs, err := s.loader.LoadAll(ctx)
	if err != nil {
		return IngestResult{}, err
	}

	var result IngestResult
	var all []domain.Chunk
	for _, doc := range docs {
		chunks := s.chunker.Split(doc.Name, doc.Text, doc.Pages)
		all = append(all, chunks...)
		result.Documents = append(result.Documents, DocumentSummary{
			Name:       doc.Name,
			Pages:      doc.TotalPages,
			Chunks:     len(chunks),
			TextLength: len(doc.Text),
		})
	}
	result.TotalChunks = len(all)

	if force {
		err = s.idx.Refresh(ctx, all)
		result.Refreshed = true
	} else {
		err = s.idx.GetOrCreate(ctx, all)
	}
	if err != nil {
		return IngestResult{}, err
	}

	s.log.Info("ingest finished",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", result.TotalChunks),
		zap.Bool("refreshed", result.Refreshed))
	return result, nil
}

// Ask answers a question grounded in the indexed documents.
func (s *Service) Ask(ctx context.Context, question string) (domain.Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Response{}, fmt.Errorf("question must not be empty")
	}

	retrieved := s.retriever.Retrieve(ctx, question)
	return s.composer.Answer(ctx, question, retrieved)
}

// Status reports index and provider readiness. The LLM probe failing
// only flips the flag; Status itself never errors.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		IndexReady:     s.idx.Ready(),
		IndexedChunks:  s.idx.Count(ctx),
		EmbeddingModel: s.embeddingModel,
		LLMModel:       s.llmModel,
	}

	if s.llmHealth != nil {
		if err := s.llmHealth.HealthCheck(ctx); err != nil {
			s.log.Warn("llm health check failed", zap.Error(err))
		} else {
			st.LLMReady = true
		}
	}
	return st
}
