// Package chi exposes the question-answering pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scholarag/internal/domain"
	"scholarag/internal/pipeline"
)

// Error codes returned to clients.
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeValidationFailed  = "validation_failed"
	CodeNoDocuments       = "no_documents"
	CodeGenerationFailed  = "generation_failed"
	CodeEmbeddingProvider = "embedding_provider_error"
	CodeIndexFailed       = "index_failed"
	CodeInternalError     = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pipeline is the consumer interface the HTTP layer drives.
type Pipeline interface {
	Ingest(ctx context.Context, force bool) (pipeline.IngestResult, error)
	Ask(ctx context.Context, question string) (domain.Response, error)
	Status(ctx context.Context) pipeline.Status
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over the pipeline.
type Server struct {
	pipeline      Pipeline
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(p Pipeline, logger *zap.Logger) *Server {
	s := &Server{
		pipeline: p,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNoDocuments, http.StatusNotFound, CodeNoDocuments),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, CodeGenerationFailed),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrChunking, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrIndex, http.StatusInternalServerError, CodeIndexFailed),
	}
	return s
}

// Routes mounts every endpoint on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.Health)
	r.Get("/status", s.Status)
	r.Get("/metrics", s.Metrics)
	r.Post("/ask", s.Ask)
	r.Post("/ingest", s.Ingest)
	r.Post("/refresh", s.Refresh)
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Question is required")
		return
	}

	resp, err := s.pipeline.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Ingest handles POST /ingest: load documents and build the index if
// none exists yet.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	s.runIngest(w, r, false)
}

// Refresh handles POST /refresh: tear down and rebuild the index.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	s.runIngest(w, r, true)
}

func (s *Server) runIngest(w http.ResponseWriter, r *http.Request, force bool) {
	result, err := s.pipeline.Ingest(r.Context(), force)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Status handles GET /status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Status(r.Context()))
}

// Health handles GET /health. Liveness only; provider readiness is
// reported by /status.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNoDocuments,
		domain.ErrGeneration,
		domain.ErrEmbeddingProvider,
		domain.ErrChunking,
		domain.ErrIndex,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
