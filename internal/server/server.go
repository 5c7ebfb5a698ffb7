package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/okarpov/jobforge/internal/match"
	"github.com/okarpov/jobforge/internal/posting"
	"go.uber.org/zap"
)

// Server exposes the matching and posting generation services over a small
// JSON API. The web layer holds no state of its own; every request is
// independent.
type Server struct {
	addr     string
	matcher  *match.Matcher
	postings *posting.Generator
	health   HealthInfo
	logger   *zap.Logger
}

// HealthInfo is reported by the healthz endpoint.
type HealthInfo struct {
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	EmbeddingModel string `json:"embedding_model"`
}

func New(addr string, matcher *match.Matcher, postings *posting.Generator, health HealthInfo, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		addr:     addr,
		matcher:  matcher,
		postings: postings,
		health:   health,
		logger:   log,
	}
}

// Handler builds the route table wrapped with the request-id middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/match", s.handleMatch)
	mux.HandleFunc("POST /api/v1/postings/store", s.handleStorePosting)
	mux.HandleFunc("POST /api/v1/descriptions", s.handleDescription)
	mux.HandleFunc("POST /api/v1/summaries", s.handleSummary)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.withRequestID(mux)
}

// ListenAndServe runs the API until the context is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http api listening", zap.String("address", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger returns the server logger tagged with the request id and route.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	log := s.logger
	if id, ok := r.Context().Value(requestIDKey).(string); ok && id != "" {
		log = log.With(zap.String("request_id", id))
	}
	return log.With(zap.String("path", r.URL.Path))
}
