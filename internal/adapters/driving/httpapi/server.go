// Package httpapi exposes the retrieval service over HTTP for the
// orchestrator: index_data and retrieve_chunks, plus health and snapshot
// endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/retriever-cli/internal/core/ports/driving"
	"github.com/custodia-labs/retriever-cli/internal/logger"
)

// Server hosts the retrieval HTTP API.
type Server struct {
	service          driving.RetrievalService
	gate             driving.Gate
	defaultThreshold float64
	embeddingModel   string

	httpServer *http.Server
}

// New creates a server for the given service and gate. The default
// threshold applies when a retrieve request carries none.
func New(service driving.RetrievalService, gate driving.Gate, defaultThreshold float64, embeddingModel string) *Server {
	return &Server{
		service:          service,
		gate:             gate,
		defaultThreshold: defaultThreshold,
		embeddingModel:   embeddingModel,
	}
}

// Handler returns the route table. Exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /index_data", s.handleIndexData)
	mux.HandleFunc("POST /retrieve_chunks", s.handleRetrieveChunks)
	mux.HandleFunc("POST /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe starts the server on addr and blocks until the context
// is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	logger.Info("HTTP API listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
