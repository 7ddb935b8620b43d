package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/logger"
)

// indexItem is one document submitted for indexing.
type indexItem struct {
	Text        string            `json:"text"`
	SourceDocID string            `json:"source_doc_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// indexResponse reports the outcome of an index_data call.
type indexResponse struct {
	CreatedIDs []string       `json:"created_ids"`
	Failures   []indexFailure `json:"failures"`
}

type indexFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// retrieveRequest is the retrieve_chunks request body.
type retrieveRequest struct {
	Query     string  `json:"query"`
	K         int     `json:"k"`
	Threshold float64 `json:"threshold"`
}

// retrieveResponse is the retrieve_chunks response body.
type retrieveResponse struct {
	Status     string           `json:"status"`
	Chunks     []retrievedChunk `json:"chunks"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason,omitempty"`
}

type retrievedChunk struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

// healthResponse is the healthz response body.
type healthResponse struct {
	Status         string `json:"status"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingModel string `json:"embedding_model"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleIndexData indexes a batch of documents. Per-item failures are
// reported in the response body, not as an HTTP error; the call itself
// only fails for malformed requests or cancellation.
func (s *Server) handleIndexData(w http.ResponseWriter, r *http.Request) {
	var items []indexItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "empty document list")
		return
	}

	inputs := make([]domain.DocumentInput, len(items))
	for i, item := range items {
		inputs[i] = domain.DocumentInput{
			Text:        item.Text,
			SourceDocID: item.SourceDocID,
			Metadata:    item.Metadata,
		}
	}

	report, err := s.service.IndexDocuments(r.Context(), inputs)
	if err != nil {
		// Cancellation mid-batch: completed items stay indexed, but the
		// caller did not get a full report.
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	resp := indexResponse{
		CreatedIDs: report.CreatedIDs,
		Failures:   make([]indexFailure, 0, len(report.Failures)),
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, indexFailure{Index: f.Index, Reason: f.Reason})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRetrieveChunks answers a similarity query gated by the confidence
// threshold. A zero threshold falls back to the configured default.
func (s *Server) handleRetrieveChunks(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}

	result, err := s.service.RetrieveTopK(r.Context(), req.Query, req.K)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingFailure) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	decision := s.gate.Evaluate(result, threshold)

	resp := retrieveResponse{
		Status:     string(decision.Status),
		Chunks:     make([]retrievedChunk, 0, len(decision.Chunks)),
		Confidence: decision.Confidence,
		Reason:     decision.Reason,
	}
	for _, sc := range decision.Chunks {
		resp.Chunks = append(resp.Chunks, retrievedChunk{
			ID:       sc.Chunk.ID,
			Text:     sc.Chunk.Text,
			Metadata: sc.Chunk.Metadata,
			Score:    sc.Score,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSnapshot triggers an explicit checkpoint so the orchestrator can
// create save points around batch ingestion.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Checkpoint(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleHealth reports liveness and basic index state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.ChunkCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		ChunkCount:     count,
		EmbeddingModel: s.embeddingModel,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

// writeError writes a structured JSON error.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
