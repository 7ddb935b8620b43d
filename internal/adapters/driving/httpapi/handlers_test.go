package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driving"
	"github.com/custodia-labs/retriever-cli/internal/core/services"
)

// stubService scripts the driving port for handler tests.
type stubService struct {
	indexReport   *driving.IndexReport
	indexErr      error
	indexedInputs []domain.DocumentInput
	result        *domain.RetrievalResult
	retrieveErr   error
	retrieveQuery string
	retrieveK     int
	checkpointErr error
	checkpoints   int
	chunkCount    int
	chunkCountErr error
}

func (s *stubService) IndexDocuments(_ context.Context, items []domain.DocumentInput) (*driving.IndexReport, error) {
	s.indexedInputs = items
	return s.indexReport, s.indexErr
}

func (s *stubService) RetrieveTopK(_ context.Context, query string, k int) (*domain.RetrievalResult, error) {
	s.retrieveQuery = query
	s.retrieveK = k
	return s.result, s.retrieveErr
}

func (s *stubService) Remove(_ context.Context, _ string) error { return nil }

func (s *stubService) Checkpoint(_ context.Context) error {
	s.checkpoints++
	return s.checkpointErr
}

func (s *stubService) ReindexFromSnapshot(_ context.Context) error { return nil }

func (s *stubService) ChunkCount(_ context.Context) (int, error) {
	return s.chunkCount, s.chunkCountErr
}

func newTestServer(service *stubService) *Server {
	return New(service, services.NewConfidenceGate(), domain.DefaultConfidenceThreshold, "stub-embed")
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleIndexData(t *testing.T) {
	service := &stubService{indexReport: &driving.IndexReport{
		CreatedIDs: []string{"id-1", "id-2"},
		Failures:   []driving.IndexFailure{{Index: 2, Reason: "empty text body"}},
	}}
	handler := newTestServer(service).Handler()

	body := `[{"text":"first","source_doc_id":"doc-1","metadata":{"topic":"rates"}},` +
		`{"text":"second"},{"text":""}]`
	rec := doRequest(t, handler, http.MethodPost, "/index_data", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp indexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"id-1", "id-2"}, resp.CreatedIDs)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, 2, resp.Failures[0].Index)

	require.Len(t, service.indexedInputs, 3)
	assert.Equal(t, "doc-1", service.indexedInputs[0].SourceDocID)
	assert.Equal(t, "rates", service.indexedInputs[0].Metadata["topic"])
}

func TestHandleIndexData_BadRequests(t *testing.T) {
	handler := newTestServer(&stubService{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/index_data", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/index_data", "[]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleIndexData_Cancelled(t *testing.T) {
	service := &stubService{
		indexReport: &driving.IndexReport{},
		indexErr:    context.Canceled,
	}
	handler := newTestServer(service).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/index_data", `[{"text":"doc"}]`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleRetrieveChunks_Pass(t *testing.T) {
	service := &stubService{result: &domain.RetrievalResult{
		Chunks: []domain.ScoredChunk{
			{Chunk: domain.Chunk{ID: "a", Text: "top hit"}, Score: 0.9},
			{Chunk: domain.Chunk{ID: "b", Text: "runner up"}, Score: 0.4},
		},
	}}
	handler := newTestServer(service).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/retrieve_chunks",
		`{"query":"what happened","k":2,"threshold":0.5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp retrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.GatePass), resp.Status)
	require.Len(t, resp.Chunks, 2)
	assert.Equal(t, "a", resp.Chunks[0].ID)
	assert.Equal(t, 0.9, resp.Chunks[0].Score)
	assert.Greater(t, resp.Confidence, 0.5)
	assert.Empty(t, resp.Reason)

	assert.Equal(t, "what happened", service.retrieveQuery)
	assert.Equal(t, 2, service.retrieveK)
}

func TestHandleRetrieveChunks_Fallback(t *testing.T) {
	service := &stubService{result: &domain.RetrievalResult{
		Chunks: []domain.ScoredChunk{
			{Chunk: domain.Chunk{ID: "a", Text: "weak hit"}, Score: 0.1},
		},
	}}
	handler := newTestServer(service).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/retrieve_chunks",
		`{"query":"unrelated","threshold":0.9}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp retrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.GateFallback), resp.Status)
	assert.Empty(t, resp.Chunks)
	assert.Equal(t, domain.FallbackLowConfidence, resp.Reason)
}

func TestHandleRetrieveChunks_EmptyResult(t *testing.T) {
	service := &stubService{result: &domain.RetrievalResult{}}
	handler := newTestServer(service).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/retrieve_chunks", `{"query":"anything"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp retrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.GateFallback), resp.Status)
	assert.Equal(t, domain.FallbackEmptyResult, resp.Reason)
	assert.Zero(t, resp.Confidence)
}

func TestHandleRetrieveChunks_BadRequests(t *testing.T) {
	handler := newTestServer(&stubService{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/retrieve_chunks", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/retrieve_chunks", `{"k":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRetrieveChunks_EmbeddingFailure(t *testing.T) {
	service := &stubService{retrieveErr: domain.ErrEmbeddingFailure}
	handler := newTestServer(service).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/retrieve_chunks", `{"query":"anything"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleSnapshot(t *testing.T) {
	service := &stubService{}
	handler := newTestServer(service).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/snapshot", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, service.checkpoints)
}

func TestHandleHealth(t *testing.T) {
	service := &stubService{chunkCount: 42}
	handler := newTestServer(service).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 42, resp.ChunkCount)
	assert.Equal(t, "stub-embed", resp.EmbeddingModel)
}

func TestHandler_MethodRouting(t *testing.T) {
	handler := newTestServer(&stubService{}).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/index_data", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
