package driving

import (
	"context"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

// IndexFailure reports one failed item of a batch indexing call.
type IndexFailure struct {
	// Index is the position of the failed item in the input batch.
	Index int

	// Reason is a structured failure reason for the orchestrator.
	Reason string
}

// IndexReport is the outcome of a batch indexing call. Items processed
// before a failure remain indexed; the caller learns exactly which items
// failed and why.
type IndexReport struct {
	// CreatedIDs are the ids of successfully indexed chunks, in input
	// order.
	CreatedIDs []string

	// Failures lists the items that could not be indexed.
	Failures []IndexFailure
}

// RetrievalService composes the chunk store, vector index, embedding
// client and snapshot persistence behind the two operations the
// orchestrator consumes.
type RetrievalService interface {
	// IndexDocuments embeds each item, assigns a fresh unique chunk id
	// and performs the paired store-add and index-insert as one logical
	// unit. Per-item failures are reported, not fatal to the batch.
	IndexDocuments(ctx context.Context, items []domain.DocumentInput) (*IndexReport, error)

	// RetrieveTopK embeds the query, searches the vector index and
	// hydrates the hits into full chunks. An empty index yields a
	// result with zero chunks and confidence 0, not an error.
	RetrieveTopK(ctx context.Context, query string, k int) (*domain.RetrievalResult, error)

	// Remove deletes a chunk and its vector in one logical unit.
	Remove(ctx context.Context, id string) error

	// Checkpoint persists the current state through the snapshot store.
	Checkpoint(ctx context.Context) error

	// ReindexFromSnapshot discards in-memory state and reloads it from
	// the persisted snapshot.
	ReindexFromSnapshot(ctx context.Context) error

	// ChunkCount returns the number of indexed chunks.
	ChunkCount(ctx context.Context) (int, error)
}

// Gate turns a retrieval score distribution into a pass/fallback verdict.
// Identical result and threshold always yield the identical decision.
type Gate interface {
	// Evaluate decides whether downstream synthesis may proceed.
	Evaluate(result *domain.RetrievalResult, threshold float64) domain.GateDecision

	// Confidence computes the confidence for a ranked chunk list.
	Confidence(chunks []domain.ScoredChunk) float64
}
