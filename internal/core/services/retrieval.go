package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driven"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driving"
	"github.com/custodia-labs/retriever-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService keeps the chunk store and vector index in lockstep:
// every embedding in the index has a corresponding chunk in the store with
// the same id, and vice versa. The paired mutation is guarded by a single
// writer lock; reads run concurrently against a consistent prior state.
type RetrievalService struct {
	mu        sync.RWMutex
	chunks    driven.ChunkStore
	vectors   driven.VectorIndex
	embedder  driven.Embedder
	snapshots driven.SnapshotStore
	gate      driving.Gate
}

// NewRetrievalService creates a retrieval service over the given
// collaborators. The snapshot store is optional; when nil, Checkpoint and
// ReindexFromSnapshot report an error.
func NewRetrievalService(
	chunks driven.ChunkStore,
	vectors driven.VectorIndex,
	embedder driven.Embedder,
	snapshots driven.SnapshotStore,
	gate driving.Gate,
) *RetrievalService {
	return &RetrievalService{
		chunks:    chunks,
		vectors:   vectors,
		embedder:  embedder,
		snapshots: snapshots,
		gate:      gate,
	}
}

// Start loads the persisted snapshot into the in-memory state. A missing
// snapshot yields an empty index. A corrupt or version-incompatible
// snapshot is surfaced as a warning and the service starts empty rather
// than trusting partial data; Start never fails for snapshot problems.
func (s *RetrievalService) Start(ctx context.Context) error {
	if s.snapshots == nil {
		logger.Debug("No snapshot store configured, starting empty")
		return nil
	}

	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("No snapshot found, starting with an empty index")
			return nil
		case errors.Is(err, domain.ErrIncompatibleVersion),
			errors.Is(err, domain.ErrCorruptSnapshot):
			logger.Warn("Snapshot unusable, starting with an empty index: %v", err)
			return nil
		default:
			return fmt.Errorf("load snapshot: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.restore(ctx, snap); err != nil {
		// Partial restores must not survive.
		_ = s.chunks.Clear(ctx)
		_ = s.vectors.Clear(ctx)
		logger.Warn("Snapshot restore failed, starting with an empty index: %v", err)
		return nil
	}

	logger.Info("Restored %d chunks from snapshot", len(snap.Chunks))
	return nil
}

// restore populates the store and index from a loaded snapshot.
// Caller holds the write lock.
func (s *RetrievalService) restore(ctx context.Context, snap *driven.Snapshot) error {
	if snap.Dimension != s.vectors.Dimensions() {
		return fmt.Errorf("%w: snapshot dimension %d, index dimension %d",
			domain.ErrIncompatibleVersion, snap.Dimension, s.vectors.Dimensions())
	}
	if len(snap.Chunks) != len(snap.Vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors",
			domain.ErrCorruptSnapshot, len(snap.Chunks), len(snap.Vectors))
	}

	ids := make(map[string]struct{}, len(snap.Chunks))
	for _, chunk := range snap.Chunks {
		if err := s.chunks.Add(ctx, chunk); err != nil {
			return fmt.Errorf("restore chunk %s: %w", chunk.ID, err)
		}
		ids[chunk.ID] = struct{}{}
	}

	for _, entry := range snap.Vectors {
		if _, ok := ids[entry.ChunkID]; !ok {
			return fmt.Errorf("%w: vector %s has no chunk",
				domain.ErrCorruptSnapshot, entry.ChunkID)
		}
		if err := s.vectors.Insert(ctx, entry.ChunkID, entry.Vector); err != nil {
			return fmt.Errorf("restore vector %s: %w", entry.ChunkID, err)
		}
	}

	return nil
}

// preparedChunk is an embedded item awaiting commit.
type preparedChunk struct {
	index  int
	chunk  domain.Chunk
	vector []float32
}

// IndexDocuments embeds each item, then commits every paired store-add
// and index-insert under one writer lock acquisition, so a batch becomes
// visible to readers as a whole rather than piecemeal. If either half of
// a pair fails, the other is rolled back so the lockstep invariant holds.
// Per-item failures (such as an embedding call failing for item 3 of 10)
// are reported, not fatal: the remaining items are still indexed.
func (s *RetrievalService) IndexDocuments(
	ctx context.Context, items []domain.DocumentInput,
) (*driving.IndexReport, error) {
	logger.Section("Index Documents")
	logger.Debug("Batch of %d items", len(items))

	report := &driving.IndexReport{
		CreatedIDs: make([]string, 0, len(items)),
	}

	// Embedding is the blocking step; run it for the whole batch before
	// taking the writer lock.
	prepared := make([]preparedChunk, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			// Nothing has been committed yet; the caller learns where
			// processing stopped.
			return report, fmt.Errorf("index documents: %w", err)
		}

		chunk, vector, err := s.embedOne(ctx, item)
		if err != nil {
			logger.Warn("Item %d failed: %v", i, err)
			report.Failures = append(report.Failures, driving.IndexFailure{
				Index:  i,
				Reason: err.Error(),
			})
			continue
		}
		prepared = append(prepared, preparedChunk{index: i, chunk: chunk, vector: vector})
	}

	s.mu.Lock()
	for _, p := range prepared {
		if err := s.commitLocked(ctx, p.chunk, p.vector); err != nil {
			logger.Warn("Item %d failed: %v", p.index, err)
			report.Failures = append(report.Failures, driving.IndexFailure{
				Index:  p.index,
				Reason: err.Error(),
			})
			continue
		}
		report.CreatedIDs = append(report.CreatedIDs, p.chunk.ID)
	}
	s.mu.Unlock()

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Index < report.Failures[j].Index
	})

	logger.Info("Indexed %d/%d items (%d failures)",
		len(report.CreatedIDs), len(items), len(report.Failures))
	return report, nil
}

// embedOne validates an item and embeds it, producing the chunk and
// vector to commit.
func (s *RetrievalService) embedOne(
	ctx context.Context, item domain.DocumentInput,
) (domain.Chunk, []float32, error) {
	if strings.TrimSpace(item.Text) == "" {
		return domain.Chunk{}, nil, fmt.Errorf("%w: empty text body", domain.ErrInvalidInput)
	}

	vector, err := s.embedder.Embed(ctx, item.Text)
	if err != nil {
		return domain.Chunk{}, nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}

	chunk := domain.Chunk{
		ID:          uuid.New().String(),
		Text:        item.Text,
		SourceDocID: item.SourceDocID,
		Metadata:    item.Metadata,
	}
	return chunk, vector, nil
}

// commitLocked performs the paired store-add and index-insert. Caller
// holds the write lock.
func (s *RetrievalService) commitLocked(ctx context.Context, chunk domain.Chunk, vector []float32) error {
	if err := s.chunks.Add(ctx, chunk); err != nil {
		return fmt.Errorf("store chunk: %w", err)
	}
	if err := s.vectors.Insert(ctx, chunk.ID, vector); err != nil {
		// Roll back the store half so the containers stay in lockstep.
		_ = s.chunks.Remove(ctx, chunk.ID)
		return fmt.Errorf("index vector: %w", err)
	}
	return nil
}

// RetrieveTopK embeds the query, searches the vector index and hydrates
// each hit into its full chunk. An empty index returns a result with zero
// chunks and confidence 0. Queries never mutate state.
func (s *RetrievalService) RetrieveTopK(
	ctx context.Context, query string, k int,
) (*domain.RetrievalResult, error) {
	logger.Section("Retrieve Top-K")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.RetrievalResult{}, nil
	}
	if k <= 0 {
		k = domain.DefaultTopK
	}
	logger.Debug("Query: %q, k=%d", query, k)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.vectors.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	result := &domain.RetrievalResult{
		Chunks: make([]domain.ScoredChunk, 0, len(hits)),
	}

	for _, hit := range hits {
		chunk, err := s.chunks.Get(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Chunk was removed under a racing writer, skip it.
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}
		result.Chunks = append(result.Chunks, domain.ScoredChunk{
			Chunk: *chunk,
			Score: hit.Similarity,
		})
	}

	result.Confidence = s.gate.Confidence(result.Chunks)
	logger.Info("Retrieved %d chunks, confidence %.4f", len(result.Chunks), result.Confidence)
	return result, nil
}

// Remove deletes a chunk and its vector in one logical unit.
func (s *RetrievalService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.chunks.Get(ctx, id); err != nil {
		return err
	}

	// The vector may already be gone if a previous removal was
	// interrupted; removing the chunk restores lockstep either way.
	if err := s.vectors.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("remove vector %s: %w", id, err)
	}
	if err := s.chunks.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove chunk %s: %w", id, err)
	}

	logger.Debug("Removed chunk %s", id)
	return nil
}

// Checkpoint persists the current state through the snapshot store.
func (s *RetrievalService) Checkpoint(ctx context.Context) error {
	if s.snapshots == nil {
		return errors.New("snapshot store not configured")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, err := s.chunks.List(ctx)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	vectors, err := s.vectors.Dump(ctx)
	if err != nil {
		return fmt.Errorf("dump vectors: %w", err)
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("store/index out of sync: %d chunks, %d vectors",
			len(chunks), len(vectors))
	}

	snap := &driven.Snapshot{
		Dimension: s.vectors.Dimensions(),
		Chunks:    chunks,
		Vectors:   vectors,
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info("Checkpoint: %d chunks persisted", len(chunks))
	return nil
}

// ReindexFromSnapshot discards in-memory state and reloads it from the
// persisted snapshot. A missing snapshot leaves the service empty.
func (s *RetrievalService) ReindexFromSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return errors.New("snapshot store not configured")
	}

	snap, err := s.snapshots.Load(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chunks.Clear(ctx); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if err := s.vectors.Clear(ctx); err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}
	if snap == nil {
		logger.Info("No snapshot found, index is now empty")
		return nil
	}

	if err := s.restore(ctx, snap); err != nil {
		_ = s.chunks.Clear(ctx)
		_ = s.vectors.Clear(ctx)
		return err
	}

	logger.Info("Reindexed %d chunks from snapshot", len(snap.Chunks))
	return nil
}

// ChunkCount returns the number of indexed chunks.
func (s *RetrievalService) ChunkCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks.Count(ctx)
}
