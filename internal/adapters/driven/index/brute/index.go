// Package brute provides an exact in-memory vector index.
//
// Similarity is cosine: vectors are normalised on insert and the query is
// normalised per search, so callers never need to pre-normalise. For the
// target corpus size (hundreds to low thousands of chunks) an exact scan
// over all stored vectors is preferred for correctness over approximate
// structures.
package brute

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry holds a stored vector together with its unit-norm form.
type entry struct {
	vector     []float32
	normalised []float32
}

// Index is a brute-force cosine similarity index.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]entry
}

// New creates an index with the given fixed dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidInput)
	}
	return &Index{
		dimension: dimension,
		entries:   make(map[string]entry),
	}, nil
}

// Insert stores a vector for the given chunk id, replacing any existing
// vector under that id.
func (x *Index) Insert(_ context.Context, chunkID string, vector []float32) error {
	if chunkID == "" {
		return fmt.Errorf("%w: empty chunk id", domain.ErrInvalidInput)
	}
	if len(vector) != x.dimension {
		return fmt.Errorf("%w: got %d, index dimension is %d",
			domain.ErrDimensionMismatch, len(vector), x.dimension)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	stored := make([]float32, len(vector))
	copy(stored, vector)
	x.entries[chunkID] = entry{
		vector:     stored,
		normalised: normalise(stored),
	}
	return nil
}

// Remove deletes a vector from the index.
func (x *Index) Remove(_ context.Context, chunkID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.entries[chunkID]; !ok {
		return domain.ErrNotFound
	}
	delete(x.entries, chunkID)
	return nil
}

// Search finds the k nearest neighbours to the query vector. Results are
// sorted by similarity descending; equal scores are broken by ascending
// chunk id for determinism. An empty index returns an empty slice.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: got %d, index dimension is %d",
			domain.ErrDimensionMismatch, len(query), x.dimension)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	q := normalise(query)

	hits := make([]driven.VectorHit, 0, len(x.entries))
	for id, e := range x.entries {
		hits = append(hits, driven.VectorHit{
			ChunkID:    id,
			Similarity: dot(q, e.normalised),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Dimensions returns the fixed vector dimension.
func (x *Index) Dimensions() int {
	return x.dimension
}

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Dump returns every stored entry sorted by ascending chunk id. The
// original (un-normalised) vectors are returned so snapshots round-trip
// exactly.
func (x *Index) Dump(_ context.Context) ([]driven.VectorEntry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]driven.VectorEntry, 0, len(x.entries))
	for id, e := range x.entries {
		vector := make([]float32, len(e.vector))
		copy(vector, e.vector)
		out = append(out, driven.VectorEntry{ChunkID: id, Vector: vector})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChunkID < out[j].ChunkID
	})
	return out, nil
}

// Clear removes every vector.
func (x *Index) Clear(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]entry)
	return nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// normalise returns the unit-norm copy of v. A zero vector stays zero and
// scores 0 against everything.
func normalise(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// dot computes the inner product of two equal-length vectors in float64
// for accumulation accuracy.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
