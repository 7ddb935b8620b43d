package driven

import "context"

// VectorIndex stores embeddings keyed by chunk id and answers k-nearest
// neighbour queries. All vectors share a fixed dimension set at index
// creation; inserts with any other dimension fail with
// domain.ErrDimensionMismatch.
//
// The similarity metric is cosine. Implementations normalise internally,
// so callers need not pre-normalise vectors.
type VectorIndex interface {
	// Insert stores a vector for the given chunk id, replacing any
	// existing vector under that id.
	Insert(ctx context.Context, chunkID string, vector []float32) error

	// Remove deletes a vector from the index. Returns
	// domain.ErrNotFound if no vector exists for the id.
	Remove(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector,
	// sorted by similarity descending with ties broken by ascending
	// chunk id. Searching an empty index returns an empty slice,
	// not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Dimensions returns the fixed vector dimension.
	Dimensions() int

	// Len returns the number of stored vectors.
	Len() int

	// Dump returns every stored entry, sorted by ascending chunk id.
	// Used by snapshot persistence.
	Dump(ctx context.Context) ([]VectorEntry, error)

	// Clear removes every vector. Used when reloading from a snapshot.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// VectorEntry is a stored (id, vector) pair as persisted in snapshots.
type VectorEntry struct {
	// ChunkID is the chunk the vector belongs to.
	ChunkID string

	// Vector is the stored embedding.
	Vector []float32
}
