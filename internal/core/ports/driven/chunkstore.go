package driven

import (
	"context"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

// ChunkStore owns chunk text, metadata and source identifiers.
// Persistence is delegated to the SnapshotStore; implementations mutate
// in-memory (or database) state only.
type ChunkStore interface {
	// Add stores a new chunk. Fails with domain.ErrDuplicateID when the
	// id collides with an existing, unremoved chunk, and with
	// domain.ErrInvalidInput for an empty text body.
	Add(ctx context.Context, chunk domain.Chunk) error

	// Get retrieves a chunk by id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Chunk, error)

	// Remove deletes a chunk by id, or domain.ErrNotFound.
	Remove(ctx context.Context, id string) error

	// List returns all chunks sorted by ascending id. The returned
	// slice is a copy and safe to retain.
	List(ctx context.Context) ([]domain.Chunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Clear removes every chunk. Used when reloading from a snapshot.
	Clear(ctx context.Context) error
}
