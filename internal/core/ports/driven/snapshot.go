package driven

import (
	"context"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

// Snapshot format versions.
const (
	// SnapshotFormatVersion is the current snapshot container version.
	// Loading code rejects snapshots declaring a newer version with
	// domain.ErrIncompatibleVersion.
	SnapshotFormatVersion = 1
)

// Snapshot is the serialized form of the chunk store and vector index
// pair, tagged with a format version and chunk count.
type Snapshot struct {
	// Dimension is the embedding dimension the snapshot was written with.
	Dimension int

	// Chunks are the persisted chunk records, sorted by ascending id.
	Chunks []domain.Chunk

	// Vectors are the persisted embeddings aligned with Chunks by id.
	Vectors []VectorEntry
}

// SnapshotStore serializes and deserializes the chunk store and vector
// index pair to durable storage. The on-disk artefact is exclusively
// owned by the implementation; no other component touches it.
type SnapshotStore interface {
	// Save writes the snapshot atomically to a fixed location. Saving
	// twice with identical state produces byte-identical output.
	Save(ctx context.Context, snap *Snapshot) error

	// Load reads the snapshot back. It returns domain.ErrNotFound when
	// no snapshot exists, domain.ErrIncompatibleVersion when the stored
	// format version is newer than supported, and
	// domain.ErrCorruptSnapshot when the declared chunk count does not
	// match the decoded records. A failed load never returns partial
	// data.
	Load(ctx context.Context) (*Snapshot, error)

	// Close releases resources.
	Close() error
}
