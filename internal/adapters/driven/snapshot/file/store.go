// Package file persists index snapshots as a single versioned JSON file.
//
// Writes are atomic: the snapshot is written to a temp file in the target
// directory and renamed over the fixed location. Saving identical state
// twice produces byte-identical output, since chunks and vectors arrive
// pre-sorted by id and JSON map keys encode in sorted order.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// DefaultFileName is the snapshot file name used when the configured
// storage path is a directory.
const DefaultFileName = "index.snapshot.json"

// container is the on-disk snapshot layout.
type container struct {
	Header  header         `json:"header"`
	Chunks  []chunkRecord  `json:"chunks"`
	Vectors []vectorRecord `json:"vectors"`
}

// header identifies the snapshot format and declares its contents.
type header struct {
	FormatVersion      int `json:"format_version"`
	ChunkCount         int `json:"chunk_count"`
	EmbeddingDimension int `json:"embedding_dimension"`
}

type chunkRecord struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	SourceDocID string            `json:"source_doc_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type vectorRecord struct {
	ChunkID string    `json:"chunk_id"`
	Vector  []float32 `json:"vector"`
}

// Store persists snapshots at a fixed file path.
type Store struct {
	path string
}

// NewStore creates a snapshot store at the given path. If path is empty,
// defaults to ~/.retriever/data/index.snapshot.json.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".retriever", "data", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	return &Store{path: path}, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes the snapshot atomically via temp file plus rename.
func (s *Store) Save(_ context.Context, snap *driven.Snapshot) error {
	c := container{
		Header: header{
			FormatVersion:      driven.SnapshotFormatVersion,
			ChunkCount:         len(snap.Chunks),
			EmbeddingDimension: snap.Dimension,
		},
		Chunks:  make([]chunkRecord, 0, len(snap.Chunks)),
		Vectors: make([]vectorRecord, 0, len(snap.Vectors)),
	}
	for _, chunk := range snap.Chunks {
		c.Chunks = append(c.Chunks, chunkRecord{
			ID:          chunk.ID,
			Text:        chunk.Text,
			SourceDocID: chunk.SourceDocID,
			Metadata:    chunk.Metadata,
		})
	}
	for _, entry := range snap.Vectors {
		c.Vectors = append(c.Vectors, vectorRecord{
			ChunkID: entry.ChunkID,
			Vector:  entry.Vector,
		})
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads and validates the snapshot. It fails closed: any structural
// problem yields an error and no partial data.
func (s *Store) Load(_ context.Context) (*driven.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var c container
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}

	if c.Header.FormatVersion > driven.SnapshotFormatVersion {
		return nil, fmt.Errorf("%w: snapshot version %d, supported up to %d",
			domain.ErrIncompatibleVersion, c.Header.FormatVersion, driven.SnapshotFormatVersion)
	}
	if c.Header.FormatVersion < 1 {
		return nil, fmt.Errorf("%w: invalid format version %d",
			domain.ErrCorruptSnapshot, c.Header.FormatVersion)
	}
	if c.Header.ChunkCount != len(c.Chunks) {
		return nil, fmt.Errorf("%w: header declares %d chunks, decoded %d",
			domain.ErrCorruptSnapshot, c.Header.ChunkCount, len(c.Chunks))
	}
	if len(c.Chunks) != len(c.Vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors",
			domain.ErrCorruptSnapshot, len(c.Chunks), len(c.Vectors))
	}

	snap := &driven.Snapshot{
		Dimension: c.Header.EmbeddingDimension,
		Chunks:    make([]domain.Chunk, 0, len(c.Chunks)),
		Vectors:   make([]driven.VectorEntry, 0, len(c.Vectors)),
	}
	for _, rec := range c.Chunks {
		snap.Chunks = append(snap.Chunks, domain.Chunk{
			ID:          rec.ID,
			Text:        rec.Text,
			SourceDocID: rec.SourceDocID,
			Metadata:    rec.Metadata,
		})
	}
	for _, rec := range c.Vectors {
		if len(rec.Vector) != c.Header.EmbeddingDimension {
			return nil, fmt.Errorf("%w: vector %s has dimension %d, header declares %d",
				domain.ErrCorruptSnapshot, rec.ChunkID, len(rec.Vector), c.Header.EmbeddingDimension)
		}
		snap.Vectors = append(snap.Vectors, driven.VectorEntry{
			ChunkID: rec.ChunkID,
			Vector:  rec.Vector,
		})
	}

	return snap, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
