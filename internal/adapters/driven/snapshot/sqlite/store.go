// Package sqlite persists index snapshots into a SQLite database.
//
// The whole snapshot is swapped in a single transaction, so readers of
// the database file never observe a partial save. The meta table carries
// the same header fields as the file snapshot format.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	format_version INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	embedding_dimension INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	source_doc_id TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	embedding BLOB NOT NULL
);
`

// Store persists snapshots in a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the snapshot database at the given path.
// If path is empty, defaults to ~/.retriever/data/index.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".retriever", "data", "index.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode for better concurrency between the writer and any
	// inspection tooling.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snap *driven.Snapshot) error {
	vectors := make(map[string][]float32, len(snap.Vectors))
	for _, entry := range snap.Vectors {
		vectors[entry.ChunkID] = entry.Vector
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_meta"); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, format_version, chunk_count, embedding_dimension)
		VALUES (1, ?, ?, ?)`,
		driven.SnapshotFormatVersion, len(snap.Chunks), snap.Dimension)
	if err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, text, source_doc_id, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range snap.Chunks {
		vector, ok := vectors[chunk.ID]
		if !ok {
			return fmt.Errorf("chunk %s has no vector", chunk.ID)
		}
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", chunk.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			chunk.ID, chunk.Text, chunk.SourceDocID, string(metadata),
			float32SliceToBytes(vector))
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads and validates the stored snapshot.
func (s *Store) Load(ctx context.Context) (*driven.Snapshot, error) {
	var formatVersion, chunkCount, dimension int
	row := s.db.QueryRowContext(ctx,
		"SELECT format_version, chunk_count, embedding_dimension FROM snapshot_meta WHERE id = 1")
	if err := row.Scan(&formatVersion, &chunkCount, &dimension); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read meta: %w", err)
	}

	if formatVersion > driven.SnapshotFormatVersion {
		return nil, fmt.Errorf("%w: snapshot version %d, supported up to %d",
			domain.ErrIncompatibleVersion, formatVersion, driven.SnapshotFormatVersion)
	}
	if formatVersion < 1 {
		return nil, fmt.Errorf("%w: invalid format version %d",
			domain.ErrCorruptSnapshot, formatVersion)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, source_doc_id, metadata, embedding
		FROM chunks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	defer rows.Close()

	snap := &driven.Snapshot{Dimension: dimension}
	for rows.Next() {
		var (
			chunk        domain.Chunk
			metadataJSON string
			blob         []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.Text, &chunk.SourceDocID, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata for %s: %v", domain.ErrCorruptSnapshot, chunk.ID, err)
		}
		vector := bytesToFloat32Slice(blob)
		if len(vector) != dimension {
			return nil, fmt.Errorf("%w: vector %s has dimension %d, meta declares %d",
				domain.ErrCorruptSnapshot, chunk.ID, len(vector), dimension)
		}
		snap.Chunks = append(snap.Chunks, chunk)
		snap.Vectors = append(snap.Vectors, driven.VectorEntry{ChunkID: chunk.ID, Vector: vector})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	if len(snap.Chunks) != chunkCount {
		return nil, fmt.Errorf("%w: meta declares %d chunks, decoded %d",
			domain.ErrCorruptSnapshot, chunkCount, len(snap.Chunks))
	}

	return snap, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
