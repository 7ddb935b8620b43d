package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates a chunk id collides with an existing,
	// unremoved chunk.
	ErrDuplicateID = errors.New("duplicate chunk id")

	// ErrInvalidInput indicates malformed or invalid input, such as a
	// chunk with an empty text body.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates a vector whose dimension does not
	// match the index's fixed dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptSnapshot indicates a snapshot whose declared chunk count
	// or structure does not match the decoded records. The caller must
	// start from an empty index rather than trust partial data.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrIncompatibleVersion indicates a snapshot written by a newer
	// format version than this build supports.
	ErrIncompatibleVersion = errors.New("incompatible snapshot version")

	// ErrEmbeddingFailure wraps a failure of the external embedding
	// client with enough context to retry or report.
	ErrEmbeddingFailure = errors.New("embedding client failure")
)
