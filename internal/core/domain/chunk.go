package domain

import "strings"

// Chunk represents a unit of indexed text with its metadata.
// Chunks are immutable once stored except for metadata updates, and are
// owned exclusively by the chunk store.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Text is the UTF-8 text content of this chunk.
	Text string

	// SourceDocID identifies the document this chunk was taken from.
	SourceDocID string

	// Metadata contains arbitrary key-value pairs (source, date, ticker...).
	Metadata map[string]string
}

// Validate checks that the chunk is well-formed for storage.
func (c Chunk) Validate() error {
	if c.ID == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(c.Text) == "" {
		return ErrInvalidInput
	}
	return nil
}

// DocumentInput is a single item submitted for indexing. The retrieval
// service embeds the text and assigns the chunk id.
type DocumentInput struct {
	// Text is the document text to embed and index.
	Text string

	// SourceDocID identifies the originating document (optional).
	SourceDocID string

	// Metadata contains arbitrary key-value pairs carried on the chunk.
	Metadata map[string]string
}
