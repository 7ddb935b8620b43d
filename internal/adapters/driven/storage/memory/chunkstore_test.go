package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

func TestChunkStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	chunk := domain.Chunk{
		ID:          "chunk-1",
		Text:        "content",
		SourceDocID: "doc-1",
		Metadata:    map[string]string{"source": "news"},
	}
	require.NoError(t, store.Add(ctx, chunk))

	got, err := store.Get(ctx, "chunk-1")
	require.NoError(t, err)
	assert.Equal(t, chunk, *got)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_Add_Validation(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	assert.ErrorIs(t, store.Add(ctx, domain.Chunk{Text: "no id"}), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Add(ctx, domain.Chunk{ID: "a", Text: "  "}), domain.ErrInvalidInput)
}

func TestChunkStore_Add_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	require.NoError(t, store.Add(ctx, domain.Chunk{ID: "a", Text: "first"}))
	err := store.Add(ctx, domain.Chunk{ID: "a", Text: "second"})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	// The original is untouched.
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Text)
}

func TestChunkStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	require.NoError(t, store.Add(ctx, domain.Chunk{ID: "a", Text: "content"}))
	require.NoError(t, store.Remove(ctx, "a"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Remove(ctx, "a"), domain.ErrNotFound)
}

func TestChunkStore_ListAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, store.Add(ctx, domain.Chunk{ID: "b", Text: "second"}))
	require.NoError(t, store.Add(ctx, domain.Chunk{ID: "a", Text: "first"}))
	require.NoError(t, store.Add(ctx, domain.Chunk{ID: "c", Text: "third"}))

	chunks, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a", chunks[0].ID)
	assert.Equal(t, "b", chunks[1].ID)
	assert.Equal(t, "c", chunks[2].ID)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestChunkStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	require.NoError(t, store.Add(ctx, domain.Chunk{ID: "a", Text: "content"}))
	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChunkStore_MetadataIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	metadata := map[string]string{"topic": "rates"}
	require.NoError(t, store.Add(ctx, domain.Chunk{ID: "a", Text: "content", Metadata: metadata}))

	// Mutating the caller's map must not affect stored state.
	metadata["topic"] = "tampered"

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "rates", got.Metadata["topic"])

	// Mutating a returned copy must not affect stored state either.
	got.Metadata["topic"] = "tampered again"

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "rates", again.Metadata["topic"])
}
