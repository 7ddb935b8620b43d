package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driving"
	"github.com/custodia-labs/retriever-cli/internal/core/services"
)

// mockRetrievalService implements driving.RetrievalService for TUI tests.
type mockRetrievalService struct {
	RetrieveFunc func(ctx context.Context, query string, k int) (*domain.RetrievalResult, error)
}

func (m *mockRetrievalService) IndexDocuments(
	_ context.Context, _ []domain.DocumentInput,
) (*driving.IndexReport, error) {
	return &driving.IndexReport{}, nil
}

func (m *mockRetrievalService) RetrieveTopK(
	ctx context.Context, query string, k int,
) (*domain.RetrievalResult, error) {
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, query, k)
	}
	return &domain.RetrievalResult{}, nil
}

func (m *mockRetrievalService) Remove(_ context.Context, _ string) error    { return nil }
func (m *mockRetrievalService) Checkpoint(_ context.Context) error          { return nil }
func (m *mockRetrievalService) ReindexFromSnapshot(_ context.Context) error { return nil }
func (m *mockRetrievalService) ChunkCount(_ context.Context) (int, error)   { return 0, nil }

func newTestModel(service driving.RetrievalService) Model {
	return New(service, services.NewConfidenceGate(), 0.25, 5)
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func typeQuery(m Model, query string) Model {
	for _, r := range query {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func TestModel_ViewBeforeReady(t *testing.T) {
	m := newTestModel(&mockRetrievalService{})
	assert.Equal(t, "Loading...", m.View())
}

func TestModel_WindowSizeEnablesView(t *testing.T) {
	m := sized(newTestModel(&mockRetrievalService{}))

	view := m.View()
	assert.Contains(t, view, "Retriever Query Console")
	assert.Contains(t, view, "No results yet.")
}

func TestModel_QuitKeys(t *testing.T) {
	m := sized(newTestModel(&mockRetrievalService{}))

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd, "expected quit command for %v", key)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestModel_QueryShowsResults(t *testing.T) {
	service := &mockRetrievalService{
		RetrieveFunc: func(_ context.Context, query string, k int) (*domain.RetrievalResult, error) {
			assert.Equal(t, "rates", query)
			assert.Equal(t, 5, k)
			return &domain.RetrievalResult{
				Chunks: []domain.ScoredChunk{
					{Chunk: domain.Chunk{ID: "a", Text: "rates rose sharply", SourceDocID: "doc-1"}, Score: 0.9},
					{Chunk: domain.Chunk{ID: "b", Text: "tech rallied"}, Score: 0.5},
				},
			}, nil
		},
	}

	m := typeQuery(sized(newTestModel(service)), "rates")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "Result 1/2")
	assert.Contains(t, view, "rates rose sharply")
	assert.Contains(t, view, "doc-1")
	assert.Contains(t, view, "pass")
}

func TestModel_CursorCyclesResults(t *testing.T) {
	service := &mockRetrievalService{
		RetrieveFunc: func(_ context.Context, _ string, _ int) (*domain.RetrievalResult, error) {
			return &domain.RetrievalResult{
				Chunks: []domain.ScoredChunk{
					{Chunk: domain.Chunk{ID: "a", Text: "first result"}, Score: 0.9},
					{Chunk: domain.Chunk{ID: "b", Text: "second result"}, Score: 0.5},
				},
			}, nil
		},
	}

	m := typeQuery(sized(newTestModel(service)), "anything")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Contains(t, m.View(), "second result")

	// Wraps back around.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Contains(t, m.View(), "first result")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	assert.Contains(t, m.View(), "second result")
}

func TestModel_FallbackShown(t *testing.T) {
	service := &mockRetrievalService{
		RetrieveFunc: func(_ context.Context, _ string, _ int) (*domain.RetrievalResult, error) {
			return &domain.RetrievalResult{}, nil
		},
	}

	m := typeQuery(sized(newTestModel(service)), "nothing matches")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "fallback")
	assert.Contains(t, view, domain.FallbackEmptyResult)
}
