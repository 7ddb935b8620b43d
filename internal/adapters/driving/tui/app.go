// Package tui provides an interactive query console over the retrieval
// service. Type a query, press enter and browse the gated results.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driving"
)

// Model is the Bubble Tea model for the query console.
type Model struct {
	service   driving.RetrievalService
	gate      driving.Gate
	threshold float64
	topK      int

	input    textinput.Model
	viewport viewport.Model
	decision domain.GateDecision
	status   string
	cursor   int
	ready    bool
	queried  bool
}

// New creates a query console bound to the given service and gate.
func New(service driving.RetrievalService, gate driving.Gate, threshold float64, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	return Model{
		service:   service,
		gate:      gate,
		threshold: threshold,
		topK:      topK,
		input:     ti,
		viewport:  vp,
		status:    "Ready. Type to search.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, query box, spacer
		vh := msg.Height - reserved - rh
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m = m.runQuery(q)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.decision.Chunks) > 0 {
				m.cursor = (m.cursor + 1) % len(m.decision.Chunks)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.decision.Chunks) > 0 {
				m.cursor = (m.cursor - 1 + len(m.decision.Chunks)) % len(m.decision.Chunks)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runQuery retrieves and gates the query synchronously. Corpus-scale
// search returns quickly; the embedding call is the only real wait.
func (m Model) runQuery(query string) Model {
	result, err := m.service.RetrieveTopK(context.Background(), query, m.topK)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.decision = domain.GateDecision{}
		m.queried = false
		return m
	}

	m.decision = m.gate.Evaluate(result, m.threshold)
	m.cursor = 0
	m.queried = true

	if m.decision.Passed() {
		m.status = fmt.Sprintf("pass: %d chunks, confidence %.3f",
			len(m.decision.Chunks), m.decision.Confidence)
	} else {
		m.status = fmt.Sprintf("fallback (%s), confidence %.3f",
			m.decision.Reason, m.decision.Confidence)
	}
	return m
}

// View renders the console layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Retriever Query Console")
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := m.statusLine()
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) statusLine() string {
	if m.queried && !m.decision.Passed() {
		return fallbackStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func (m Model) renderCurrentResult() string {
	if !m.queried {
		return "No results yet."
	}
	if len(m.decision.Chunks) == 0 {
		return "Gate fell back: " + m.decision.Reason
	}

	sc := m.decision.Chunks[m.cursor]
	title := fmt.Sprintf("Result %d/%d  score=%.3f", m.cursor+1, len(m.decision.Chunks), sc.Score)
	body := sc.Chunk.Text
	if sc.Chunk.SourceDocID != "" {
		body += "\n\nSource: " + sc.Chunk.SourceDocID
	}
	return title + "\n\n" + body
}
