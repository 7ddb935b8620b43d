package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

func scored(scores ...float64) []domain.ScoredChunk {
	chunks := make([]domain.ScoredChunk, len(scores))
	for i, s := range scores {
		chunks[i] = domain.ScoredChunk{
			Chunk: domain.Chunk{ID: "chunk", Text: "text"},
			Score: s,
		}
	}
	return chunks
}

func TestConfidenceGate_Confidence(t *testing.T) {
	gate := NewConfidenceGate()

	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{
			name:   "empty is zero",
			scores: nil,
			want:   0,
		},
		{
			name:   "single hit uses top score alone",
			scores: []float64{0.7},
			want:   0.7,
		},
		{
			name:   "blends top score with rank gap",
			scores: []float64{0.9, 0.6, 0.4},
			// 0.8*0.9 + 0.2*(0.9-0.4)
			want: 0.82,
		},
		{
			name:   "flat distribution scores lower than clear winner",
			scores: []float64{0.9, 0.9, 0.9},
			want:   0.72,
		},
		{
			name:   "clamped to one",
			scores: []float64{1.0, 0.0},
			want:   1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, gate.Confidence(scored(tt.scores...)), 1e-9)
		})
	}
}

func TestConfidenceGate_Evaluate_EmptyResult(t *testing.T) {
	gate := NewConfidenceGate()

	// Empty results fall back regardless of how permissive the
	// threshold is, including zero.
	for _, threshold := range []float64{0, 0.25, 1} {
		decision := gate.Evaluate(&domain.RetrievalResult{}, threshold)
		assert.Equal(t, domain.GateFallback, decision.Status)
		assert.Equal(t, domain.FallbackEmptyResult, decision.Reason)
		assert.Zero(t, decision.Confidence)
		assert.Empty(t, decision.Chunks)
	}

	decision := gate.Evaluate(nil, 0)
	assert.Equal(t, domain.GateFallback, decision.Status)
	assert.Equal(t, domain.FallbackEmptyResult, decision.Reason)
}

func TestConfidenceGate_Evaluate_Threshold(t *testing.T) {
	gate := NewConfidenceGate()
	result := &domain.RetrievalResult{Chunks: scored(0.9, 0.4)}

	pass := gate.Evaluate(result, 0.5)
	require.Equal(t, domain.GatePass, pass.Status)
	assert.True(t, pass.Passed())
	assert.Len(t, pass.Chunks, 2)
	assert.Empty(t, pass.Reason)

	fallback := gate.Evaluate(result, 0.99)
	require.Equal(t, domain.GateFallback, fallback.Status)
	assert.Equal(t, domain.FallbackLowConfidence, fallback.Reason)
	assert.Empty(t, fallback.Chunks)
	// Confidence is still reported so callers can log it.
	assert.Equal(t, pass.Confidence, fallback.Confidence)
}

func TestConfidenceGate_Evaluate_Deterministic(t *testing.T) {
	gate := NewConfidenceGate()
	result := &domain.RetrievalResult{Chunks: scored(0.61, 0.55, 0.2)}

	first := gate.Evaluate(result, 0.5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, gate.Evaluate(result, 0.5))
	}
}

func TestNewConfidenceGateWithWeights(t *testing.T) {
	custom := NewConfidenceGateWithWeights(0.5, 0.5)
	// 0.5*0.8 + 0.5*(0.8-0.2)
	assert.InDelta(t, 0.7, custom.Confidence(scored(0.8, 0.2)), 1e-9)

	// Invalid weights fall back to defaults.
	fallback := NewConfidenceGateWithWeights(-1, 2)
	defaults := NewConfidenceGate()
	assert.Equal(t, defaults.Confidence(scored(0.8, 0.2)), fallback.Confidence(scored(0.8, 0.2)))
}
