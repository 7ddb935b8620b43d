package services

import (
	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driving"
	"github.com/custodia-labs/retriever-cli/internal/logger"
)

// Ensure ConfidenceGate implements the interface.
var _ driving.Gate = (*ConfidenceGate)(nil)

// Default confidence weights. The precise confidence function is a
// tunable policy; the required signals are the top-1 score and the score
// gap between rank 1 and rank k. A low top score, or a flat distribution
// with no clear winner, both indicate low confidence.
const (
	DefaultTopWeight = 0.8
	DefaultGapWeight = 0.2
)

// ConfidenceGate post-processes a retrieval result, deciding pass or
// fallback against a configurable threshold. The decision is
// deterministic: identical result and threshold always yield the
// identical verdict.
type ConfidenceGate struct {
	topWeight float64
	gapWeight float64
}

// NewConfidenceGate creates a gate with the default confidence weights.
func NewConfidenceGate() *ConfidenceGate {
	return &ConfidenceGate{
		topWeight: DefaultTopWeight,
		gapWeight: DefaultGapWeight,
	}
}

// NewConfidenceGateWithWeights creates a gate with custom weights.
// Weights outside (0,1] fall back to the defaults.
func NewConfidenceGateWithWeights(topWeight, gapWeight float64) *ConfidenceGate {
	if topWeight <= 0 || topWeight > 1 {
		topWeight = DefaultTopWeight
	}
	if gapWeight <= 0 || gapWeight > 1 {
		gapWeight = DefaultGapWeight
	}
	return &ConfidenceGate{
		topWeight: topWeight,
		gapWeight: gapWeight,
	}
}

// Confidence computes the confidence for a ranked chunk list.
// For a single hit the top score is used alone; otherwise the top score
// is blended with the rank-1 to rank-k gap and clamped to [0,1].
func (g *ConfidenceGate) Confidence(chunks []domain.ScoredChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}

	top := chunks[0].Score
	if len(chunks) == 1 {
		return clamp01(top)
	}

	last := chunks[len(chunks)-1].Score
	gap := top - last

	return clamp01(g.topWeight*top + g.gapWeight*gap)
}

// Evaluate decides pass or fallback for a retrieval result.
// An empty result always falls back with reason "empty_result",
// regardless of threshold.
func (g *ConfidenceGate) Evaluate(result *domain.RetrievalResult, threshold float64) domain.GateDecision {
	if result == nil || result.Empty() {
		logger.Debug("Gate: empty result, falling back")
		return domain.GateDecision{
			Status:     domain.GateFallback,
			Confidence: 0,
			Reason:     domain.FallbackEmptyResult,
		}
	}

	confidence := g.Confidence(result.Chunks)
	logger.Debug("Gate: confidence=%.4f threshold=%.4f top=%.4f hits=%d",
		confidence, threshold, result.TopScore(), len(result.Chunks))

	if confidence < threshold {
		return domain.GateDecision{
			Status:     domain.GateFallback,
			Confidence: confidence,
			Reason:     domain.FallbackLowConfidence,
		}
	}

	return domain.GateDecision{
		Status:     domain.GatePass,
		Chunks:     result.Chunks,
		Confidence: confidence,
	}
}

// clamp01 clamps v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
