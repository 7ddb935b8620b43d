package domain

// ScoredChunk pairs a chunk with its similarity score for one query.
type ScoredChunk struct {
	// Chunk is the hydrated chunk.
	Chunk Chunk

	// Score is the cosine similarity against the query (0-1).
	Score float64
}

// RetrievalResult is the ranked outcome of a single query. It is created
// fresh per query and never persisted.
type RetrievalResult struct {
	// Chunks are the retrieved chunks, sorted descending by score.
	Chunks []ScoredChunk

	// Confidence is derived from the score distribution. Zero when
	// nothing was retrieved.
	Confidence float64
}

// TopScore returns the rank-1 similarity, or 0 for an empty result.
func (r RetrievalResult) TopScore() float64 {
	if len(r.Chunks) == 0 {
		return 0
	}
	return r.Chunks[0].Score
}

// Empty reports whether the query retrieved nothing. This is a normal
// "nothing indexed yet" state, not a failure.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// GateStatus is the verdict of the confidence gate.
type GateStatus string

// Gate verdicts.
const (
	// GatePass means retrieval is confident enough to proceed to
	// synthesis.
	GatePass GateStatus = "pass"

	// GateFallback means the orchestrator should degrade or prompt the
	// user for clarification instead.
	GateFallback GateStatus = "fallback"
)

// Fallback reasons reported to the orchestrator.
const (
	// FallbackEmptyResult is returned when nothing was retrieved.
	FallbackEmptyResult = "empty_result"

	// FallbackLowConfidence is returned when the score distribution is
	// below the configured threshold.
	FallbackLowConfidence = "low_confidence"
)

// GateDecision is the single decision point the orchestrator relies on to
// choose between synthesis and clarification.
type GateDecision struct {
	// Status is pass or fallback.
	Status GateStatus

	// Chunks are the retrieved chunks, present on pass.
	Chunks []ScoredChunk

	// Confidence is the computed confidence for the result.
	Confidence float64

	// Reason explains a fallback verdict. Empty on pass.
	Reason string
}

// Passed reports whether the gate let the result through.
func (d GateDecision) Passed() bool {
	return d.Status == GatePass
}
