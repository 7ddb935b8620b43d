package domain

import "fmt"

const unknownDescription = "Unknown"

// SimilarityMetric selects how vector similarity is computed.
type SimilarityMetric string

// Available similarity metrics.
const (
	// MetricCosine is cosine similarity with internal normalisation.
	// Embedding magnitude is not semantically meaningful here, so this
	// is the default and currently the only supported metric.
	MetricCosine SimilarityMetric = "cosine"
)

// IsValid returns true if the metric is recognised.
func (m SimilarityMetric) IsValid() bool {
	return m == MetricCosine
}

// String returns the string representation.
func (m SimilarityMetric) String() string {
	return string(m)
}

// StorageBackend selects where snapshots are persisted.
type StorageBackend string

// Available storage backends.
const (
	// BackendFile persists snapshots as a versioned file written with an
	// atomic temp-file-plus-rename swap.
	BackendFile StorageBackend = "file"

	// BackendSQLite persists snapshots into a SQLite database, swapped
	// in a single transaction.
	BackendSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case BackendFile, BackendSQLite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case BackendFile:
		return "Versioned snapshot file"
	case BackendSQLite:
		return "SQLite database"
	default:
		return unknownDescription
	}
}

// EmbeddingProvider identifies the external embedding client.
type EmbeddingProvider string

// Available embedding providers.
const (
	// ProviderOllama is a local Ollama instance.
	ProviderOllama EmbeddingProvider = "ollama"

	// ProviderOpenAI is the OpenAI cloud API.
	ProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case ProviderOllama, ProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == ProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Default configuration values.
const (
	DefaultConfidenceThreshold = 0.25
	DefaultTopK                = 5
	DefaultListenAddr          = "127.0.0.1:8090"
)

// Settings is the process-wide configuration for the retrieval service.
// It is read once at startup and immutable thereafter.
type Settings struct {
	// StoragePath is the snapshot location (file path or SQLite
	// database path depending on the backend).
	StoragePath string

	// StorageBackend selects the snapshot persistence backend.
	StorageBackend StorageBackend

	// EmbeddingProvider selects the embedding client adapter.
	EmbeddingProvider EmbeddingProvider

	// EmbeddingModel is the model name passed to the provider.
	EmbeddingModel string

	// EmbeddingBaseURL overrides the provider's API base URL (optional).
	EmbeddingBaseURL string

	// EmbeddingDimension is the fixed vector dimension D. Must match the
	// embedding client's output.
	EmbeddingDimension int

	// DefaultConfidenceThreshold gates retrieval results when the caller
	// does not supply a threshold.
	DefaultConfidenceThreshold float64

	// SimilarityMetric is fixed to cosine unless explicitly overridden.
	SimilarityMetric SimilarityMetric

	// ListenAddr is the HTTP service listen address.
	ListenAddr string
}

// Validate checks the settings for internal consistency.
func (s Settings) Validate() error {
	if !s.StorageBackend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.StorageBackend)
	}
	if !s.EmbeddingProvider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.EmbeddingProvider)
	}
	if s.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", ErrInvalidInput)
	}
	if s.DefaultConfidenceThreshold < 0 || s.DefaultConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold must be in [0,1]", ErrInvalidInput)
	}
	if !s.SimilarityMetric.IsValid() {
		return fmt.Errorf("%w: unsupported similarity metric %q", ErrInvalidInput, s.SimilarityMetric)
	}
	return nil
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		StorageBackend:             BackendFile,
		EmbeddingProvider:          ProviderOllama,
		EmbeddingDimension:         768,
		DefaultConfidenceThreshold: DefaultConfidenceThreshold,
		SimilarityMetric:           MetricCosine,
		ListenAddr:                 DefaultListenAddr,
	}
}
