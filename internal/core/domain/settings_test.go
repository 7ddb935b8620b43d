package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings_Valid(t *testing.T) {
	settings := DefaultSettings()
	require.NoError(t, settings.Validate())
	assert.Equal(t, BackendFile, settings.StorageBackend)
	assert.Equal(t, ProviderOllama, settings.EmbeddingProvider)
	assert.Equal(t, MetricCosine, settings.SimilarityMetric)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{
			name:   "unknown backend",
			mutate: func(s *Settings) { s.StorageBackend = "etcd" },
		},
		{
			name:   "unknown provider",
			mutate: func(s *Settings) { s.EmbeddingProvider = "cohere" },
		},
		{
			name:   "zero dimension",
			mutate: func(s *Settings) { s.EmbeddingDimension = 0 },
		},
		{
			name:   "threshold above one",
			mutate: func(s *Settings) { s.DefaultConfidenceThreshold = 1.5 },
		},
		{
			name:   "negative threshold",
			mutate: func(s *Settings) { s.DefaultConfidenceThreshold = -0.1 },
		},
		{
			name:   "unsupported metric",
			mutate: func(s *Settings) { s.SimilarityMetric = "euclidean" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.mutate(&settings)
			assert.ErrorIs(t, settings.Validate(), ErrInvalidInput)
		})
	}
}

func TestEmbeddingProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, ProviderOllama.RequiresAPIKey())
	assert.True(t, ProviderOpenAI.RequiresAPIKey())
}
