package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/logger"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "RETRIEVER_"

// fileSettings is the TOML layout of the config file.
type fileSettings struct {
	StoragePath                string  `toml:"storage_path"`
	StorageBackend             string  `toml:"storage_backend"`
	DefaultConfidenceThreshold float64 `toml:"default_confidence_threshold"`
	SimilarityMetric           string  `toml:"similarity_metric"`
	ListenAddr                 string  `toml:"listen_addr"`

	Embedding struct {
		Provider  string `toml:"provider"`
		Model     string `toml:"model"`
		BaseURL   string `toml:"base_url"`
		Dimension int    `toml:"dimension"`
	} `toml:"embedding"`
}

// DefaultPath returns the default config file location,
// ~/.retriever/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".retriever", "config.toml"), nil
}

// LoadSettings reads settings from the TOML file at path, applies
// environment overrides and validates the result. A missing file is not
// an error; defaults plus overrides are used. If path is empty, the
// default location is used.
func LoadSettings(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return settings, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return settings, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		var fs fileSettings
		if err := toml.Unmarshal(data, &fs); err != nil {
			return settings, fmt.Errorf("parse config %s: %w", path, err)
		}
		applyFile(&settings, fs)
	}

	applyEnv(&settings)

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("config %s: %w", path, err)
	}
	return settings, nil
}

// applyFile copies non-zero file values onto the settings.
func applyFile(s *domain.Settings, fs fileSettings) {
	if fs.StoragePath != "" {
		s.StoragePath = fs.StoragePath
	}
	if fs.StorageBackend != "" {
		s.StorageBackend = domain.StorageBackend(fs.StorageBackend)
	}
	if fs.DefaultConfidenceThreshold != 0 {
		s.DefaultConfidenceThreshold = fs.DefaultConfidenceThreshold
	}
	if fs.SimilarityMetric != "" {
		s.SimilarityMetric = domain.SimilarityMetric(fs.SimilarityMetric)
	}
	if fs.ListenAddr != "" {
		s.ListenAddr = fs.ListenAddr
	}
	if fs.Embedding.Provider != "" {
		s.EmbeddingProvider = domain.EmbeddingProvider(fs.Embedding.Provider)
	}
	if fs.Embedding.Model != "" {
		s.EmbeddingModel = fs.Embedding.Model
	}
	if fs.Embedding.BaseURL != "" {
		s.EmbeddingBaseURL = fs.Embedding.BaseURL
	}
	if fs.Embedding.Dimension != 0 {
		s.EmbeddingDimension = fs.Embedding.Dimension
	}
}

// applyEnv copies RETRIEVER_* environment overrides onto the settings.
func applyEnv(s *domain.Settings) {
	if v := os.Getenv(EnvPrefix + "STORAGE_PATH"); v != "" {
		s.StoragePath = v
	}
	if v := os.Getenv(EnvPrefix + "STORAGE_BACKEND"); v != "" {
		s.StorageBackend = domain.StorageBackend(v)
	}
	if v := os.Getenv(EnvPrefix + "CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.DefaultConfidenceThreshold = f
		} else {
			logger.Warn("Ignoring %sCONFIDENCE_THRESHOLD=%q: not a number", EnvPrefix, v)
		}
	}
	if v := os.Getenv(EnvPrefix + "SIMILARITY_METRIC"); v != "" {
		s.SimilarityMetric = domain.SimilarityMetric(v)
	}
	if v := os.Getenv(EnvPrefix + "LISTEN_ADDR"); v != "" {
		s.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDING_PROVIDER"); v != "" {
		s.EmbeddingProvider = domain.EmbeddingProvider(v)
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDING_MODEL"); v != "" {
		s.EmbeddingModel = v
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDING_BASE_URL"); v != "" {
		s.EmbeddingBaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDING_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.EmbeddingDimension = n
		} else {
			logger.Warn("Ignoring %sEMBEDDING_DIMENSION=%q: not an integer", EnvPrefix, v)
		}
	}
}
