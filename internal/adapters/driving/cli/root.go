// Package cli implements the retriever command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/retriever-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/retriever-cli/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/retriever-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/retriever-cli/internal/adapters/driven/index/brute"
	snapshotfile "github.com/custodia-labs/retriever-cli/internal/adapters/driven/snapshot/file"
	snapshotsqlite "github.com/custodia-labs/retriever-cli/internal/adapters/driven/snapshot/sqlite"
	"github.com/custodia-labs/retriever-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/retriever-cli/internal/core/domain"
	"github.com/custodia-labs/retriever-cli/internal/core/ports/driven"
	"github.com/custodia-labs/retriever-cli/internal/core/services"
	"github.com/custodia-labs/retriever-cli/internal/logger"
)

// Set by main at build time.
var version = "dev"

// Global flags.
var (
	verboseFlag bool
	configPath  string
	apiKey      string
)

// Wired runtime, built once per invocation by initRuntime.
var (
	settings         domain.Settings
	embedder         driven.Embedder
	snapshots        driven.SnapshotStore
	retrievalService *services.RetrievalService
	gate             *services.ConfidenceGate
)

var rootCmd = &cobra.Command{
	Use:   "retriever",
	Short: "Index and retrieve embedded document chunks",
	Long: `Retriever maintains a persistent index of embedded document chunks,
answers similarity queries with a ranked top-k result, and gates results
behind a confidence threshold that decides whether downstream synthesis
may proceed or must fall back to a clarification request.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.retriever/config.toml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "embedding API key (defaults to OPENAI_API_KEY)")
}

// Execute runs the root command.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	return rootCmd.Execute()
}

// initRuntime loads settings, builds the adapters and starts the
// retrieval service (loading the snapshot if one exists). Commands that
// operate on the index call this in their RunE.
func initRuntime(ctx context.Context) error {
	var err error
	settings, err = configfile.LoadSettings(configPath)
	if err != nil {
		return err
	}
	logger.Debug("Settings: backend=%s provider=%s dimension=%d threshold=%.2f",
		settings.StorageBackend, settings.EmbeddingProvider,
		settings.EmbeddingDimension, settings.DefaultConfidenceThreshold)

	embedder, err = buildEmbedder(settings)
	if err != nil {
		return fmt.Errorf("configure embedding client: %w", err)
	}

	snapshots, err = buildSnapshotStore(settings)
	if err != nil {
		return fmt.Errorf("configure snapshot store: %w", err)
	}

	index, err := brute.New(settings.EmbeddingDimension)
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	gate = services.NewConfidenceGate()
	retrievalService = services.NewRetrievalService(
		memory.NewChunkStore(), index, embedder, snapshots, gate)

	return retrievalService.Start(ctx)
}

// closeRuntime releases adapter resources.
func closeRuntime() {
	if embedder != nil {
		if err := embedder.Close(); err != nil {
			logger.Warn("Closing embedding client: %v", err)
		}
	}
	if snapshots != nil {
		if err := snapshots.Close(); err != nil {
			logger.Warn("Closing snapshot store: %v", err)
		}
	}
}

// buildEmbedder constructs the configured embedding client.
func buildEmbedder(s domain.Settings) (driven.Embedder, error) {
	switch s.EmbeddingProvider {
	case domain.ProviderOllama:
		return ollama.NewEmbedder(ollama.Config{
			BaseURL:    s.EmbeddingBaseURL,
			Model:      s.EmbeddingModel,
			Dimensions: s.EmbeddingDimension,
		}), nil
	case domain.ProviderOpenAI:
		key := apiKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return openai.NewEmbedder(openai.Config{
			APIKey:     key,
			BaseURL:    s.EmbeddingBaseURL,
			Model:      s.EmbeddingModel,
			Dimensions: s.EmbeddingDimension,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", s.EmbeddingProvider)
	}
}

// buildSnapshotStore constructs the configured persistence backend.
func buildSnapshotStore(s domain.Settings) (driven.SnapshotStore, error) {
	switch s.StorageBackend {
	case domain.BackendFile:
		return snapshotfile.NewStore(s.StoragePath)
	case domain.BackendSQLite:
		return snapshotsqlite.NewStore(s.StoragePath)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", s.StorageBackend)
	}
}
