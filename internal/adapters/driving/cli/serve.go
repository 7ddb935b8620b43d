package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriever-cli/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/retriever-cli/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the retrieval HTTP API",
	Long: `Starts the HTTP service consumed by the orchestrator. Exposes
POST /index_data, POST /retrieve_chunks, POST /snapshot and GET /healthz.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := initRuntime(ctx); err != nil {
		return err
	}
	defer closeRuntime()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := embedder.Ping(pingCtx); err != nil {
		logger.Warn("Embedding client unreachable, indexing and queries will fail until it recovers: %v", err)
	}
	cancel()

	addr := serveAddr
	if addr == "" {
		addr = settings.ListenAddr
	}

	server := httpapi.New(retrievalService, gate, settings.DefaultConfidenceThreshold, embedder.ModelName())
	return server.ListenAndServe(ctx, addr)
}
