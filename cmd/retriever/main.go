// Command retriever indexes embedded document chunks and answers
// confidence-gated similarity queries, either one-shot from the command
// line or as an HTTP service for an orchestrator.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/retriever-cli/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// API keys commonly live in a .env next to the binary during
	// development. Missing files are fine.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
