package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

var (
	queryK         int
	queryThreshold float64
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve the top-k chunks for a query",
	Long: `Embeds the query, searches the vector index and prints the gated
result. A fallback verdict means the orchestrator should ask for
clarification instead of synthesising an answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", 0, "confidence threshold (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the decision as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initRuntime(ctx); err != nil {
		return err
	}
	defer closeRuntime()

	result, err := retrievalService.RetrieveTopK(ctx, args[0], queryK)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	threshold := queryThreshold
	if threshold <= 0 {
		threshold = settings.DefaultConfidenceThreshold
	}
	decision := gate.Evaluate(result, threshold)

	if queryJSON {
		return outputDecisionJSON(cmd, decision)
	}
	return outputDecisionText(cmd, decision)
}

func outputDecisionJSON(cmd *cobra.Command, decision domain.GateDecision) error {
	data, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputDecisionText(cmd *cobra.Command, decision domain.GateDecision) error {
	cmd.Printf("Status: %s (confidence %.3f)\n", decision.Status, decision.Confidence)
	if !decision.Passed() {
		cmd.Printf("Reason: %s\n", decision.Reason)
		return nil
	}

	cmd.Println()
	for i, sc := range decision.Chunks {
		cmd.Printf("  [%d] %.3f  %s\n", i+1, sc.Score, firstLine(sc.Chunk.Text))
		if sc.Chunk.SourceDocID != "" {
			cmd.Printf("      Source: %s\n", sc.Chunk.SourceDocID)
		}
	}
	return nil
}

// firstLine truncates text to its first line, capped at 120 bytes. The
// cut lands on a rune boundary because range indexes are rune starts.
func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' || i >= 120 {
			return text[:i] + "..."
		}
	}
	return text
}
