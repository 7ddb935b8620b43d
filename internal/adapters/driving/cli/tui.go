package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriever-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

var tuiTopK int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive query console",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve per query")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := initRuntime(ctx); err != nil {
		return err
	}
	defer closeRuntime()

	model := tui.New(retrievalService, gate, settings.DefaultConfidenceThreshold, tuiTopK)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
