package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

var (
	indexSource string
	indexMeta   []string
	indexStdin  bool
)

var indexCmd = &cobra.Command{
	Use:   "index [file...]",
	Short: "Index documents into the chunk store",
	Long: `Reads each file as one document, embeds it and adds it to the index.
With --stdin, a single document is read from standard input instead.
The snapshot is saved after the batch completes.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexSource, "source", "", "source document id recorded on each chunk")
	indexCmd.Flags().StringArrayVar(&indexMeta, "meta", nil, "metadata key=value attached to each chunk (repeatable)")
	indexCmd.Flags().BoolVar(&indexStdin, "stdin", false, "read a single document from stdin")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !indexStdin {
		return fmt.Errorf("no input: pass files or --stdin")
	}

	metadata, err := parseMeta(indexMeta)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := initRuntime(ctx); err != nil {
		return err
	}
	defer closeRuntime()

	var items []domain.DocumentInput

	if indexStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		items = append(items, domain.DocumentInput{
			Text:        string(data),
			SourceDocID: indexSource,
			Metadata:    metadata,
		})
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		source := indexSource
		if source == "" {
			source = path
		}
		items = append(items, domain.DocumentInput{
			Text:        string(data),
			SourceDocID: source,
			Metadata:    metadata,
		})
	}

	report, err := retrievalService.IndexDocuments(ctx, items)
	if err != nil {
		return err
	}

	for _, id := range report.CreatedIDs {
		cmd.Println(id)
	}
	for _, failure := range report.Failures {
		cmd.PrintErrf("item %d failed: %s\n", failure.Index, failure.Reason)
	}

	if len(report.CreatedIDs) > 0 {
		if err := retrievalService.Checkpoint(ctx); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d items failed", len(report.Failures), len(items))
	}
	return nil
}

// parseMeta parses repeated key=value flags into a metadata map.
func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
