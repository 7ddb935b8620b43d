package cli

import (
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the persisted index snapshot",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write the current index state to the snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := initRuntime(ctx); err != nil {
			return err
		}
		defer closeRuntime()

		if err := retrievalService.Checkpoint(ctx); err != nil {
			return err
		}
		count, err := retrievalService.ChunkCount(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Saved snapshot with %d chunks\n", count)
		return nil
	},
}

var snapshotReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Discard in-memory state and reload from the snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := initRuntime(ctx); err != nil {
			return err
		}
		defer closeRuntime()

		if err := retrievalService.ReindexFromSnapshot(ctx); err != nil {
			return err
		}
		count, err := retrievalService.ChunkCount(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Reloaded %d chunks from snapshot\n", count)
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotReloadCmd)
	rootCmd.AddCommand(snapshotCmd)
}
