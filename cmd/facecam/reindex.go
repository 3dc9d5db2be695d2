package main

import (
	"facecam/internal/repository/sqlite"
	"facecam/internal/service/storage"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild journal rows for snapshot files missing from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexing snapshots from %s into %s\n", cfg.SnapshotDirectory, cfg.DatabasePath)

		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := storage.Reindex(cfg.SnapshotDirectory, sqlite.NewSnapshotRepository(db), sqlite.NewPredictionRepository(db))
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "✅ Added %d snapshots, %d already indexed\n", result.Added, result.Existing)
		for _, name := range result.Skipped {
			fmt.Fprintf(out, "⚠️  Skipped %s (not a snapshot name)\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
