package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the HNSW roster index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the HNSW roster index from the database",
	Long: `Rebuild the HNSW roster index used when MATCH_INDEX=hnsw and save it so
the server can load it at startup instead of rebuilding.

Examples:
  HNSW_INDEX_PATH=/data/roster.hnsw face-attendance index rebuild
  face-attendance index rebuild --output /data/roster.hnsw`,
	RunE: runIndexRebuild,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexRebuildCmd)

	indexRebuildCmd.Flags().String("output", "", "Index file path (defaults to HNSW_INDEX_PATH)")
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()
	startTime := time.Now()

	path, err := requireStringFlagOr(cmd, "output", cfg.Matching.HNSWIndexPath, "HNSW_INDEX_PATH")
	if err != nil {
		return err
	}

	if err := initPostgres(cfg); err != nil {
		return err
	}
	roster, err := database.GetRosterReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get roster reader: %w", err)
	}
	students, err := roster.Roster(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	bar := progressbar.NewOptions(len(students),
		progressbar.OptionSetDescription("Indexing roster"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("students"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	index := database.NewIdentityIndex()
	for _, s := range students {
		if err := index.Add(s); err != nil {
			return fmt.Errorf("indexing %s: %w", s.RollID, err)
		}
		bar.Add(1)
	}
	fmt.Println()

	if err := index.Save(path); err != nil {
		return err
	}

	fmt.Printf("Indexed %d students in %s, saved to %s\n", index.Len(), formatDuration(time.Since(startTime)), path)
	return nil
}
