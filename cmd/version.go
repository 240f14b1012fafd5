package cmd

import (
	"fmt"
	"runtime"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/spf13/cobra"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("face-attendance %s (%s)\n", Version, runtime.Version())
		fmt.Printf("  Commit:    %s\n", CommitSHA)
		fmt.Printf("  Built:     %s\n", BuildDate)
		fmt.Printf("  Embedding: %d dimensions, %s matching\n", cfg.Embedding.Dim, cfg.Matching.Index)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
