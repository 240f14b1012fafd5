package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/mariadb"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster maintenance",
}

var rosterImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import students from the legacy MariaDB registry",
	Long: `Import students from the legacy MariaDB registry.

Every legacy row goes through the same duplicate checks as a normal
enrollment: existing roll numbers and faces already on the roster are
skipped. Rows whose stored descriptor cannot be decoded are counted as
invalid.

Examples:
  face-attendance roster import --dsn 'user:pass@tcp(localhost:3306)/school'
  LEGACY_MARIADB_DSN=... face-attendance roster import --json`,
	RunE: runRosterImport,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterImportCmd)

	rosterImportCmd.Flags().String("dsn", "", "MariaDB DSN (defaults to LEGACY_MARIADB_DSN)")
	rosterImportCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// ImportResult summarizes a roster import
type ImportResult struct {
	Success         bool   `json:"success"`
	Scanned         int    `json:"scanned"`
	Enrolled        int    `json:"enrolled"`
	RollExists      int    `json:"roll_exists"`
	BiometricMatch  int    `json:"biometric_match"`
	Invalid         int    `json:"invalid"`
	Errors          int    `json:"errors"`
	DurationMs      int64  `json:"duration_ms"`
	DurationHuman   string `json:"duration_human,omitempty"`
	FirstErrorCause string `json:"first_error,omitempty"`
}

// tally records the outcome of one enrollment attempt.
func (r *ImportResult) tally(result *classroom.EnrollResult, err error) {
	switch {
	case err != nil && isInputError(err):
		r.Invalid++
	case err != nil:
		r.Errors++
		if r.FirstErrorCause == "" {
			r.FirstErrorCause = err.Error()
		}
	case result.Enrolled():
		r.Enrolled++
	case result.Verdict.Reason == facematch.ReasonBiometricMatch:
		r.BiometricMatch++
	default:
		r.RollExists++
	}
}

func isInputError(err error) bool {
	return errors.Is(err, classroom.ErrInvalidInput) ||
		errors.Is(err, facematch.ErrDimensionMismatch) ||
		errors.Is(err, facematch.ErrInvalidVector)
}

func runRosterImport(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	ctx := context.Background()
	cfg := config.Load()
	startTime := time.Now()

	dsn, err := requireStringFlagOr(cmd, "dsn", cfg.Legacy.MariaDBDSN, "LEGACY_MARIADB_DSN")
	if err != nil {
		return err
	}

	legacy, err := mariadb.NewPool(dsn)
	if err != nil {
		return err
	}
	defer legacy.Close()

	if err := initPostgres(cfg); err != nil {
		return err
	}
	service, err := newClassroomService(ctx, cfg, nil)
	if err != nil {
		return err
	}

	if !jsonOutput {
		fmt.Println("Reading legacy registry...")
	}
	students, err := legacy.GetStudents(ctx)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		fmt.Printf("Found %d legacy students\n\n", len(students))
		bar = progressbar.NewOptions(len(students),
			progressbar.OptionSetDescription("Importing roster"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("students"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	// One at a time: each enrollment is checked against the students imported before it.
	result := ImportResult{Scanned: len(students)}
	for _, s := range students {
		if s.DecodeErr != nil {
			result.Invalid++
		} else {
			enrolled, err := service.Enroll(ctx, classroom.EnrollRequest{
				RollID:    s.RollID,
				Name:      s.Name,
				Batch:     s.Batch,
				Section:   s.Section,
				Embedding: s.Embedding,
			})
			result.tally(enrolled, err)
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		fmt.Println()
	}

	duration := time.Since(startTime)
	result.Success = result.Errors == 0
	result.DurationMs = duration.Milliseconds()

	if jsonOutput {
		return outputJSON(result)
	}

	result.DurationHuman = formatDuration(duration)
	fmt.Println("\nImport complete!")
	fmt.Printf("  Scanned:          %d\n", result.Scanned)
	fmt.Printf("  Enrolled:         %d\n", result.Enrolled)
	fmt.Printf("  Roll exists:      %d\n", result.RollExists)
	fmt.Printf("  Biometric match:  %d\n", result.BiometricMatch)
	if result.Invalid > 0 {
		fmt.Printf("  Invalid:          %d\n", result.Invalid)
	}
	if result.Errors > 0 {
		fmt.Printf("  Errors:           %d (first: %s)\n", result.Errors, result.FirstErrorCause)
	}
	fmt.Printf("  Duration:         %s\n", result.DurationHuman)
	return nil
}
