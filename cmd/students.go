package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/spf13/cobra"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Inspect the enrolled roster",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled students",
	Long: `List enrolled students, optionally filtered.

Examples:
  face-attendance students list --batch 2024 --section A
  face-attendance students list --name jose --json`,
	RunE: runStudentsList,
}

func init() {
	rootCmd.AddCommand(studentsCmd)
	studentsCmd.AddCommand(studentsListCmd)

	studentsListCmd.Flags().String("batch", "", "Filter by batch")
	studentsListCmd.Flags().String("section", "", "Filter by section")
	studentsListCmd.Flags().String("name", "", "Filter by name (case and accent insensitive)")
	studentsListCmd.Flags().Bool("json", false, "Output as JSON")
}

// StudentOutput is one roster line. Embeddings are not printed.
type StudentOutput struct {
	ID      int64  `json:"id"`
	Roll    string `json:"roll"`
	Name    string `json:"name"`
	Batch   string `json:"batch"`
	Section string `json:"section"`
}

func runStudentsList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	filter := database.StudentFilter{
		Batch:   mustGetString(cmd, "batch"),
		Section: mustGetString(cmd, "section"),
		Name:    mustGetString(cmd, "name"),
	}

	ctx := context.Background()
	cfg := config.Load()
	if err := initPostgres(cfg); err != nil {
		return err
	}
	service, err := newClassroomService(ctx, cfg, nil)
	if err != nil {
		return err
	}

	students, err := service.ListStudents(ctx, filter)
	if err != nil {
		return err
	}

	out := make([]StudentOutput, 0, len(students))
	for _, s := range students {
		out = append(out, StudentOutput{ID: s.ID, Roll: s.RollID, Name: s.Name, Batch: s.Batch, Section: s.Section})
	}

	if jsonOutput {
		return outputJSON(out)
	}

	fmt.Printf("%-12s %-30s %-8s %s\n", "ROLL", "NAME", "BATCH", "SECTION")
	fmt.Println(strings.Repeat("-", 60))
	for _, s := range out {
		fmt.Printf("%-12s %-30s %-8s %s\n", s.Roll, s.Name, s.Batch, s.Section)
	}
	fmt.Printf("\n%d students\n", len(out))
	return nil
}
