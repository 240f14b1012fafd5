package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a student from a JSON descriptor file",
	Long: `Enroll one student. The file holds the same document the web client posts:

  {"roll": "R1", "name": "Asha", "batch": "2024", "section": "A", "embedding": [0.01, ...]}

The enrollment is rejected when the roll number exists or the face matches an
already enrolled student.

Examples:
  face-attendance enroll --file asha.json
  cat asha.json | face-attendance enroll --file - --json`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("file", "", "JSON file with the student record (- for stdin)")
	enrollCmd.Flags().Bool("json", false, "Output as JSON")
	_ = enrollCmd.MarkFlagRequired("file")
}

type studentFile struct {
	Roll      string    `json:"roll"`
	Name      string    `json:"name"`
	Batch     string    `json:"batch"`
	Section   string    `json:"section"`
	Embedding []float64 `json:"embedding"`
}

// EnrollOutput is the result of the enroll command
type EnrollOutput struct {
	Duplicate bool   `json:"duplicate"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message"`
	ID        int64  `json:"id,omitempty"`
}

func runEnroll(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "file")
	jsonOutput := mustGetBool(cmd, "json")

	var in studentFile
	if err := readJSONFile(path, &in); err != nil {
		return err
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

	result, err := service.Enroll(ctx, classroom.EnrollRequest{
		RollID:    in.Roll,
		Name:      in.Name,
		Batch:     in.Batch,
		Section:   in.Section,
		Embedding: facematch.Embedding(in.Embedding),
	})
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	out := EnrollOutput{
		Duplicate: !result.Enrolled(),
		Reason:    string(result.Verdict.Reason),
		Message:   result.Message,
	}
	if result.Enrolled() {
		out.ID = result.Student.ID
	}

	if jsonOutput {
		return outputJSON(out)
	}

	fmt.Println(out.Message)
	if out.Duplicate {
		return errors.New("student not enrolled")
	}
	fmt.Printf("  Roll: %s  Batch: %s  Section: %s  ID: %d\n", in.Roll, in.Batch, in.Section, out.ID)
	return nil
}
