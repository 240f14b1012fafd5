package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Mark and list attendance",
}

var attendanceMarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Mark attendance from detected face descriptors",
	Long: `Mark attendance for one class session. The file holds:

  {"facultyId": "F-1", "subject": "Physics", "batch": "2024", "section": "A",
   "timestamp": "2026-03-02T09:15:00Z", "detectedDescriptors": [[...], [...]]}

timestamp is optional and defaults to now.

Examples:
  face-attendance attendance mark --file session.json
  face-attendance attendance mark --file session.json --json`,
	RunE: runAttendanceMark,
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance, one line per present student",
	RunE:  runAttendanceList,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceMarkCmd)
	attendanceCmd.AddCommand(attendanceListCmd)

	attendanceMarkCmd.Flags().String("file", "", "JSON file with the session (- for stdin)")
	attendanceMarkCmd.Flags().Bool("json", false, "Output as JSON")
	_ = attendanceMarkCmd.MarkFlagRequired("file")

	attendanceListCmd.Flags().String("subject", "", "Filter by subject")
	attendanceListCmd.Flags().String("batch", "", "Filter by batch")
	attendanceListCmd.Flags().String("section", "", "Filter by section")
	attendanceListCmd.Flags().Bool("json", false, "Output as JSON")
}

type sessionFile struct {
	FacultyID   string      `json:"facultyId"`
	Subject     string      `json:"subject"`
	Batch       string      `json:"batch"`
	Section     string      `json:"section"`
	Timestamp   string      `json:"timestamp"`
	Descriptors [][]float64 `json:"detectedDescriptors"`
}

func (s sessionFile) toRequest() (classroom.MarkRequest, error) {
	req := classroom.MarkRequest{
		FacultyID: s.FacultyID,
		Subject:   s.Subject,
		Batch:     s.Batch,
		Section:   s.Section,
	}
	if s.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, s.Timestamp)
		if err != nil {
			return req, fmt.Errorf("timestamp must be RFC3339: %w", err)
		}
		req.Timestamp = ts
	}
	if s.Descriptors != nil {
		req.Descriptors = make([]facematch.Embedding, len(s.Descriptors))
		for i, d := range s.Descriptors {
			req.Descriptors[i] = facematch.Embedding(d)
		}
	}
	return req, nil
}

func runAttendanceMark(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "file")
	jsonOutput := mustGetBool(cmd, "json")

	var in sessionFile
	if err := readJSONFile(path, &in); err != nil {
		return err
	}
	req, err := in.toRequest()
	if err != nil {
		return err
	}

	ctx := context.Background()
	cfg := config.Load()
	if err := initPostgres(cfg); err != nil {
		return err
	}
	index, err := initIdentityIndex(ctx, cfg)
	if err != nil {
		return err
	}
	service, err := newClassroomService(ctx, cfg, index)
	if err != nil {
		return err
	}

	record, err := service.MarkAttendance(ctx, req)
	if err != nil {
		return fmt.Errorf("marking attendance failed: %w", err)
	}

	if jsonOutput {
		return outputJSON(record)
	}

	fmt.Printf("Attendance %s recorded for %s %s-%s at %s\n",
		record.ID, record.Subject, record.Batch, record.Section, record.Timestamp.Format(time.RFC3339))
	fmt.Printf("  Faces detected: %d\n", len(req.Descriptors))
	fmt.Printf("  Present:        %d\n", len(record.Present))
	for _, m := range record.Matches {
		fmt.Printf("    %-12s %-30s %.4f\n", m.RollID, m.Name, m.Score)
	}
	return nil
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	filter := database.AttendanceFilter{
		Subject: mustGetString(cmd, "subject"),
		Batch:   mustGetString(cmd, "batch"),
		Section: mustGetString(cmd, "section"),
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

	summary, err := service.ListAttendance(ctx, filter)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(summary)
	}

	fmt.Printf("%-12s %-10s %s\n", "ROLL", "DATE", "STATUS")
	fmt.Println(strings.Repeat("-", 32))
	for _, e := range summary.Records {
		fmt.Printf("%-12s %-10s %s\n", e.RollID, e.Date, e.Status)
	}
	fmt.Printf("\n%d entries from %d sessions\n", len(summary.Records), summary.Total)
	return nil
}
