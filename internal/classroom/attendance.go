package classroom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// MarkRequest is one attendance session captured by a faculty member.
// A zero Timestamp means now.
type MarkRequest struct {
	FacultyID   string
	Subject     string
	Batch       string
	Section     string
	Timestamp   time.Time
	Descriptors []facematch.Embedding
}

func (req MarkRequest) validate(dim int) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"facultyId", req.FacultyID},
		{"subject", req.Subject},
		{"batch", req.Batch},
		{"section", req.Section},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if req.Descriptors == nil {
		missing = append(missing, "detectedDescriptors")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields (%s)", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if len(req.Descriptors) > constants.MaxDescriptorsPerRequest {
		return fmt.Errorf("%w: at most %d descriptors per request", ErrInvalidInput, constants.MaxDescriptorsPerRequest)
	}
	for i, d := range req.Descriptors {
		if err := facematch.Validate(d, dim); err != nil {
			return fmt.Errorf("descriptor %d: %w", i, err)
		}
	}
	return nil
}

// MarkAttendance resolves the descriptors against the students of the batch
// and section and stores the resulting record.
func (s *Service) MarkAttendance(ctx context.Context, req MarkRequest) (*database.AttendanceRecord, error) {
	start := time.Now()
	defer func() {
		metrics.DecisionDuration.WithLabelValues("attendance").Observe(time.Since(start).Seconds())
	}()

	if err := req.validate(s.dim); err != nil {
		return nil, err
	}

	students, err := s.students.Section(ctx, req.Batch, req.Section)
	if err != nil {
		return nil, fmt.Errorf("load section roster: %w", err)
	}

	resolver := facematch.NewResolver(s.finder, s.policy)
	resolver.OnDescriptor = func(o facematch.DescriptorOutcome) {
		metrics.DescriptorsTotal.WithLabelValues(string(o)).Inc()
	}
	decision, err := resolver.Resolve(req.Descriptors, database.Identities(students))
	if err != nil {
		return nil, fmt.Errorf("resolve attendance: %w", err)
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	record := &database.AttendanceRecord{
		ID:        s.newID(),
		FacultyID: req.FacultyID,
		Subject:   req.Subject,
		Batch:     req.Batch,
		Section:   req.Section,
		Timestamp: ts,
		Present:   decision.Present,
		Matches:   decision.Matches,
	}
	if err := s.attendance.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save attendance: %w", err)
	}
	return record, nil
}

// PresenceEntry is one student marked present on one day.
type PresenceEntry struct {
	RollID string `json:"roll"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// AttendanceSummary is the flattened listing of attendance records.
// Total counts the underlying records, not the entries.
type AttendanceSummary struct {
	Records []PresenceEntry `json:"records"`
	Total   int             `json:"total"`
}

// Flatten expands records into one entry per present student. Dates are UTC.
func Flatten(records []database.AttendanceRecord) AttendanceSummary {
	summary := AttendanceSummary{
		Records: []PresenceEntry{},
		Total:   len(records),
	}
	for _, rec := range records {
		date := rec.Timestamp.UTC().Format(constants.DateLayout)
		for _, roll := range rec.Present {
			summary.Records = append(summary.Records, PresenceEntry{
				RollID: roll,
				Date:   date,
				Status: "present",
			})
		}
	}
	return summary
}

// ListAttendance returns the flattened attendance matching the filter.
func (s *Service) ListAttendance(ctx context.Context, filter database.AttendanceFilter) (AttendanceSummary, error) {
	records, err := s.attendance.List(ctx, filter)
	if err != nil {
		return AttendanceSummary{}, fmt.Errorf("list attendance: %w", err)
	}
	return Flatten(records), nil
}
