// Package classroom ties the matching core to storage: it loads roster
// snapshots, asks the core for a decision, persists the outcome and records
// metrics. HTTP handlers and CLI commands both go through it.
package classroom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// ErrInvalidInput marks requests rejected before any matching happens.
var ErrInvalidInput = errors.New("invalid input")

// Enrollment messages returned to clients
const (
	MessageEnrolled   = "Student enrolled successfully!"
	MessageRollExists = "Student roll number already exists!"
)

// Options configures a Service.
type Options struct {
	Dim        int // required descriptor length, 0 accepts any
	Enrollment facematch.EnrollmentPolicy
	Attendance facematch.AttendancePolicy

	// Index, when set, backs attendance matching with IndexedFinder and is
	// kept up to date on enrollment.
	Index *database.IdentityIndex
	// SearchK is the number of index neighbours fetched per descriptor.
	SearchK int
}

// Service implements enrollment and attendance on top of the repositories.
type Service struct {
	students   database.StudentWriter
	attendance database.AttendanceWriter

	guard  *facematch.Guard
	finder facematch.Finder
	policy facematch.AttendancePolicy
	index  *database.IdentityIndex
	dim    int

	// enrollMu serializes check-then-insert within this process; the unique
	// roll constraint covers other processes.
	enrollMu sync.Mutex

	now   func() time.Time
	newID func() string
}

// New creates a Service.
func New(students database.StudentWriter, attendance database.AttendanceWriter, opts Options) *Service {
	var finder facematch.Finder = facematch.LinearFinder{}
	if opts.Index != nil {
		k := opts.SearchK
		if k <= 0 {
			k = constants.HNSWSearchK
		}
		finder = database.NewIndexedFinder(opts.Index, k)
	}

	return &Service{
		students:   students,
		attendance: attendance,
		guard:      facematch.NewGuard(opts.Enrollment),
		finder:     finder,
		policy:     opts.Attendance,
		index:      opts.Index,
		dim:        opts.Dim,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// EnrollRequest is a student to enroll. Embedding is the raw descriptor.
type EnrollRequest struct {
	RollID    string
	Name      string
	Batch     string
	Section   string
	Embedding facematch.Embedding
}

// EnrollResult describes the outcome of an enrollment attempt.
// Student is set only when the student was stored.
type EnrollResult struct {
	Verdict facematch.DuplicateVerdict
	Student *database.Student
	Message string
}

// Enrolled reports whether the student was stored.
func (r *EnrollResult) Enrolled() bool {
	return r.Student != nil
}

func (req EnrollRequest) validate(dim int) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"roll", req.RollID},
		{"name", req.Name},
		{"batch", req.Batch},
		{"section", req.Section},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(req.Embedding) == 0 {
		missing = append(missing, "embedding")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields (%s)", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if err := facematch.Validate(req.Embedding, dim); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	return nil
}

// DuplicateMessage renders the client-facing message for a duplicate verdict.
func DuplicateMessage(v facematch.DuplicateVerdict) string {
	switch v.Reason {
	case facematch.ReasonRollAlreadyExists:
		return MessageRollExists
	case facematch.ReasonBiometricMatch:
		if v.Match == nil {
			return "Duplicate face detected!"
		}
		return fmt.Sprintf("Duplicate face detected! Already enrolled as %s (Roll: %s, Batch: %s, Section: %s)",
			v.Match.Name, v.Match.RollID, v.Match.Batch, v.Match.Section)
	default:
		return ""
	}
}

// Enroll checks the candidate against the full roster and stores it when it is
// not a duplicate. Duplicates are reported in the result, not as errors.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	start := time.Now()
	defer func() {
		metrics.DecisionDuration.WithLabelValues("enroll").Observe(time.Since(start).Seconds())
	}()

	if err := req.validate(s.dim); err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.EnrollResultInvalid).Inc()
		return nil, err
	}
	s.enrollMu.Lock()
	defer s.enrollMu.Unlock()

	roster, err := s.students.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	verdict, err := s.guard.CheckDuplicate(req.RollID, req.Embedding, database.Identities(roster))
	if err != nil {
		if errors.Is(err, facematch.ErrInvalidVector) {
			metrics.EnrollmentsTotal.WithLabelValues(metrics.EnrollResultInvalid).Inc()
		}
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if verdict.Duplicate {
		return s.rejectDuplicate(verdict), nil
	}

	normalized, err := facematch.Normalize(req.Embedding)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues(metrics.EnrollResultInvalid).Inc()
		return nil, fmt.Errorf("embedding: %w", err)
	}

	student := &database.Student{
		RollID:    req.RollID,
		Name:      req.Name,
		Batch:     req.Batch,
		Section:   req.Section,
		Embedding: facematch.ToFloat32(normalized),
	}
	if err := s.students.Save(ctx, student); err != nil {
		if errors.Is(err, database.ErrRollExists) {
			return s.rejectDuplicate(facematch.DuplicateVerdict{
				Duplicate: true,
				Reason:    facematch.ReasonRollAlreadyExists,
			}), nil
		}
		return nil, fmt.Errorf("save student: %w", err)
	}

	if s.index != nil {
		if err := s.index.Add(*student); err != nil {
			// The student is stored; the index catches up on the next rebuild.
			fmt.Printf("Warning: failed to index student %s: %v\n", student.RollID, err)
		}
	}

	metrics.EnrollmentsTotal.WithLabelValues(metrics.EnrollResultEnrolled).Inc()
	return &EnrollResult{Verdict: verdict, Student: student, Message: MessageEnrolled}, nil
}

func (s *Service) rejectDuplicate(v facematch.DuplicateVerdict) *EnrollResult {
	result := metrics.EnrollResultRollExists
	if v.Reason == facematch.ReasonBiometricMatch {
		result = metrics.EnrollResultBiometricMatch
	}
	metrics.EnrollmentsTotal.WithLabelValues(result).Inc()
	return &EnrollResult{Verdict: v, Message: DuplicateMessage(v)}
}

// ListStudents returns the roster filtered by batch, section and name.
func (s *Service) ListStudents(ctx context.Context, filter database.StudentFilter) ([]database.Student, error) {
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
