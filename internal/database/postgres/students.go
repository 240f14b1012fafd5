package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/pgvector/pgvector-go"
)

// StudentRepository provides PostgreSQL-backed roster storage
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "id, roll_id, name, batch, section, embedding, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (database.Student, error) {
	var s database.Student
	var vec pgvector.Vector
	if err := row.Scan(&s.ID, &s.RollID, &s.Name, &s.Batch, &s.Section, &vec, &s.CreatedAt); err != nil {
		return s, err //nolint:wrapcheck // wrapped by callers
	}
	s.Embedding = vec.Slice()
	return s, nil
}

func (r *StudentRepository) queryStudents(ctx context.Context, op, query string, args ...any) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return students, nil
}

// Save inserts a new student
func (r *StudentRepository) Save(ctx context.Context, student *database.Student) error {
	query := `
		INSERT INTO students (roll_id, name, batch, section, embedding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		student.RollID,
		student.Name,
		student.Batch,
		student.Section,
		pgvector.NewVector(student.Embedding),
	).Scan(&student.ID, &student.CreatedAt)
	if isUniqueViolation(err) {
		return database.ErrRollExists
	}
	if err != nil {
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

// GetByRollID retrieves a student by roll id, returns nil if not found
func (r *StudentRepository) GetByRollID(ctx context.Context, rollID string) (*database.Student, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+studentColumns+" FROM students WHERE roll_id = $1", rollID)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &s, nil
}

// List returns students matching the filter. Batch and section are matched in SQL,
// the name filter is applied after loading so it can ignore diacritics.
func (r *StudentRepository) List(ctx context.Context, filter database.StudentFilter) ([]database.Student, error) {
	var conds []string
	var args []any
	if filter.Batch != "" {
		args = append(args, filter.Batch)
		conds = append(conds, fmt.Sprintf("batch = $%d", len(args)))
	}
	if filter.Section != "" {
		args = append(args, filter.Section)
		conds = append(conds, fmt.Sprintf("section = $%d", len(args)))
	}

	query := "SELECT " + studentColumns + " FROM students"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	students, err := r.queryStudents(ctx, "list students", query, args...)
	if err != nil {
		return nil, err
	}
	if filter.Name == "" {
		return students, nil
	}

	filtered := students[:0]
	for _, s := range students {
		if facematch.NameContains(s.Name, filter.Name) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Roster returns every enrolled student in enrollment order
func (r *StudentRepository) Roster(ctx context.Context) ([]database.Student, error) {
	return r.queryStudents(ctx, "load roster", "SELECT "+studentColumns+" FROM students ORDER BY id")
}

// Section returns the students of one batch and section in enrollment order
func (r *StudentRepository) Section(ctx context.Context, batch, section string) ([]database.Student, error) {
	return r.queryStudents(ctx, "load section",
		"SELECT "+studentColumns+" FROM students WHERE batch = $1 AND section = $2 ORDER BY id",
		batch, section)
}

// Count returns the number of enrolled students
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
