package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/lib/pq"
)

// FacultyRepository provides PostgreSQL-backed faculty accounts
type FacultyRepository struct {
	pool *Pool
}

// NewFacultyRepository creates a new PostgreSQL faculty repository
func NewFacultyRepository(pool *Pool) *FacultyRepository {
	return &FacultyRepository{pool: pool}
}

const facultyColumns = "id, username, name, password_hash, subjects, is_admin, created_at"

func scanFaculty(row rowScanner) (database.Faculty, error) {
	var f database.Faculty
	err := row.Scan(&f.ID, &f.Username, &f.Name, &f.PasswordHash, pq.Array(&f.Subjects), &f.IsAdmin, &f.CreatedAt)
	return f, err //nolint:wrapcheck // wrapped by callers
}

func (r *FacultyRepository) getOne(ctx context.Context, where string, arg string) (*database.Faculty, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+facultyColumns+" FROM faculty WHERE "+where+" = $1", arg)
	f, err := scanFaculty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get faculty: %w", err)
	}
	return &f, nil
}

// GetByUsername returns the account for a username, nil if not found
func (r *FacultyRepository) GetByUsername(ctx context.Context, username string) (*database.Faculty, error) {
	return r.getOne(ctx, "username", username)
}

// GetByID returns the account for a faculty id, nil if not found
func (r *FacultyRepository) GetByID(ctx context.Context, id string) (*database.Faculty, error) {
	return r.getOne(ctx, "id", id)
}

// List returns all accounts ordered by username
func (r *FacultyRepository) List(ctx context.Context) ([]database.Faculty, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+facultyColumns+" FROM faculty ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	defer rows.Close()

	var result []database.Faculty
	for rows.Next() {
		f, err := scanFaculty(rows)
		if err != nil {
			return nil, fmt.Errorf("list faculty: scan: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return result, nil
}

// Create inserts an account
func (r *FacultyRepository) Create(ctx context.Context, faculty *database.Faculty) error {
	subjects := faculty.Subjects
	if subjects == nil {
		subjects = []string{}
	}

	query := `
		INSERT INTO faculty (id, username, name, password_hash, subjects, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		faculty.ID,
		faculty.Username,
		faculty.Name,
		faculty.PasswordHash,
		pq.Array(subjects),
		faculty.IsAdmin,
	).Scan(&faculty.CreatedAt)
	if isUniqueViolation(err) {
		return database.ErrUsernameExists
	}
	if err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update replaces name, subjects and admin flag, and the password hash when set
func (r *FacultyRepository) Update(ctx context.Context, faculty *database.Faculty) error {
	subjects := faculty.Subjects
	if subjects == nil {
		subjects = []string{}
	}

	query := `
		UPDATE faculty SET
			name = $2,
			subjects = $3,
			is_admin = $4,
			password_hash = COALESCE(NULLIF($5, ''), password_hash)
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, faculty.ID, faculty.Name, pq.Array(subjects), faculty.IsAdmin, faculty.PasswordHash)
	if err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return expectAffected(result, "update faculty")
}

// Delete removes an account
func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM faculty WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return expectAffected(result, "delete faculty")
}

func expectAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: getting rows affected: %w", op, err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
