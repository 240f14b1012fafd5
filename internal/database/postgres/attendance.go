package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/lib/pq"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const attendanceColumns = "id, faculty_id, subject, batch, section, taken_at, present, matches, created_at"

func scanAttendance(row rowScanner) (database.AttendanceRecord, error) {
	var rec database.AttendanceRecord
	var matches []byte
	err := row.Scan(
		&rec.ID,
		&rec.FacultyID,
		&rec.Subject,
		&rec.Batch,
		&rec.Section,
		&rec.Timestamp,
		pq.Array(&rec.Present),
		&matches,
		&rec.CreatedAt,
	)
	if err != nil {
		return rec, err //nolint:wrapcheck // wrapped by callers
	}
	if err := json.Unmarshal(matches, &rec.Matches); err != nil {
		return rec, fmt.Errorf("decode matches: %w", err)
	}
	return rec, nil
}

// Save stores a new attendance record
func (r *AttendanceRepository) Save(ctx context.Context, record *database.AttendanceRecord) error {
	matches, err := json.Marshal(record.Matches)
	if err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	present := record.Present
	if present == nil {
		present = []string{}
	}

	query := `
		INSERT INTO attendance_records (id, faculty_id, subject, batch, section, taken_at, present, matches)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err = r.pool.QueryRow(ctx, query,
		record.ID,
		record.FacultyID,
		record.Subject,
		record.Batch,
		record.Section,
		record.Timestamp,
		pq.Array(present),
		matches,
	).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("save attendance: %w", err)
	}
	return nil
}

// Get retrieves a record by id, returns nil if not found
func (r *AttendanceRepository) Get(ctx context.Context, id string) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+attendanceColumns+" FROM attendance_records WHERE id = $1", id)
	rec, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &rec, nil
}

// List returns records matching the filter, newest first
func (r *AttendanceRepository) List(ctx context.Context, filter database.AttendanceFilter) ([]database.AttendanceRecord, error) {
	var conds []string
	var args []any
	for _, f := range []struct {
		column string
		value  string
	}{
		{"subject", filter.Subject},
		{"batch", filter.Batch},
		{"section", filter.Section},
	} {
		if f.value == "" {
			continue
		}
		args = append(args, f.value)
		conds = append(conds, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}

	query := "SELECT " + attendanceColumns + " FROM attendance_records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY taken_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("list attendance: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}
