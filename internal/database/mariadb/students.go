package mariadb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// LegacyStudent is one row of the legacy registry. Embedding is nil when the
// stored descriptor could not be decoded; DecodeErr says why.
type LegacyStudent struct {
	RollID    string
	Name      string
	Batch     string
	Section   string
	Embedding facematch.Embedding
	DecodeErr error
}

var errEmptyDescriptor = errors.New("empty face descriptor")

// parseDescriptor decodes a descriptor stored as a JSON list [e1, ...] or as
// a single-element list-of-lists [[e1, ...]].
func parseDescriptor(data []byte) (facematch.Embedding, error) {
	if len(data) == 0 {
		return nil, errEmptyDescriptor
	}

	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil {
		if len(flat) == 0 {
			return nil, errEmptyDescriptor
		}
		return flat, nil
	}

	var nested [][]float64
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("decode face descriptor: %w", err)
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, errEmptyDescriptor
	}
	return nested[0], nil
}

// CountStudents returns the number of rows in the legacy registry.
func (p *Pool) CountStudents(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&n); err != nil {
		return 0, fmt.Errorf("count legacy students: %w", err)
	}
	return n, nil
}

// GetStudents returns every legacy student in registration order.
func (p *Pool) GetStudents(ctx context.Context) ([]LegacyStudent, error) {
	query := `
		SELECT roll, name, batch, section, face_descriptor
		FROM students
		ORDER BY created_at, roll
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query legacy students: %w", err)
	}
	defer rows.Close()

	var students []LegacyStudent
	for rows.Next() {
		var s LegacyStudent
		var descriptor []byte
		if err := rows.Scan(&s.RollID, &s.Name, &s.Batch, &s.Section, &descriptor); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		s.Embedding, s.DecodeErr = parseDescriptor(descriptor)
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return students, nil
}
