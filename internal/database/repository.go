package database

import (
	"context"
	"errors"
)

var (
	// ErrRollExists is returned when a student with the same roll id is already stored
	ErrRollExists = errors.New("roll id already exists")
	// ErrUsernameExists is returned when a faculty username is already taken
	ErrUsernameExists = errors.New("username already exists")
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("not found")
)

// RosterReader provides read-only access to enrolled students
type RosterReader interface {
	// GetByRollID returns the student with the given roll id, nil if not found
	GetByRollID(ctx context.Context, rollID string) (*Student, error)
	// List returns students matching the filter ordered by enrollment
	List(ctx context.Context, filter StudentFilter) ([]Student, error)
	// Roster returns every enrolled student with embeddings, ordered by enrollment.
	// This is the snapshot the duplicate guard scans.
	Roster(ctx context.Context) ([]Student, error)
	// Section returns the students of one batch and section with embeddings
	Section(ctx context.Context, batch, section string) ([]Student, error)
	// Count returns the number of enrolled students
	Count(ctx context.Context) (int, error)
}

// StudentWriter provides write access to the roster
type StudentWriter interface {
	RosterReader

	// Save inserts a new student. Returns ErrRollExists when the roll id is taken.
	Save(ctx context.Context, student *Student) error
}

// AttendanceReader provides read-only access to attendance records
type AttendanceReader interface {
	// Get retrieves a record by id, nil if not found
	Get(ctx context.Context, id string) (*AttendanceRecord, error)
	// List returns records matching the filter, newest first
	List(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error)
}

// AttendanceWriter provides write access to attendance records
type AttendanceWriter interface {
	AttendanceReader

	// Save stores a new record
	Save(ctx context.Context, record *AttendanceRecord) error
}

// FacultyReader provides read-only access to faculty accounts
type FacultyReader interface {
	// GetByUsername returns the account for a username, nil if not found
	GetByUsername(ctx context.Context, username string) (*Faculty, error)
	// GetByID returns the account for a faculty id, nil if not found
	GetByID(ctx context.Context, id string) (*Faculty, error)
	// List returns all accounts ordered by username
	List(ctx context.Context) ([]Faculty, error)
}

// FacultyWriter provides write access to faculty accounts
type FacultyWriter interface {
	FacultyReader

	// Create inserts an account. Returns ErrUsernameExists when the username is taken.
	Create(ctx context.Context, faculty *Faculty) error
	// Update replaces name, subjects, admin flag and, when non-empty, the password hash.
	// Returns ErrNotFound when the id does not exist.
	Update(ctx context.Context, faculty *Faculty) error
	// Delete removes an account. Returns ErrNotFound when the id does not exist.
	Delete(ctx context.Context, id string) error
}
