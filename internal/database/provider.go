package database

import (
	"context"
	"errors"
	"fmt"
)

var errNotInitialized = errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")

var (
	postgresStudentWriter    func() StudentWriter
	postgresAttendanceWriter func() AttendanceWriter
	postgresFacultyWriter    func() FacultyWriter
	postgresInitialized      bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(
	students func() StudentWriter,
	attendance func() AttendanceWriter,
	faculty func() FacultyWriter,
) {
	postgresStudentWriter = students
	postgresAttendanceWriter = attendance
	postgresFacultyWriter = faculty
	postgresInitialized = true
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	return postgresInitialized
}

// GetStudentWriter returns a StudentWriter from the PostgreSQL backend
func GetStudentWriter(ctx context.Context) (StudentWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresStudentWriter == nil {
		return nil, fmt.Errorf("PostgreSQL student writer not registered")
	}
	return postgresStudentWriter(), nil
}

// GetRosterReader returns a RosterReader from the PostgreSQL backend
func GetRosterReader(ctx context.Context) (RosterReader, error) {
	return GetStudentWriter(ctx)
}

// GetAttendanceWriter returns an AttendanceWriter from the PostgreSQL backend
func GetAttendanceWriter(ctx context.Context) (AttendanceWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresAttendanceWriter == nil {
		return nil, fmt.Errorf("PostgreSQL attendance writer not registered")
	}
	return postgresAttendanceWriter(), nil
}

// GetFacultyWriter returns a FacultyWriter from the PostgreSQL backend
func GetFacultyWriter(ctx context.Context) (FacultyWriter, error) {
	if !postgresInitialized {
		return nil, errNotInitialized
	}
	if postgresFacultyWriter == nil {
		return nil, fmt.Errorf("PostgreSQL faculty writer not registered")
	}
	return postgresFacultyWriter(), nil
}
