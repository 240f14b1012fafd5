package database

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Student is an enrolled student with the normalized face embedding captured at enrollment
type Student struct {
	ID        int64
	RollID    string
	Name      string
	Batch     string
	Section   string
	Embedding []float32
	CreatedAt time.Time
}

// Identity converts the stored student into the matching core's representation.
func (s Student) Identity() facematch.Identity {
	return facematch.Identity{
		RollID:    s.RollID,
		Name:      s.Name,
		Batch:     s.Batch,
		Section:   s.Section,
		Embedding: facematch.FromFloat32(s.Embedding),
	}
}

// Identities converts a roster snapshot, preserving order.
func Identities(students []Student) []facematch.Identity {
	out := make([]facematch.Identity, len(students))
	for i := range students {
		out[i] = students[i].Identity()
	}
	return out
}

// StudentFilter narrows roster listings. Empty fields match everything.
// Name matches case- and diacritic-insensitively as a substring.
type StudentFilter struct {
	Batch   string
	Section string
	Name    string
}

// AttendanceRecord is one persisted attendance session
type AttendanceRecord struct {
	ID        string
	FacultyID string
	Subject   string
	Batch     string
	Section   string
	Timestamp time.Time
	Present   []string
	Matches   []facematch.AttendanceMatch
	CreatedAt time.Time
}

// AttendanceFilter narrows attendance listings. Empty fields match everything.
type AttendanceFilter struct {
	Subject string
	Batch   string
	Section string
}

// Faculty is a teacher account. PasswordHash is a bcrypt hash and never leaves the server.
type Faculty struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	Subjects     []string
	IsAdmin      bool
	CreatedAt    time.Time
}
