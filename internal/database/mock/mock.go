// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// MockStudentStore is a mock implementation of database.StudentWriter
type MockStudentStore struct {
	mu       sync.RWMutex
	students []database.Student
	nextID   int64

	// Error injection
	GetError    error
	ListError   error
	RosterError error
	SaveError   error
	CountError  error

	SaveCalls []database.Student
}

// NewMockStudentStore creates a new mock student store
func NewMockStudentStore() *MockStudentStore {
	return &MockStudentStore{nextID: 1}
}

// AddStudent adds a student to the mock store without going through Save
func (m *MockStudentStore) AddStudent(s database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID
	m.nextID++
	m.students = append(m.students, s)
}

// GetByRollID returns the student with the given roll id
func (m *MockStudentStore) GetByRollID(ctx context.Context, rollID string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.students {
		if m.students[i].RollID == rollID {
			s := m.students[i]
			return &s, nil
		}
	}
	return nil, nil
}

// List returns students matching the filter
func (m *MockStudentStore) List(ctx context.Context, filter database.StudentFilter) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Student
	for _, s := range m.students {
		if filter.Batch != "" && s.Batch != filter.Batch {
			continue
		}
		if filter.Section != "" && s.Section != filter.Section {
			continue
		}
		if filter.Name != "" && !facematch.NameContains(s.Name, filter.Name) {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

// Roster returns every student
func (m *MockStudentStore) Roster(ctx context.Context) ([]database.Student, error) {
	if m.RosterError != nil {
		return nil, m.RosterError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.students), nil
}

// Section returns the students of one batch and section
func (m *MockStudentStore) Section(ctx context.Context, batch, section string) ([]database.Student, error) {
	if m.RosterError != nil {
		return nil, m.RosterError
	}
	return m.List(ctx, database.StudentFilter{Batch: batch, Section: section})
}

// Count returns the number of students
func (m *MockStudentStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// Save inserts a student, enforcing roll id uniqueness like the real table
func (m *MockStudentStore) Save(ctx context.Context, student *database.Student) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.RollID == student.RollID {
			return database.ErrRollExists
		}
	}
	student.ID = m.nextID
	m.nextID++
	student.CreatedAt = time.Now()
	m.students = append(m.students, *student)
	m.SaveCalls = append(m.SaveCalls, *student)
	return nil
}

// MockAttendanceStore is a mock implementation of database.AttendanceWriter
type MockAttendanceStore struct {
	mu      sync.RWMutex
	records []database.AttendanceRecord

	// Error injection
	GetError  error
	ListError error
	SaveError error
}

// NewMockAttendanceStore creates a new mock attendance store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{}
}

// AddRecord adds a record to the mock store
func (m *MockAttendanceStore) AddRecord(r database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
}

// Get retrieves a record by id
func (m *MockAttendanceStore) Get(ctx context.Context, id string) (*database.AttendanceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.records {
		if m.records[i].ID == id {
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

// List returns records matching the filter, newest first
func (m *MockAttendanceStore) List(ctx context.Context, filter database.AttendanceFilter) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceRecord
	for _, r := range m.records {
		if filter.Subject != "" && r.Subject != filter.Subject {
			continue
		}
		if filter.Batch != "" && r.Batch != filter.Batch {
			continue
		}
		if filter.Section != "" && r.Section != filter.Section {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// Save stores a record
func (m *MockAttendanceStore) Save(ctx context.Context, record *database.AttendanceRecord) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record.CreatedAt = time.Now()
	m.records = append(m.records, *record)
	return nil
}

// Records returns a copy of all stored records
func (m *MockAttendanceStore) Records() []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records)
}

// MockFacultyStore is a mock implementation of database.FacultyWriter
type MockFacultyStore struct {
	mu      sync.RWMutex
	faculty map[string]*database.Faculty // keyed by faculty id

	// Error injection
	GetError    error
	ListError   error
	CreateError error
	UpdateError error
	DeleteError error
}

// NewMockFacultyStore creates a new mock faculty store
func NewMockFacultyStore() *MockFacultyStore {
	return &MockFacultyStore{faculty: make(map[string]*database.Faculty)}
}

// AddFaculty adds an account to the mock store
func (m *MockFacultyStore) AddFaculty(f database.Faculty) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faculty[f.ID] = &f
}

// GetByUsername returns the account for a username
func (m *MockFacultyStore) GetByUsername(ctx context.Context, username string) (*database.Faculty, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.faculty {
		if f.Username == username {
			c := *f
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID returns the account for a faculty id
func (m *MockFacultyStore) GetByID(ctx context.Context, id string) (*database.Faculty, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.faculty[id]
	if !ok {
		return nil, nil
	}
	c := *f
	return &c, nil
}

// List returns all accounts ordered by username
func (m *MockFacultyStore) List(ctx context.Context) ([]database.Faculty, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.Faculty, 0, len(m.faculty))
	for _, f := range m.faculty {
		result = append(result, *f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

// Create inserts an account
func (m *MockFacultyStore) Create(ctx context.Context, faculty *database.Faculty) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.faculty {
		if f.Username == faculty.Username {
			return database.ErrUsernameExists
		}
	}
	if _, ok := m.faculty[faculty.ID]; ok {
		return database.ErrUsernameExists
	}
	faculty.CreatedAt = time.Now()
	c := *faculty
	m.faculty[faculty.ID] = &c
	return nil
}

// Update replaces the mutable fields of an account
func (m *MockFacultyStore) Update(ctx context.Context, faculty *database.Faculty) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.faculty[faculty.ID]
	if !ok {
		return database.ErrNotFound
	}
	f.Name = faculty.Name
	f.Subjects = faculty.Subjects
	f.IsAdmin = faculty.IsAdmin
	if faculty.PasswordHash != "" {
		f.PasswordHash = faculty.PasswordHash
	}
	return nil
}

// Delete removes an account
func (m *MockFacultyStore) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.faculty[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.faculty, id)
	return nil
}
