//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}


func TestStudentRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewStudentRepository(pool)

	t.Run("SaveAndGet", func(t *testing.T) {
		s := &database.Student{
			RollID:    "CS-001",
			Name:      "Jiří Novák",
			Batch:     "2024",
			Section:   "A",
			Embedding: []float32{0.6, 0.8, 0},
		}
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Failed to save student: %v", err)
		}
		if s.ID == 0 {
			t.Error("Expected ID to be assigned")
		}

		got, err := repo.GetByRollID(ctx, "CS-001")
		if err != nil {
			t.Fatalf("Failed to get student: %v", err)
		}
		if got == nil {
			t.Fatal("Expected student, got nil")
		}
		if got.Name != "Jiří Novák" {
			t.Errorf("Expected name 'Jiří Novák', got '%s'", got.Name)
		}
		if len(got.Embedding) != 3 || got.Embedding[1] != 0.8 {
			t.Errorf("Unexpected embedding %v", got.Embedding)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetByRollID(ctx, "nope")
		if err != nil {
			t.Fatalf("Failed to get student: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil, got %+v", got)
		}
	})

	t.Run("DuplicateRoll", func(t *testing.T) {
		err := repo.Save(ctx, &database.Student{
			RollID: "CS-001", Name: "Other", Batch: "2024", Section: "B",
			Embedding: []float32{0, 0, 1},
		})
		if !errors.Is(err, database.ErrRollExists) {
			t.Errorf("Expected ErrRollExists, got %v", err)
		}
	})

	t.Run("ListAndSection", func(t *testing.T) {
		for i, sec := range []string{"A", "B", "B"} {
			err := repo.Save(ctx, &database.Student{
				RollID:    fmt.Sprintf("CS-10%d", i),
				Name:      fmt.Sprintf("Student %d", i),
				Batch:     "2024",
				Section:   sec,
				Embedding: []float32{1, float32(i), 0},
			})
			if err != nil {
				t.Fatalf("Failed to save student: %v", err)
			}
		}

		section, err := repo.Section(ctx, "2024", "B")
		if err != nil {
			t.Fatalf("Failed to load section: %v", err)
		}
		if len(section) != 2 || section[0].RollID != "CS-101" || section[1].RollID != "CS-102" {
			t.Errorf("Unexpected section %v", section)
		}

		byName, err := repo.List(ctx, database.StudentFilter{Name: "jiri"})
		if err != nil {
			t.Fatalf("Failed to list students: %v", err)
		}
		if len(byName) != 1 || byName[0].RollID != "CS-001" {
			t.Errorf("Expected diacritic-insensitive match, got %v", byName)
		}

		roster, err := repo.Roster(ctx)
		if err != nil {
			t.Fatalf("Failed to load roster: %v", err)
		}
		if len(roster) != 4 || roster[0].RollID != "CS-001" {
			t.Errorf("Unexpected roster order %v", roster)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 4 {
			t.Errorf("Expected 4, got %d", count)
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewAttendanceRepository(pool)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := &database.AttendanceRecord{
		ID:        uuid.NewString(),
		FacultyID: "F1",
		Subject:   "Maths",
		Batch:     "2024",
		Section:   "A",
		Timestamp: base,
		Present:   []string{"R1", "R2"},
		Matches: []facematch.AttendanceMatch{
			{RollID: "R1", Name: "Asha", Score: 0.97},
			{RollID: "R2", Name: "Bilal", Score: 0.91},
		},
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	empty := &database.AttendanceRecord{
		ID:        uuid.NewString(),
		FacultyID: "F1",
		Subject:   "Maths",
		Batch:     "2024",
		Section:   "A",
		Timestamp: base.Add(24 * time.Hour),
	}
	if err := repo.Save(ctx, empty); err != nil {
		t.Fatalf("Failed to save empty record: %v", err)
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got == nil || len(got.Present) != 2 || got.Matches[1].Name != "Bilal" {
		t.Errorf("Unexpected record %+v", got)
	}

	records, err := repo.List(ctx, database.AttendanceFilter{Subject: "Maths"})
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 2 || records[0].ID != empty.ID {
		t.Errorf("Expected newest first, got %v", records)
	}

	none, err := repo.List(ctx, database.AttendanceFilter{Section: "Z"})
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no records, got %d", len(none))
	}
}

func TestFacultyRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewFacultyRepository(pool)

	f := &database.Faculty{
		ID:           "F1",
		Username:     "ada",
		Name:         "Ada Lovelace",
		PasswordHash: "hash-1",
		Subjects:     []string{"Maths"},
	}
	if err := repo.Create(ctx, f); err != nil {
		t.Fatalf("Failed to create faculty: %v", err)
	}

	dup := &database.Faculty{ID: "F2", Username: "ada", Name: "Dup", PasswordHash: "x"}
	if err := repo.Create(ctx, dup); !errors.Is(err, database.ErrUsernameExists) {
		t.Errorf("Expected ErrUsernameExists, got %v", err)
	}

	f.Name = "Ada King"
	f.Subjects = []string{"Maths", "Physics"}
	f.PasswordHash = ""
	if err := repo.Update(ctx, f); err != nil {
		t.Fatalf("Failed to update faculty: %v", err)
	}

	got, err := repo.GetByUsername(ctx, "ada")
	if err != nil {
		t.Fatalf("Failed to get faculty: %v", err)
	}
	if got == nil || got.Name != "Ada King" || len(got.Subjects) != 2 || got.PasswordHash != "hash-1" {
		t.Errorf("Unexpected faculty %+v", got)
	}

	if err := repo.Update(ctx, &database.Faculty{ID: "missing"}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update, got %v", err)
	}
	if err := repo.Delete(ctx, "F1"); err != nil {
		t.Fatalf("Failed to delete faculty: %v", err)
	}
	if err := repo.Delete(ctx, "F1"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSessionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewSessionRepository(pool)
	now := time.Now()

	live := &middleware.Session{ID: "live", FacultyID: "F1", Admin: true, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &middleware.Session{ID: "old", FacultyID: "F2", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*middleware.Session{live, expired} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
	}

	got, err := repo.Get(ctx, "live")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got == nil || got.FacultyID != "F1" || !got.Admin {
		t.Errorf("Unexpected session %+v", got)
	}

	got, err = repo.Get(ctx, "old")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got != nil {
		t.Error("Expected expired session to be hidden")
	}

	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("Failed to delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 expired session deleted, got %d", n)
	}
}

func TestMigrationsApplied(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	versions, err := pool.MigrationsApplied(context.Background())
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_init.sql" {
		t.Errorf("Unexpected migrations %v", versions)
	}

	// Running again is a no-op
	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}
}
