package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
)

// initPostgres connects to PostgreSQL, runs migrations and registers the repositories.
func initPostgres(cfg *config.Config) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return nil
}

// newClassroomService wires the registered repositories into a classroom service.
// index may be nil for linear matching.
func newClassroomService(ctx context.Context, cfg *config.Config, index *database.IdentityIndex) (*classroom.Service, error) {
	students, err := database.GetStudentWriter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get student writer: %w", err)
	}
	attendance, err := database.GetAttendanceWriter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance writer: %w", err)
	}

	return classroom.New(students, attendance, classroom.Options{
		Dim:        cfg.Embedding.Dim,
		Enrollment: cfg.Matching.Enrollment,
		Attendance: cfg.Matching.Attendance,
		Index:      index,
	}), nil
}

// initIdentityIndex returns the HNSW roster index when MATCH_INDEX=hnsw, nil otherwise.
// A saved index is reused when its metadata matches the current roster; any
// other case rebuilds it from the database.
func initIdentityIndex(ctx context.Context, cfg *config.Config) (*database.IdentityIndex, error) {
	if !cfg.Matching.UsesHNSW() {
		return nil, nil
	}

	roster, err := database.GetRosterReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster reader: %w", err)
	}
	count, err := roster.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	index := database.NewIdentityIndex()
	path := cfg.Matching.HNSWIndexPath
	if path != "" {
		meta, err := database.LoadIdentityIndexMetadata(path)
		switch {
		case err != nil:
			fmt.Printf("No saved roster index at %s, building...\n", path)
		case meta.StudentCount != count || meta.Dim != cfg.Embedding.Dim:
			fmt.Printf("Saved roster index is stale (%d students, database has %d), rebuilding...\n", meta.StudentCount, count)
		default:
			loadErr := index.Load(path)
			if loadErr == nil {
				fmt.Printf("Roster HNSW index loaded with %d students from %s\n", index.Len(), path)
				return index, nil
			}
			fmt.Printf("Warning: failed to load roster index: %v\n", loadErr)
		}
	}

	students, err := roster.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if err := index.Build(students); err != nil {
		return nil, fmt.Errorf("failed to build roster index: %w", err)
	}
	fmt.Printf("Roster HNSW index built with %d students\n", index.Len())

	if path != "" {
		if err := index.Save(path); err != nil {
			fmt.Printf("Warning: failed to save roster index: %v\n", err)
		}
	}
	return index, nil
}
