package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var facultyCmd = &cobra.Command{
	Use:   "faculty",
	Short: "Manage faculty accounts",
}

var facultyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a faculty account",
	Long: `Create a faculty account. Use --admin for the first account so it can
manage the others through the web API.

Examples:
  face-attendance faculty add --id F-1 --username mrao --name "M. Rao" --password s3cret --admin
  face-attendance faculty add --id F-2 --username skhan --name "S. Khan" --password pw --subject Maths --subject Physics`,
	RunE: runFacultyAdd,
}

func init() {
	rootCmd.AddCommand(facultyCmd)
	facultyCmd.AddCommand(facultyAddCmd)

	facultyAddCmd.Flags().String("id", "", "Faculty id")
	facultyAddCmd.Flags().String("username", "", "Login name")
	facultyAddCmd.Flags().String("password", "", "Password (stored as a bcrypt hash)")
	facultyAddCmd.Flags().String("name", "", "Display name")
	facultyAddCmd.Flags().StringSlice("subject", nil, "Subject taught (repeatable)")
	facultyAddCmd.Flags().Bool("admin", false, "Grant faculty administration rights")
	for _, name := range []string{"id", "username", "password", "name"} {
		_ = facultyAddCmd.MarkFlagRequired(name)
	}
}

func runFacultyAdd(cmd *cobra.Command, args []string) error {
	password := mustGetString(cmd, "password")
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	f := &database.Faculty{
		ID:           mustGetString(cmd, "id"),
		Username:     mustGetString(cmd, "username"),
		Name:         mustGetString(cmd, "name"),
		PasswordHash: string(hash),
		Subjects:     mustGetStringSlice(cmd, "subject"),
		IsAdmin:      mustGetBool(cmd, "admin"),
	}

	ctx := context.Background()
	cfg := config.Load()
	if err := initPostgres(cfg); err != nil {
		return err
	}
	repo, err := database.GetFacultyWriter(ctx)
	if err != nil {
		return fmt.Errorf("failed to get faculty writer: %w", err)
	}

	if err := repo.Create(ctx, f); err != nil {
		if errors.Is(err, database.ErrUsernameExists) {
			return fmt.Errorf("faculty %q or id %q already exists", f.Username, f.ID)
		}
		return err
	}

	role := "faculty"
	if f.IsAdmin {
		role = "admin"
	}
	fmt.Printf("Created %s account %s (%s)\n", role, f.Username, f.ID)
	return nil
}
