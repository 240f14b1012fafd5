package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Attendance web server.
The server exposes the JSON API used by the browser client for enrollment,
attendance marking and faculty management, plus /metrics for Prometheus.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
// Environment values win over flag defaults.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := stringFlagOr(cmd, "session-secret", cfg.Web.SessionSecret)

	if os.Getenv("WEB_PORT") != "" {
		port = cfg.Web.Port
	}
	if os.Getenv("WEB_HOST") != "" {
		host = cfg.Web.Host
	}
	return port, host, sessionSecret
}

// saveIdentityIndex persists the roster index on shutdown so the next start can skip the rebuild.
func saveIdentityIndex(index *database.IdentityIndex, path string) {
	if index == nil || path == "" {
		return
	}
	if err := index.Save(path); err != nil {
		fmt.Printf("Warning: failed to save roster index: %v\n", err)
		return
	}
	fmt.Println("Roster HNSW index saved to disk")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := initPostgres(cfg); err != nil {
		return err
	}
	fmt.Printf("Using PostgreSQL backend\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	index, err := initIdentityIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if index == nil {
		fmt.Printf("Attendance matching uses linear scan\n")
	}

	service, err := newClassroomService(ctx, cfg, index)
	if err != nil {
		return err
	}
	faculty, err := database.GetFacultyWriter(ctx)
	if err != nil {
		return fmt.Errorf("failed to get faculty writer: %w", err)
	}

	sessionRepo := postgres.NewSessionRepository(postgres.GetGlobalPool())
	fmt.Printf("Session persistence enabled (PostgreSQL)\n")

	port, host, sessionSecret := resolveServeHostPort(cmd, cfg)
	if sessionSecret == "" {
		fmt.Println("Warning: WEB_SESSION_SECRET is not set, using the development secret")
	}

	server := web.NewServer(cfg, port, host, sessionSecret, service, faculty, sessionRepo)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		saveIdentityIndex(index, cfg.Matching.HNSWIndexPath)

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
