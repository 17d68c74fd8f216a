package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratemytip/tipscore/internal/api"
	"github.com/ratemytip/tipscore/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler and ops API server",
	Long: `Start the full service: scheduler daemon, streaming quote
source and the read-only ops API.

Endpoints:
  GET  /health                      - Health check
  GET  /api/v1/jobs                 - Job statistics
  POST /api/v1/jobs/{name}/run      - Trigger a job
  GET  /api/v1/leaderboard          - Top creators by score
  GET  /api/v1/creators/{id}/score  - One creator's score

Example:
  go run ./cmd/tipscore serve
  go run ./cmd/tipscore serve --port 8090`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "ops API port (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== tipscore Service ===")

	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	// Override port if flag is set
	if servePort != "" {
		app.cfg.Port = servePort
	}

	// Streaming quote source (optional)
	if err := app.stream.Start(cmd.Context()); err != nil {
		app.log.WithError(err).Warn("Streaming quote source unavailable")
	}

	// Scheduler
	app.sched.Start()

	// Ops API
	opsHandler := handlers.NewOpsHandler(app.db, app.sched, app.log)
	scoreHandler := handlers.NewScoreHandler(app.scoreRepo, app.cache, app.log)
	router := api.NewRouter(opsHandler, scoreHandler, app.log)
	server := api.New(app.cfg, app.log, router)

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Service running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range app.sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	app.log.Info("Shutting down service...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.stream.Stop()
	app.sched.Stop()

	app.log.Info("Service stopped")
	return nil
}
