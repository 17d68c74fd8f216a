package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Start the scheduler daemon or manage its jobs.

Registered jobs:
- price_sweep: 9:45 AM and 3:45 PM on trading days (evaluate open tips)
- expiry_sweep: hourly (close expired tips)
- score_recompute: 2 AM daily, plus chained after each price sweep
- score_snapshot: 4 AM daily, plus chained after a successful recompute
- stats_reconcile: 3:30 AM daily (re-derive creator counters)

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a job immediately
  status  - show job execution statistics

Example:
  go run ./cmd/tipscore scheduler start
  go run ./cmd/tipscore scheduler list
  go run ./cmd/tipscore scheduler run price_sweep`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution statistics",
		RunE:  showJobStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== tipscore Scheduler ===")

	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	// Streaming keeps the quote store warm between sweeps; the sweep
	// falls back to REST when the stream is down.
	if err := app.stream.Start(cmd.Context()); err != nil {
		app.log.WithError(err).Warn("Streaming quote source unavailable")
	}

	app.sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range app.sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	app.stream.Stop()
	app.sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	fmt.Println("Registered jobs:")
	for _, jobName := range app.sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	if err := app.sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background)")
	return nil
}

func showJobStatus(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.close()

	stats := app.sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}

		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}
