package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/pipeline"
	"github.com/ennovar/demandcast/internal/scheduler"
	"github.com/ennovar/demandcast/internal/scheduler/jobs"
	"github.com/ennovar/demandcast/internal/store"
	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/database"
	"github.com/ennovar/demandcast/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the scheduler",
	Long: `Starts the scheduler daemon or manages its jobs.

Subcommands:
  start  - Start the scheduler daemon
  list   - List registered jobs
  run    - Run one job immediately

Example:
  go run ./cmd/demandcast scheduler start
  go run ./cmd/demandcast scheduler list
  go run ./cmd/demandcast scheduler run model_retrain`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long: `Starts the scheduler and schedules all registered jobs.

Registered jobs:
- model_retrain: weekly retraining on the full sales history
  (RETRAIN_SCHEDULE, default Sunday 2 AM)

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandcast Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// Give the background run a chance before tearing down the pool
	fmt.Println("Job started, waiting for completion (Ctrl+C to detach)")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}

// initScheduler wires the scheduler with all jobs. The returned
// cleanup closes the database pool.
func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	obsRepo := store.NewObservationRepository(db.Pool)
	artifactStore := artifact.NewStore(cfg.Forecast.ArtifactDir, log.Zerolog())
	trainer := pipeline.NewTrainer(obsRepo, artifactStore, cfg.Forecast, log.Zerolog())

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewRetrainJob(trainer, cfg.Forecast.RetrainSchedule, log, nil)); err != nil {
		db.Close()
		return nil, nil, err
	}

	return sched, db.Close, nil
}
