package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/killallgit/delivery-api/internal/database"
	"github.com/killallgit/delivery-api/internal/models"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the job store schema",
	Long: `Manage the job store for the Delivery API.

The schema is applied automatically by serve. These subcommands let an
operator prepare the database ahead of time or inspect the queue.

Available subcommands:
  up      - Create or update the jobs table
  status  - Show job counts by status`,
}

// migrateUpCmd applies the schema
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update the jobs table",
	Long: `Apply the job store schema.

This command creates the jobs table if it does not exist and adds any
missing columns to an existing one.`,
	RunE: runMigrateUp,
}

// migrateStatusCmd shows queue status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show job counts by status",
	Long: `Display the number of jobs in each status.

Jobs are queued, running, done or error.`,
	RunE: runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func openDatabase() (*database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Job store schema is up to date")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	counts, err := jobCounts(db)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Job Store Status")
	fmt.Fprintln(out, strings.Repeat("=", 30))
	for _, status := range []models.JobStatus{models.JobStatusQueued, models.JobStatusRunning, models.JobStatusDone, models.JobStatusError} {
		fmt.Fprintf(out, "%-10s %d\n", status, counts[status])
	}
	return nil
}

// jobCounts returns the number of jobs per status
func jobCounts(db *database.DB) (map[models.JobStatus]int64, error) {
	var rows []struct {
		Status models.JobStatus
		Count  int64
	}
	if err := db.Model(&models.Job{}).Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}

	counts := make(map[models.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
