package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/killallgit/delivery-api/internal/database"
	"github.com/killallgit/delivery-api/internal/models"
)

func TestMigrateCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		wantErr        bool
		expectedOutput string
	}{
		{
			name:           "migrate command with help",
			args:           []string{"migrate", "--help"},
			wantErr:        false,
			expectedOutput: "Manage the job store",
		},
		{
			name:           "migrate up subcommand",
			args:           []string{"migrate", "up", "--help"},
			wantErr:        false,
			expectedOutput: "Apply the job store schema",
		},
		{
			name:           "migrate status subcommand",
			args:           []string{"migrate", "status", "--help"},
			wantErr:        false,
			expectedOutput: "Display the number of jobs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.expectedOutput != "" && !strings.Contains(buf.String(), tt.expectedOutput) {
				t.Errorf("Expected output to contain %q, got %q", tt.expectedOutput, buf.String())
			}
		})
	}
}

func TestMigrateCommandSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	migrateCmd, _, err := cmd.Find([]string{"migrate"})
	if err != nil {
		t.Fatalf("Failed to find migrate command: %v", err)
	}

	// Check that subcommands exist
	expectedSubcommands := []string{"up", "status"}
	for _, subCmd := range expectedSubcommands {
		found := false
		for _, child := range migrateCmd.Commands() {
			if child.Name() == subCmd {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected migrate command to have %q subcommand", subCmd)
		}
	}
}

func TestJobCounts(t *testing.T) {
	db, err := database.Initialize(":memory:", false)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	jobs := []models.Job{
		{PublicID: "a", Status: models.JobStatusQueued},
		{PublicID: "b", Status: models.JobStatusQueued},
		{PublicID: "c", Status: models.JobStatusDone},
	}
	if err := db.Create(&jobs).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	counts, err := jobCounts(db)
	if err != nil {
		t.Fatalf("jobCounts() error = %v", err)
	}
	if counts[models.JobStatusQueued] != 2 {
		t.Errorf("queued = %d, want 2", counts[models.JobStatusQueued])
	}
	if counts[models.JobStatusDone] != 1 {
		t.Errorf("done = %d, want 1", counts[models.JobStatusDone])
	}
	if counts[models.JobStatusError] != 0 {
		t.Errorf("error = %d, want 0", counts[models.JobStatusError])
	}
}
