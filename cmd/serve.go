package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/killallgit/delivery-api/api"
	"github.com/killallgit/delivery-api/api/types"
	"github.com/killallgit/delivery-api/internal/app"
	"github.com/killallgit/delivery-api/internal/database"
	"github.com/killallgit/delivery-api/internal/services/cleanup"
	"github.com/killallgit/delivery-api/internal/services/jobs"
	"github.com/killallgit/delivery-api/internal/services/workers"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Delivery API server with the configured settings.

The server accepts batches over HTTP, queues them in the job store and
processes them one at a time on a background worker. Finished deliveries
are listed under /api/v1/history and served from /api/v1/downloads.

Example:
  delivery-api serve
  delivery-api serve --port 9090
  delivery-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load config (lazy loading - only when serve command is run)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	// Use config values if flags not provided
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	for _, dir := range []string{cfg.Storage.OutputDir, cfg.Storage.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	components := app.Build(cfg)
	jobService := jobs.NewService(jobs.NewRepository(db.DB))

	processor := workers.NewDeliveryProcessor(jobService, components.Pipeline, workers.DeliveryConfig{
		OutputRoot: cfg.Storage.OutputDir,
		TempRoot:   cfg.Storage.TempDir,
		CacheDir:   cfg.Storage.CacheDir,
	})
	worker := workers.NewWorker("worker-1", jobService, processor, cfg.Processing.PollInterval)
	janitor := cleanup.NewService(cfg.Storage.TempDir, 24*time.Hour, time.Hour, jobService, cfg.Processing.JobRetention)

	server := api.NewServer(cfg.Server, &types.Dependencies{
		DB:            db,
		JobService:    jobService,
		Media:         components.Media,
		OutputRoot:    cfg.Storage.OutputDir,
		TempDir:       cfg.Storage.TempDir,
		MaxUploadSize: cfg.Server.MaxUploadSize,
	}, buildInfo())
	server.Initialize()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server", "addr", cfg.Server.Address())
	if err := supervise(ctx, server, cfg.Server.ShutdownTimeout, worker, janitor); err != nil {
		return err
	}

	slog.Info("server gracefully stopped")
	return nil
}

// lifecycle is the HTTP server as driven by serve
type lifecycle interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// backgroundService is a loop that runs until Stop is called
type backgroundService interface {
	Start(ctx context.Context)
	Stop()
}

// supervise runs server and services until ctx is canceled or the server
// fails. Services are stopped in reverse start order, then the server is
// shut down within shutdownTimeout.
func supervise(ctx context.Context, server lifecycle, shutdownTimeout time.Duration, services ...backgroundService) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for _, svc := range services {
			svc.Start(gctx)
		}

		<-gctx.Done()
		slog.Info("shutting down server")

		for i := len(services) - 1; i >= 0; i-- {
			services[i].Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
