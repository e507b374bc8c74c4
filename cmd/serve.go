package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/cmd/app"
	"github.com/Taichi-iskw/yt-shorts/internal/config"
	"github.com/Taichi-iskw/yt-shorts/internal/logging"
	"github.com/Taichi-iskw/yt-shorts/internal/server"
	"github.com/Taichi-iskw/yt-shorts/internal/telemetry"
)

// serveCmd runs the long-lived worker process
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job worker, ops listener and telemetry consumer",
	Long: `Run ytshorts as a long-lived process. Jobs whose lease ran out, because the
process driving them died, are failed as interrupted and unclaimed pending
jobs are resumed. This happens on start and every sweep_interval after.
Jobs driven by other live processes are left alone. The ops listener serves
/health, /metrics and job lookups. When amqp_url is configured, telemetry
snapshots are consumed from the queue.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}

		// serve logs JSON at the configured level unless flags say otherwise
		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level, _ = cmd.Flags().GetString("log-level")
		}
		console := false
		if cmd.Flags().Changed("log-json") {
			jsonLogs, _ := cmd.Flags().GetBool("log-json")
			console = !jsonLogs
		}
		if err := logging.Init(level, console); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		services, cleanup, err := app.NewServiceFactory().CreateServicesWithConfig(setupCtx, cfg)
		cancel()
		if err != nil {
			return err
		}
		defer cleanup()

		return serve(ctx, services)
	},
}

func serve(ctx context.Context, services *app.Services) error {
	cfg := services.Config
	logger := logging.WithComponent("serve")

	failed, err := services.Orchestrator.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}
	logger.Info().Int("interrupted", failed).Msg("recovered abandoned jobs")

	sweepDone := make(chan struct{})
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go func() {
		defer close(sweepDone)
		services.Orchestrator.Sweep(sweepCtx, cfg.SweepInterval)
	}()
	// the sweep dispatches work, so it must stop before the orchestrator shuts down
	defer func() {
		stopSweep()
		<-sweepDone
	}()

	srv := server.NewServer(server.Config{
		Addr:      cfg.HTTPAddr,
		Jobs:      services.Orchestrator,
		Metrics:   services.Metrics,
		Gatherer:  services.Registry,
		Logger:    logging.WithComponent("server"),
		StartTime: time.Now(),
	})

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start()
	}()

	if cfg.AMQPURL != "" {
		consumer := telemetry.NewConsumer(cfg.AMQPURL, cfg.TelemetryQueue, services.Metrics, services.Registry, logging.WithComponent("telemetry"))
		go func() {
			if err := consumer.Run(ctx); err != nil {
				errCh <- fmt.Errorf("telemetry consumer stopped: %w", err)
			}
		}()
	} else {
		logger.Info().Msg("amqp_url not set, telemetry consumer disabled")
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error().Err(runErr).Msg("component failed, shutting down")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("ops listener did not drain")
	}

	return runErr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Ops listener address, overrides http_addr")
}
