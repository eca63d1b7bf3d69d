package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/accmirror/internal/config"
	"github.com/dbsmedya/accmirror/internal/database"
	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/mirror"
	"github.com/dbsmedya/accmirror/internal/notify"
	"github.com/dbsmedya/accmirror/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mirror as a long-lived HTTP service",
	Long: `Serve starts the HTTP control service. Sync passes are triggered over
the API and then recur on the configured interval until stopped.

Endpoints:
  POST /api/sync    start recurring sync (optional connection info in body)
  POST /api/stop    stop the recurring timer and clear snapshots
  GET  /api/status  connection, scheduler, and last pass state
  GET  /ws          live progress events over websocket

Example:
  accmirror serve --config accmirror.yaml --listen :8090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"Override listen address (host:port)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.IntervalSeconds, overrides.SkipVerify)
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx := database.SetupSignalHandler()

	hub := notify.NewHub(log)
	svc := mirror.NewService(ctx, cfg, hub, log)
	defer svc.Close()

	srv, err := server.New(cfg.Server.Listen, svc, hub, log)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Infow("Mirror service running", "listen", cfg.Server.Listen)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Infow("Shutdown signal received, draining")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
