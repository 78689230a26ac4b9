// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/realmdir/realmdir/internal/config"
	"github.com/realmdir/realmdir/internal/directory"
	"github.com/realmdir/realmdir/internal/directory/postgres"
	"github.com/realmdir/realmdir/internal/logging"
	"github.com/realmdir/realmdir/internal/observability"
	"github.com/realmdir/realmdir/internal/server"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	flags := config.Flags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the directory HTTP server",
		Long: `Start the account directory server: connects to the backing
store, exposes the directory API over HTTP, and serves metrics and
health probes on a separate address.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, flags)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}
	cmd.Flags().AddFlagSet(flags)

	return cmd
}

// runServe starts the directory server and blocks until shutdown.
func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logging.SetDefault("realmdir", version, cfg.LogFormat)
	logger := slog.Default()

	slog.Info("starting directory server",
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	store, err := postgres.NewStore(pool, logger)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	svc, err := directory.NewService(store, logger, cfg.OperationTimeout)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		if _, err = obsServer.Start(); err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		metrics = obsServer.Metrics()
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	handler, err := server.NewHandler(svc, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	apiServer, err := server.New(server.Options{
		Addr:          cfg.ListenAddr,
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
	}, handler, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopObservability(obsServer)
		return fmt.Errorf("failed to start http server: %w", err)
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	cmd.Println("Directory server started")
	slog.Info("directory server ready", "addr", apiServer.Addr())

	// Wait for shutdown signal or server failure
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case serveErr, open := <-apiErrChan:
		if open && serveErr != nil {
			slog.Error("http server failed", "error", serveErr)
		}
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer)

	slog.Info("shutdown complete")
	return nil
}

func stopObservability(obsServer *observability.Server) {
	if obsServer == nil {
		return
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}
