// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/realmdir/realmdir/internal/config"
	"github.com/realmdir/realmdir/internal/directory/postgres"
)

// DirectoryStatus holds the health information reported by the status
// command.
type DirectoryStatus struct {
	Database         string `json:"database"`
	MigrationVersion uint   `json:"migration_version"`
	MigrationDirty   bool   `json:"migration_dirty"`
	Error            string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backing-store health and schema version",
		Long:  `Ping the backing store and report the current migration version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	conf, err := config.Load(configFile, config.Flags())
	if err != nil {
		return err
	}

	status := queryStatus(cmd.Context(), conf.DatabaseURL)

	if cfg.jsonOutput {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("Database:  %s\n", status.Database)
	cmd.Printf("Schema:    version %d (dirty: %v)\n", status.MigrationVersion, status.MigrationDirty)
	if status.Error != "" {
		cmd.Printf("Error:     %s\n", status.Error)
	}
	return nil
}

func queryStatus(ctx context.Context, databaseURL string) DirectoryStatus {
	status := DirectoryStatus{Database: "unreachable"}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer pool.Close()
	status.Database = "ok"

	m, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.MigrationVersion = version
	status.MigrationDirty = dirty
	return status
}
