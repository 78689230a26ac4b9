// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/realmdir/realmdir/internal/config"
	"github.com/realmdir/realmdir/internal/directory/postgres"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the directory schema",
		Long:  `Apply or roll back database migrations for the directory schema.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE:  runMigrateVersion,
	})

	return cmd
}

func newMigrator() (*postgres.Migrator, error) {
	cfg, err := config.Load(configFile, config.Flags())
	if err != nil {
		return nil, err
	}
	return postgres.NewMigrator(cfg.DatabaseURL)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return oops.With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	cmd.Println("Rolling back migrations...")
	if err := m.Down(); err != nil {
		return oops.With("operation", "roll back migrations").Wrap(err)
	}

	cmd.Println("Rollback completed successfully")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	if err != nil {
		return oops.With("operation", "read migration version").Wrap(err)
	}

	if version == 0 && !dirty {
		cmd.Println("No migrations applied")
		return nil
	}
	cmd.Printf("Version: %d (dirty: %v)\n", version, dirty)
	return nil
}
