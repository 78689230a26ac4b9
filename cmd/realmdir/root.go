// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the RealmDir CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realmdir",
		Short: "RealmDir - account directory for game realms",
		Long: `RealmDir manages game accounts and their login credentials,
issuing SRP6 salt/verifier pairs and serving projected account
queries over HTTP.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
