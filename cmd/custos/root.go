// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custos-project/custos/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// resolveConfigFile returns the --config value, or the XDG config file when
// no flag was given and the file exists. An empty result means env and flag
// configuration only.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	path := filepath.Join(xdg.ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// NewRootCmd creates the root command for the Custos CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custos",
		Short: "Custos - identity and access control service",
		Long: `Custos is an identity and access control service providing
user accounts, password resets, token issuance, and role-based
authorization over HTTP.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}