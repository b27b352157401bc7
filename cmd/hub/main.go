// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/niahq/excellence-hub/services/hub/config"
)

var (
	configPath string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "hub",
		Short: "Manage the NIA Excellence Hub",
		Long: `Operational tooling for the Excellence Hub: run the API server,
apply database migrations, seed demo data, and export CSV reports.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loaded, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("failed to load configuration: %v", err)
			}
			cfg = loaded
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the yaml config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, exportCmd, purgeSessionsCmd)
}
