// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/niahq/excellence-hub/pkg/logging"
	"github.com/niahq/excellence-hub/services/asana"
	"github.com/niahq/excellence-hub/services/hub/observability"
	"github.com/niahq/excellence-hub/services/hub/routes"
	"github.com/niahq/excellence-hub/services/llm"
	"github.com/niahq/excellence-hub/services/store"
)

var (
	exportOwner  string
	exportOutput string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the hub API server",
		Run:   runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Run:   runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with demo data",
		Run:   runSeed,
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export one user's processes with health inputs as CSV",
		Run:   runExport,
	}

	purgeSessionsCmd = &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired login sessions",
		Run:   runPurgeSessions,
	}
)

func init() {
	exportCmd.Flags().StringVar(&exportOwner, "owner", "", "owner email to export")
	exportCmd.Flags().StringVar(&exportOutput, "out", "export.csv", "output file path")
	_ = exportCmd.MarkFlagRequired("owner")
}

func openStore() *store.Store {
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return s
}

func runServe(cmd *cobra.Command, args []string) {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.LogDir,
		Service: "hub",
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	s := openStore()
	defer s.Close()

	llmClient, err := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		log.Fatalf("failed to initialize LLM client: %v", err)
	}
	snapshots, err := asana.OpenSnapshotCache(cfg.Database.SnapshotCacheDir)
	if err != nil {
		log.Fatalf("failed to open snapshot cache: %v", err)
	}
	defer snapshots.Close()

	metrics := observability.InitMetrics()
	router := gin.Default()
	routes.SetupRoutes(router, s, llmClient, &cfg, asana.NewMemberCache(), snapshots, metrics)

	log.Printf("Starting the hub server on port %d", cfg.Server.Port)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func runMigrate(cmd *cobra.Command, args []string) {
	// Open applies pending migrations.
	s := openStore()
	defer s.Close()
	log.Println("Migrations applied.")
}

func runSeed(cmd *cobra.Command, args []string) {
	s := openStore()
	defer s.Close()
	ctx := context.Background()

	admin, err := s.CreateUser(ctx, "admin@example.com", "Demo Admin", "super_admin")
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	member, err := s.CreateUser(ctx, "member@example.com", "Demo Member", "member")
	if err != nil {
		log.Fatalf("failed to seed member: %v", err)
	}

	p, err := s.CreateProcess(ctx, member.ID, "Client Onboarding", "key")
	if err != nil {
		log.Fatalf("failed to seed process: %v", err)
	}
	target := 95.0
	m, err := s.CreateMetric(ctx, p.ID, "Onboarding Satisfaction", "monthly", "percent", &target)
	if err != nil {
		log.Fatalf("failed to seed metric: %v", err)
	}
	if _, err := s.AddEntry(ctx, m.ID, 88, time.Now().UTC(), "manual"); err != nil {
		log.Fatalf("failed to seed metric entry: %v", err)
	}

	_, err = s.CreateTemplate(ctx, store.Template{
		Title:       "Quarterly Pulse",
		Description: "Short recurring staff pulse survey",
		Questions: []store.TemplateQuestion{
			{Prompt: "How satisfied are you with this process?", Type: "rating"},
			{Prompt: "Would you recommend this team to a colleague?", Type: "nps"},
			{Prompt: "What should we improve?", Type: "open_text"},
		},
	})
	if err != nil {
		log.Fatalf("failed to seed survey template: %v", err)
	}

	log.Printf("Seeded users %s and %s with one process, metric, and template.", admin.Email, member.Email)
}

func runExport(cmd *cobra.Command, args []string) {
	s := openStore()
	defer s.Close()
	ctx := context.Background()

	owner, err := s.UserByEmail(ctx, exportOwner)
	if err != nil {
		log.Fatalf("failed to find owner %q: %v", exportOwner, err)
	}
	processes, err := s.ProcessesByOwner(ctx, owner.ID)
	if err != nil {
		log.Fatalf("failed to list processes: %v", err)
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"name", "type", "status", "metric_count", "updated_at"}); err != nil {
		log.Fatalf("failed to write CSV: %v", err)
	}
	for _, p := range processes {
		metrics, err := s.MetricsByProcess(ctx, p.ID)
		if err != nil {
			log.Fatalf("failed to load metrics: %v", err)
		}
		if err := w.Write([]string{
			p.Name, p.Type, p.Status,
			strconv.Itoa(len(metrics)),
			p.UpdatedAt.Format(time.RFC3339),
		}); err != nil {
			log.Fatalf("failed to write CSV: %v", err)
		}
	}
	log.Printf("Exported %d processes to %s", len(processes), exportOutput)
}

func runPurgeSessions(cmd *cobra.Command, args []string) {
	s := openStore()
	defer s.Close()

	n, err := s.PurgeExpiredSessions(context.Background())
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}
	log.Printf("Purged %d expired sessions.", n)
}
