// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/niahq/excellence-hub/services/hub/observability"
	"github.com/niahq/excellence-hub/services/scoring"
	"github.com/niahq/excellence-hub/services/store"
)

// scorecardConcurrency bounds the fan-out when scoring a user's
// processes. Each score is a handful of SQLite queries; the bound keeps
// one request from monopolizing the connection pool.
const scorecardConcurrency = 4

// processScore is one row of the scorecard response.
type processScore struct {
	ProcessID string               `json:"process_id"`
	Name      string               `json:"name"`
	Type      string               `json:"process_type"`
	Status    string               `json:"status"`
	Health    scoring.HealthScore  `json:"health"`
	facts     scoring.ProcessFacts `json:"-"`
}

// Scorecard scores every process the caller owns, concurrently, and
// rolls the results into an account health figure plus the compliance
// verdict.
func Scorecard(s *store.Store, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		now := time.Now().UTC()

		processes, err := s.ProcessesByOwner(ctx, id.User.ID)
		if err != nil {
			storeError(c, err, "process")
			return
		}

		scores := make([]processScore, len(processes))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(scorecardConcurrency)
		for i, p := range processes {
			g.Go(func() error {
				facts, err := processFacts(gctx, s, p, now)
				if err != nil {
					return err
				}
				scores[i] = processScore{
					ProcessID: p.ID,
					Name:      p.Name,
					Type:      p.Type,
					Status:    p.Status,
					Health:    scoring.ScoreProcess(facts, now),
					facts:     facts,
				}
				metrics.RecordHealthScore()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			slog.Error("scorecard computation failed", "user", id.User.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute scorecard"})
			return
		}

		rollup := make([]scoring.ProcessHealth, len(scores))
		compliance := scoring.ComplianceInput{
			OnboardingCompletedAt: id.User.OnboardingCompletedAt,
			Processes:             make([]scoring.ProcessCompliance, len(scores)),
		}
		for i, ps := range scores {
			rollup[i] = scoring.ProcessHealth{Score: ps.Health.Total, Type: ps.Type}
			compliance.Processes[i] = scoring.ProcessCompliance{
				Name:    ps.Name,
				Health:  ps.Health.Total,
				Metrics: ps.facts.Metrics,
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"processes":      scores,
			"account_health": scoring.AccountHealth(rollup),
			"compliance":     scoring.EvaluateCompliance(compliance, now),
		})
	}
}
