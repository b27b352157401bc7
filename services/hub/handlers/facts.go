// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/niahq/excellence-hub/services/scoring"
	"github.com/niahq/excellence-hub/services/store"
)

// processFacts assembles the scoring inputs for one process from its
// stored row plus linked metrics, task stats, and framework mappings.
func processFacts(ctx context.Context, s *store.Store, p store.Process, now time.Time) (scoring.ProcessFacts, error) {
	metrics, err := metricFacts(ctx, s, p.ID)
	if err != nil {
		return scoring.ProcessFacts{}, err
	}

	stats, err := s.TaskStatsByProcess(ctx, p.ID, now)
	if err != nil {
		return scoring.ProcessFacts{}, fmt.Errorf("task stats for %s: %w", p.ID, err)
	}

	mappings, err := s.MappingsByProcess(ctx, p.ID)
	if err != nil {
		return scoring.ProcessFacts{}, fmt.Errorf("mappings for %s: %w", p.ID, err)
	}

	return scoring.ProcessFacts{
		Status:             p.Status,
		Type:               p.Type,
		HasCharter:         hasContent(p.Charter),
		Approach:           p.Approach,
		Deployment:         p.Deployment,
		Learning:           p.Learning,
		Integration:        p.Integration,
		HasBaldrigeMapping: len(mappings) > 0,
		Metrics:            metrics,
		OpenTasks:          stats.Open,
		OverdueTasks:       stats.Overdue,
		CompletedLast90d:   stats.CompletedLast90d,
		UpdatedAt:          p.UpdatedAt,
	}, nil
}

// metricFacts loads the review-relevant slice of every metric linked to
// a process.
func metricFacts(ctx context.Context, s *store.Store, processID string) ([]scoring.MetricFacts, error) {
	metrics, err := s.MetricsByProcess(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("metrics for %s: %w", processID, err)
	}
	facts := make([]scoring.MetricFacts, 0, len(metrics))
	for _, m := range metrics {
		last, err := s.LastEntryDate(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("last entry for %s: %w", m.ID, err)
		}
		facts = append(facts, scoring.MetricFacts{
			Name:      m.Name,
			Cadence:   scoring.Cadence(m.Cadence),
			LastEntry: last,
			HasTarget: m.TargetValue != nil,
		})
	}
	return facts, nil
}

// hasContent reports whether a stored JSON blob carries anything beyond
// an empty object.
func hasContent(blob string) bool {
	t := strings.TrimSpace(blob)
	return t != "" && t != "{}" && t != "null"
}
