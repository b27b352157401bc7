// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// Health Score Types
// =============================================================================

// ProcessFacts is the slice of one process row that the health scorer
// reads. Callers build it from the stored process plus its linked
// metrics and task stats.
type ProcessFacts struct {
	Status     string // draft, active, retired
	Type       string // key or support
	HasCharter bool   // charter JSON has non-empty content

	// The four ADLI narrative fields, empty when not yet written.
	Approach    string
	Deployment  string
	Learning    string
	Integration string

	HasBaldrigeMapping bool

	Metrics []MetricFacts

	OpenTasks        int
	OverdueTasks     int
	CompletedLast90d int

	UpdatedAt time.Time
}

// ChecklistItem is one scored rule inside a dimension.
type ChecklistItem struct {
	Label  string `json:"label"`
	Points int    `json:"points"`
	Met    bool   `json:"met"`
	Target string `json:"target"` // UI navigation target for the fix
}

// DimensionScore is the earned/possible breakdown for one of the five
// health dimensions.
type DimensionScore struct {
	Name     string          `json:"name"`
	Earned   int             `json:"earned"`
	Possible int             `json:"possible"`
	Items    []ChecklistItem `json:"items"`
}

// NextAction is an unmet checklist item surfaced as a suggestion.
type NextAction struct {
	Label  string `json:"label"`
	Points int    `json:"points"`
	Target string `json:"target"`
}

// HealthScore is the full result of scoring one process.
type HealthScore struct {
	Total       int              `json:"total"` // 0..100
	Dimensions  []DimensionScore `json:"dimensions"`
	NextActions []NextAction     `json:"next_actions"`
}

// freshnessWindow is how recently a process must have been touched for
// the freshness dimension to award its points.
const freshnessWindow = 60 * 24 * time.Hour

// =============================================================================
// Scoring
// =============================================================================

// ScoreProcess computes the additive 0-100 health score for one
// process. Each checklist item contributes a fixed point value to its
// dimension; the total is the sum across dimensions. Unmet items become
// next actions, sorted by point value descending and deduplicated by
// normalized label.
func ScoreProcess(p ProcessFacts, now time.Time) HealthScore {
	dims := []DimensionScore{
		scoreDocumentation(p),
		scoreMaturity(p),
		scoreMeasurement(p, now),
		scoreOperations(p),
		scoreFreshness(p, now),
	}

	score := HealthScore{Dimensions: dims}
	seen := map[string]bool{}
	for _, d := range dims {
		score.Total += d.Earned
		for _, item := range d.Items {
			if item.Met {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(item.Label))
			if seen[key] {
				continue
			}
			seen[key] = true
			score.NextActions = append(score.NextActions, NextAction{
				Label:  item.Label,
				Points: item.Points,
				Target: item.Target,
			})
		}
	}
	sort.SliceStable(score.NextActions, func(i, j int) bool {
		return score.NextActions[i].Points > score.NextActions[j].Points
	})
	return score
}

func scoreDocumentation(p ProcessFacts) DimensionScore {
	items := []ChecklistItem{
		{Label: "Write the process charter", Points: 9, Met: p.HasCharter, Target: "charter"},
		{Label: "Document the Approach narrative", Points: 4, Met: strings.TrimSpace(p.Approach) != "", Target: "adli"},
		{Label: "Document the Deployment narrative", Points: 4, Met: strings.TrimSpace(p.Deployment) != "", Target: "adli"},
		{Label: "Document the Learning narrative", Points: 4, Met: strings.TrimSpace(p.Learning) != "", Target: "adli"},
		{Label: "Document the Integration narrative", Points: 4, Met: strings.TrimSpace(p.Integration) != "", Target: "adli"},
	}
	return buildDimension("documentation", items)
}

func scoreMaturity(p ProcessFacts) DimensionScore {
	items := []ChecklistItem{
		{Label: "Move the process out of draft", Points: 8, Met: p.Status != "" && p.Status != "draft", Target: "settings"},
		{Label: "Classify the process as key or support", Points: 4, Met: p.Type == "key" || p.Type == "support", Target: "settings"},
		{Label: "Map the process to a Baldrige question", Points: 8, Met: p.HasBaldrigeMapping, Target: "baldrige"},
	}
	return buildDimension("maturity", items)
}

func scoreMeasurement(p ProcessFacts, now time.Time) DimensionScore {
	hasMetric := len(p.Metrics) > 0
	allCurrent := hasMetric
	allTargets := hasMetric
	for _, m := range p.Metrics {
		if st := ReviewStatus(m.Cadence, m.LastEntry, now); st == ReviewOverdue || st == ReviewNoData {
			allCurrent = false
		}
		if !m.HasTarget {
			allTargets = false
		}
	}
	items := []ChecklistItem{
		{Label: "Link at least one metric", Points: 10, Met: hasMetric, Target: "metrics"},
		{Label: "Record entries for every metric cadence", Points: 10, Met: allCurrent, Target: "metrics"},
		{Label: "Set targets on linked metrics", Points: 5, Met: allTargets, Target: "metrics"},
	}
	return buildDimension("measurement", items)
}

func scoreOperations(p ProcessFacts) DimensionScore {
	items := []ChecklistItem{
		{Label: "Plan open tasks for the process", Points: 5, Met: p.OpenTasks > 0 || p.CompletedLast90d > 0, Target: "tasks"},
		{Label: "Clear overdue tasks", Points: 10, Met: p.OverdueTasks == 0, Target: "tasks"},
		{Label: "Complete a task in the last 90 days", Points: 5, Met: p.CompletedLast90d > 0, Target: "tasks"},
	}
	return buildDimension("operations", items)
}

func scoreFreshness(p ProcessFacts, now time.Time) DimensionScore {
	fresh := !p.UpdatedAt.IsZero() && now.Sub(p.UpdatedAt) <= freshnessWindow
	items := []ChecklistItem{
		{Label: "Review and update the process", Points: 10, Met: fresh, Target: "overview"},
	}
	return buildDimension("freshness", items)
}

func buildDimension(name string, items []ChecklistItem) DimensionScore {
	d := DimensionScore{Name: name, Items: items}
	for _, item := range items {
		d.Possible += item.Points
		if item.Met {
			d.Earned += item.Points
		}
	}
	return d
}

// =============================================================================
// Account Roll-Up
// =============================================================================

// ProcessHealth pairs a scored process with its key/support type for
// account-level aggregation.
type ProcessHealth struct {
	Score int
	Type  string // key or support
}

// AccountHealth combines per-process scores into one account figure.
// Key processes weigh twice as much as support processes in the mean.
// Returns 0 for an empty slice.
func AccountHealth(processes []ProcessHealth) int {
	var sum, weight int
	for _, p := range processes {
		w := 1
		if p.Type == "key" {
			w = 2
		}
		sum += p.Score * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	// Round half up, matching the UI's display math.
	return (sum + weight/2) / weight
}
