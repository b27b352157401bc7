// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/store"
)

func CreateObjective(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		var req datatypes.CreateObjectiveRequest
		if !bindAndValidate(c, &req) {
			return
		}

		o, err := s.CreateObjective(c.Request.Context(), store.Objective{
			OwnerID:       id.User.ID,
			Title:         req.Title,
			TargetValue:   req.TargetValue,
			SourceType:    req.SourceType,
			MetricID:      req.MetricID,
			ADLIThreshold: req.ADLIThreshold,
		})
		if err != nil {
			storeError(c, err, "objective")
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// objectiveView is one objective with its computed progress attached.
type objectiveView struct {
	store.Objective
	CurrentValue    float64 `json:"current_value"`
	ProgressPercent float64 `json:"progress_percent"`
}

// ListObjectives returns the caller's objectives with progress. A
// metric-sourced objective reads the metric's newest entry; an
// ADLI-sourced one reads the share of the caller's processes whose
// narrative completeness meets the threshold.
func ListObjectives(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		objectives, err := s.ObjectivesByOwner(ctx, id.User.ID)
		if err != nil {
			storeError(c, err, "objective")
			return
		}

		views := make([]objectiveView, 0, len(objectives))
		for _, o := range objectives {
			current, err := objectiveCurrent(ctx, s, id.User.ID, o)
			if err != nil {
				storeError(c, err, "objective")
				return
			}
			views = append(views, objectiveView{
				Objective:       o,
				CurrentValue:    current,
				ProgressPercent: progressPercent(current, o.TargetValue),
			})
		}
		c.JSON(http.StatusOK, gin.H{"objectives": views})
	}
}

func DeleteObjective(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		o, err := s.ObjectiveByID(c.Request.Context(), c.Param("objectiveId"))
		if err != nil {
			storeError(c, err, "objective")
			return
		}
		if o.OwnerID != id.User.ID && !id.Role().IsAdmin() {
			c.JSON(http.StatusNotFound, gin.H{"error": "objective not found"})
			return
		}
		if err := s.DeleteObjective(c.Request.Context(), o.ID); err != nil {
			storeError(c, err, "objective")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

// objectiveCurrent computes the live value feeding an objective.
func objectiveCurrent(ctx context.Context, s *store.Store, ownerID string, o store.Objective) (float64, error) {
	switch o.SourceType {
	case store.ObjectiveSourceMetric:
		entries, err := s.EntriesByMetric(ctx, o.MetricID)
		if err != nil {
			return 0, err
		}
		if len(entries) == 0 {
			return 0, nil
		}
		return entries[0].Value, nil

	case store.ObjectiveSourceADLI:
		processes, err := s.ProcessesByOwner(ctx, ownerID)
		if err != nil {
			return 0, err
		}
		if len(processes) == 0 {
			return 0, nil
		}
		threshold := 100.0
		if o.ADLIThreshold != nil {
			threshold = *o.ADLIThreshold
		}
		met := 0
		for _, p := range processes {
			if adliCompleteness(p) >= threshold {
				met++
			}
		}
		return float64(met) / float64(len(processes)) * 100, nil

	default:
		return 0, nil
	}
}

// adliCompleteness is the share of the four narrative fields with
// content, as a percentage.
func adliCompleteness(p store.Process) float64 {
	filled := 0
	for _, field := range []string{p.Approach, p.Deployment, p.Learning, p.Integration} {
		if strings.TrimSpace(field) != "" {
			filled++
		}
	}
	return float64(filled) / 4 * 100
}

// progressPercent clamps current/target to the 0-100 display range.
func progressPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	pct := current / target * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
