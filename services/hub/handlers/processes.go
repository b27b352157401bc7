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

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/hub/observability"
	"github.com/niahq/excellence-hub/services/scoring"
	"github.com/niahq/excellence-hub/services/store"
)

func CreateProcess(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		var req datatypes.CreateProcessRequest
		if !bindAndValidate(c, &req) {
			return
		}

		processType := req.Type
		if processType == "" {
			processType = "support"
		}
		p, err := s.CreateProcess(c.Request.Context(), id.User.ID, req.Name, processType)
		if err != nil {
			storeError(c, err, "process")
			return
		}
		slog.Info("process created", "process", p.ID, "owner", id.User.ID)
		c.JSON(http.StatusCreated, p)
	}
}

func ListProcesses(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		processes, err := s.ProcessesByOwner(c.Request.Context(), id.User.ID)
		if err != nil {
			storeError(c, err, "process")
			return
		}
		c.JSON(http.StatusOK, gin.H{"processes": processes})
	}
}

func GetProcess(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func UpdateProcess(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		var req datatypes.UpdateProcessRequest
		if !bindAndValidate(c, &req) {
			return
		}

		updated, err := s.UpdateProcess(c.Request.Context(), p.ID, store.ProcessUpdate{
			Name:        req.Name,
			Status:      req.Status,
			Type:        req.Type,
			Charter:     req.Charter,
			Approach:    req.Approach,
			Deployment:  req.Deployment,
			Learning:    req.Learning,
			Integration: req.Integration,
		})
		if err != nil {
			storeError(c, err, "process")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteProcess(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		if err := s.DeleteProcess(c.Request.Context(), p.ID); err != nil {
			storeError(c, err, "process")
			return
		}
		slog.Info("process deleted", "process", p.ID)
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

// ProcessHealth scores one process and returns the full dimension
// breakdown with suggested next actions.
func ProcessHealth(s *store.Store, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}

		now := time.Now().UTC()
		facts, err := processFacts(c.Request.Context(), s, p, now)
		if err != nil {
			slog.Error("failed to assemble process facts", "process", p.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to score process"})
			return
		}

		score := scoring.ScoreProcess(facts, now)
		metrics.RecordHealthScore()
		c.JSON(http.StatusOK, gin.H{"process_id": p.ID, "health": score})
	}
}
