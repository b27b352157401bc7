// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/store"
	"github.com/niahq/excellence-hub/services/taskgraph"
)

func CreateTask(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		var req datatypes.CreateTaskRequest
		if !bindAndValidate(c, &req) {
			return
		}

		t := store.Task{
			ProcessID:  p.ID,
			Title:      req.Title,
			Priority:   req.Priority,
			AssigneeID: req.AssigneeID,
			Origin:     "hub",
		}
		if req.DueDate != "" {
			due, err := time.Parse(entryDateFormat, req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due date"})
				return
			}
			t.DueDate = &due
		}

		created, err := s.CreateTask(c.Request.Context(), t)
		if err != nil {
			storeError(c, err, "task")
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func ListTasks(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		tasks, err := s.TasksByProcess(c.Request.Context(), p.ID)
		if err != nil {
			storeError(c, err, "task")
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks})
	}
}

func CompleteTask(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := ownedTask(c, s, c.Param("taskId"))
		if !ok {
			return
		}
		if err := s.CompleteTask(c.Request.Context(), t.ID, time.Now().UTC()); err != nil {
			storeError(c, err, "task")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed"})
	}
}

// AddTaskDependency validates the proposed edge against the dependency
// graph before inserting it. Self-references, cross-process edges, and
// cycles are rejected with 422.
func AddTaskDependency(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		t, ok := ownedTask(c, s, c.Param("taskId"))
		if !ok {
			return
		}
		var req datatypes.AddDependencyRequest
		if !bindAndValidate(c, &req) {
			return
		}

		err := taskgraph.CheckEdge(c.Request.Context(), s, t.ID, req.DependsOnID)
		switch {
		case errors.Is(err, taskgraph.ErrSelfDependency),
			errors.Is(err, taskgraph.ErrCrossProcess),
			errors.Is(err, taskgraph.ErrCycle):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		case err != nil:
			slog.Error("dependency check failed", "task", t.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate dependency"})
			return
		}

		if err := s.AddDependency(c.Request.Context(), id.User.ID, t.ID, req.DependsOnID); err != nil {
			storeError(c, err, "dependency")
			return
		}
		slog.Info("task dependency added", "task", t.ID, "depends_on", req.DependsOnID)
		c.JSON(http.StatusCreated, gin.H{"status": "created"})
	}
}

func RemoveTaskDependency(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := ownedTask(c, s, c.Param("taskId"))
		if !ok {
			return
		}
		if err := s.RemoveDependency(c.Request.Context(), t.ID, c.Param("dependsOnId")); err != nil {
			storeError(c, err, "dependency")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "removed"})
	}
}

func ListTaskDependencies(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := ownedTask(c, s, c.Param("taskId"))
		if !ok {
			return
		}
		deps, err := s.DependenciesOf(c.Request.Context(), t.ID)
		if err != nil {
			storeError(c, err, "dependency")
			return
		}
		c.JSON(http.StatusOK, gin.H{"depends_on": deps})
	}
}

// ownedTask loads a task and checks ownership through its process.
func ownedTask(c *gin.Context, s *store.Store, taskID string) (store.Task, bool) {
	t, err := s.TaskByID(c.Request.Context(), taskID)
	if err != nil {
		storeError(c, err, "task")
		return store.Task{}, false
	}
	if _, ok := ownedProcess(c, s, t.ProcessID); !ok {
		return store.Task{}, false
	}
	return t, true
}
