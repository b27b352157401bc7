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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/store"
)

// seedTask creates a task on processID.
func seedTask(t *testing.T, s *store.Store, processID, title string) store.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), store.Task{
		ProcessID: processID,
		Title:     title,
		Priority:  "medium",
		Origin:    "hub",
	})
	require.NoError(t, err)
	return task
}

// =============================================================================
// Task CRUD Tests
// =============================================================================

func TestCreateTask_Success(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	router := testRouter(owner, "POST", "/processes/:processId/tasks", CreateTask(s))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/tasks", datatypes.CreateTaskRequest{
		Title:   "Reconcile ledger",
		DueDate: "2026-09-30",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Reconcile ledger", body["title"])
	assert.Equal(t, "hub", body["origin"])
}

func TestCompleteTask_SetsDone(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	task := seedTask(t, s, p.ID, "Reconcile ledger")

	router := testRouter(owner, "POST", "/tasks/:taskId/complete", CompleteTask(s))
	w := performRequest(router, "POST", "/tasks/"+task.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := s.TaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, got.Done)
	assert.NotNil(t, got.CompletedAt)
}

// =============================================================================
// Dependency Validation Tests
// =============================================================================

func TestAddTaskDependency_Success(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	a := seedTask(t, s, p.ID, "A")
	b := seedTask(t, s, p.ID, "B")

	router := testRouter(owner, "POST", "/tasks/:taskId/dependencies", AddTaskDependency(s))
	w := performRequest(router, "POST", "/tasks/"+a.ID+"/dependencies",
		datatypes.AddDependencyRequest{DependsOnID: b.ID})

	require.Equal(t, http.StatusCreated, w.Code)

	deps, err := s.DependenciesOf(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, deps)
}

func TestAddTaskDependency_RejectsSelf(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	a := seedTask(t, s, p.ID, "A")

	router := testRouter(owner, "POST", "/tasks/:taskId/dependencies", AddTaskDependency(s))
	w := performRequest(router, "POST", "/tasks/"+a.ID+"/dependencies",
		datatypes.AddDependencyRequest{DependsOnID: a.ID})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddTaskDependency_RejectsCrossProcess(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p1 := seedProcess(t, s, owner.ID, "Payroll")
	p2 := seedProcess(t, s, owner.ID, "Hiring")
	a := seedTask(t, s, p1.ID, "A")
	b := seedTask(t, s, p2.ID, "B")

	router := testRouter(owner, "POST", "/tasks/:taskId/dependencies", AddTaskDependency(s))
	w := performRequest(router, "POST", "/tasks/"+a.ID+"/dependencies",
		datatypes.AddDependencyRequest{DependsOnID: b.ID})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddTaskDependency_RejectsCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	a := seedTask(t, s, p.ID, "A")
	b := seedTask(t, s, p.ID, "B")
	c := seedTask(t, s, p.ID, "C")

	// a -> b -> c already in place; c -> a would close the loop.
	require.NoError(t, s.AddDependency(ctx, owner.ID, a.ID, b.ID))
	require.NoError(t, s.AddDependency(ctx, owner.ID, b.ID, c.ID))

	router := testRouter(owner, "POST", "/tasks/:taskId/dependencies", AddTaskDependency(s))
	w := performRequest(router, "POST", "/tasks/"+c.ID+"/dependencies",
		datatypes.AddDependencyRequest{DependsOnID: a.ID})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddTaskDependency_UnknownTarget(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	a := seedTask(t, s, p.ID, "A")

	router := testRouter(owner, "POST", "/tasks/:taskId/dependencies", AddTaskDependency(s))
	w := performRequest(router, "POST", "/tasks/"+a.ID+"/dependencies",
		datatypes.AddDependencyRequest{DependsOnID: "no-such-task"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveTaskDependency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	a := seedTask(t, s, p.ID, "A")
	b := seedTask(t, s, p.ID, "B")
	require.NoError(t, s.AddDependency(ctx, owner.ID, a.ID, b.ID))

	router := testRouter(owner, "DELETE", "/tasks/:taskId/dependencies/:dependsOnId", RemoveTaskDependency(s))
	w := performRequest(router, "DELETE", "/tasks/"+a.ID+"/dependencies/"+b.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	deps, err := s.DependenciesOf(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}
