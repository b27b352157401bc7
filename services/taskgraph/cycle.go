// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package taskgraph validates task dependency edges before insertion.
//
// Task dependencies form a directed graph that must stay acyclic and
// must never cross process boundaries. The checker runs a bounded
// breadth-first traversal over existing edges; the store only inserts
// an edge after the checker approves it.
package taskgraph

import (
	"context"
	"errors"
	"fmt"
)

// MaxDepth bounds the breadth-first traversal. Cycles longer than this
// are not detected; that is a deliberate cutoff for pathological
// graphs, not a defect. Real dependency chains here are far shallower.
const MaxDepth = 10

var (
	// ErrSelfDependency is returned when a task would depend on itself.
	ErrSelfDependency = errors.New("a task cannot depend on itself")

	// ErrCrossProcess is returned when the two tasks belong to
	// different processes.
	ErrCrossProcess = errors.New("tasks must belong to the same process")

	// ErrCycle is returned when the new edge would close a dependency
	// cycle.
	ErrCycle = errors.New("dependency would create a cycle")
)

// TaskRef is the minimal task view the checker needs.
type TaskRef struct {
	ID        string
	ProcessID string
}

// Resolver supplies existing tasks and edges. The store implements it.
type Resolver interface {
	// TaskRef loads a task's identity, or an error if it does not exist.
	TaskRef(ctx context.Context, taskID string) (TaskRef, error)

	// DependenciesOf returns the IDs a task directly depends on.
	DependenciesOf(ctx context.Context, taskID string) ([]string, error)
}

// CheckEdge validates the proposed edge (taskID depends on dependsOnID)
// against the current graph. It returns nil when the edge is safe to
// insert, or one of ErrSelfDependency, ErrCrossProcess, ErrCycle, or a
// resolver error.
//
// The cycle check walks outward from dependsOnID following existing
// depends-on edges, breadth first, up to MaxDepth levels. If taskID is
// reachable, the new edge would make dependsOnID (transitively) depend
// on a task that now depends on it.
func CheckEdge(ctx context.Context, r Resolver, taskID, dependsOnID string) error {
	if taskID == dependsOnID {
		return ErrSelfDependency
	}

	task, err := r.TaskRef(ctx, taskID)
	if err != nil {
		return fmt.Errorf("resolve task %s: %w", taskID, err)
	}
	dep, err := r.TaskRef(ctx, dependsOnID)
	if err != nil {
		return fmt.Errorf("resolve dependency %s: %w", dependsOnID, err)
	}
	if task.ProcessID != dep.ProcessID {
		return ErrCrossProcess
	}

	frontier := []string{dependsOnID}
	visited := map[string]bool{dependsOnID: true}

	for depth := 0; depth < MaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			deps, err := r.DependenciesOf(ctx, id)
			if err != nil {
				return fmt.Errorf("load dependencies of %s: %w", id, err)
			}
			for _, d := range deps {
				if d == taskID {
					return ErrCycle
				}
				if !visited[d] {
					visited[d] = true
					next = append(next, d)
				}
			}
		}
		frontier = next
	}
	return nil
}
