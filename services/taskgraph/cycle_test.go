// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package taskgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memResolver is an in-memory graph for tests. Edges map a task to the
// tasks it depends on.
type memResolver struct {
	process map[string]string
	edges   map[string][]string
}

func newMemResolver() *memResolver {
	return &memResolver{process: map[string]string{}, edges: map[string][]string{}}
}

func (m *memResolver) addTask(id, processID string) {
	m.process[id] = processID
}

func (m *memResolver) addEdge(task, dependsOn string) {
	m.edges[task] = append(m.edges[task], dependsOn)
}

func (m *memResolver) TaskRef(_ context.Context, taskID string) (TaskRef, error) {
	p, ok := m.process[taskID]
	if !ok {
		return TaskRef{}, fmt.Errorf("task %s not found", taskID)
	}
	return TaskRef{ID: taskID, ProcessID: p}, nil
}

func (m *memResolver) DependenciesOf(_ context.Context, taskID string) ([]string, error) {
	return m.edges[taskID], nil
}

func TestCheckEdge_AllowsIndependentTasks(t *testing.T) {
	r := newMemResolver()
	r.addTask("a", "p1")
	r.addTask("b", "p1")

	assert.NoError(t, CheckEdge(context.Background(), r, "a", "b"))
}

func TestCheckEdge_RejectsSelfDependency(t *testing.T) {
	r := newMemResolver()
	r.addTask("a", "p1")

	assert.ErrorIs(t, CheckEdge(context.Background(), r, "a", "a"), ErrSelfDependency)
}

func TestCheckEdge_RejectsCrossProcess(t *testing.T) {
	r := newMemResolver()
	r.addTask("a", "p1")
	r.addTask("b", "p2")

	assert.ErrorIs(t, CheckEdge(context.Background(), r, "a", "b"), ErrCrossProcess)
}

func TestCheckEdge_RejectsMissingTask(t *testing.T) {
	r := newMemResolver()
	r.addTask("a", "p1")

	assert.Error(t, CheckEdge(context.Background(), r, "a", "ghost"))
	assert.Error(t, CheckEdge(context.Background(), r, "ghost", "a"))
}

func TestCheckEdge_RejectsDirectCycle(t *testing.T) {
	r := newMemResolver()
	r.addTask("a", "p1")
	r.addTask("b", "p1")
	r.addEdge("b", "a") // b already depends on a

	// a -> b would close a two-node cycle.
	assert.ErrorIs(t, CheckEdge(context.Background(), r, "a", "b"), ErrCycle)
}

func TestCheckEdge_RejectsTransitiveCycle(t *testing.T) {
	r := newMemResolver()
	for _, id := range []string{"a", "b", "c", "d"} {
		r.addTask(id, "p1")
	}
	r.addEdge("b", "c")
	r.addEdge("c", "d")
	r.addEdge("d", "a")

	// a -> b reaches a via b -> c -> d -> a.
	assert.ErrorIs(t, CheckEdge(context.Background(), r, "a", "b"), ErrCycle)
}

func TestCheckEdge_AllowsDiamondWithoutCycle(t *testing.T) {
	r := newMemResolver()
	for _, id := range []string{"a", "b", "c", "d"} {
		r.addTask(id, "p1")
	}
	// b and c both depend on d; a depending on b and c is fine.
	r.addEdge("b", "d")
	r.addEdge("c", "d")
	r.addEdge("a", "b")

	assert.NoError(t, CheckEdge(context.Background(), r, "a", "c"))
}

func TestCheckEdge_DepthBoundIsAnApproximation(t *testing.T) {
	r := newMemResolver()

	// Build a chain t0 <- t1 <- ... <- tN where each task depends on
	// the next. A cycle closing beyond MaxDepth hops is not detected.
	n := MaxDepth + 2
	for i := 0; i <= n; i++ {
		r.addTask(fmt.Sprintf("t%d", i), "p1")
	}
	for i := 0; i < n; i++ {
		r.addEdge(fmt.Sprintf("t%d", i), fmt.Sprintf("t%d", i+1))
	}

	// Within the bound: t5 is reachable from t0 in 5 hops, so the
	// reverse edge is rejected.
	require.ErrorIs(t, CheckEdge(context.Background(), r, "t5", "t0"), ErrCycle)

	// Beyond the bound: the walk stops at MaxDepth levels, so the
	// edge is accepted even though it closes a long cycle.
	assert.NoError(t, CheckEdge(context.Background(), r, fmt.Sprintf("t%d", n), "t0"))
}
