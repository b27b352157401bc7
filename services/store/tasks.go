// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/niahq/excellence-hub/services/taskgraph"
)

const taskColumns = `id, process_id, title, done, due_date, priority, assignee_id, origin, completed_at, created_at, updated_at`

// CreateTask inserts a task for a process.
func (s *Store) CreateTask(ctx context.Context, t Task) (Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if t.Origin == "" {
		t.Origin = "hub"
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	var assignee any
	if t.AssigneeID != "" {
		assignee = t.AssigneeID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, process_id, title, done, due_date, priority, assignee_id, origin, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProcessID, t.Title, formatTimePtr(t.DueDate), t.Priority, assignee, t.Origin,
		formatTime(now), formatTime(now))
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// TaskByID loads one task.
func (s *Store) TaskByID(ctx context.Context, id string) (Task, error) {
	t, err := s.scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

// TasksByProcess lists a process's tasks, open before done, then by due
// date.
func (s *Store) TasksByProcess(ctx context.Context, processID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE process_id = ?
		 ORDER BY done, due_date IS NULL, due_date`, processID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CompleteTask flips a task to done and stamps the completion time.
func (s *Store) CompleteTask(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET done = 1, completed_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(at), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return requireRow(res)
}

// TaskRef implements taskgraph.Resolver.
func (s *Store) TaskRef(ctx context.Context, taskID string) (taskgraph.TaskRef, error) {
	var ref taskgraph.TaskRef
	err := s.db.QueryRowContext(ctx,
		`SELECT id, process_id FROM tasks WHERE id = ?`, taskID).
		Scan(&ref.ID, &ref.ProcessID)
	if errors.Is(err, sql.ErrNoRows) {
		return taskgraph.TaskRef{}, ErrNotFound
	}
	if err != nil {
		return taskgraph.TaskRef{}, fmt.Errorf("load task ref: %w", err)
	}
	return ref, nil
}

// DependenciesOf implements taskgraph.Resolver.
func (s *Store) DependenciesOf(ctx context.Context, taskID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT depends_on_task_id FROM task_dependencies WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddDependency inserts a validated dependency edge and appends the
// audit row in the same transaction. The caller must have run
// taskgraph.CheckEdge first; the primary-key constraint still rejects
// duplicate edges here.
func (s *Store) AddDependency(ctx context.Context, actorID, taskID, dependsOnID string) error {
	now := time.Now().UTC()
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_dependencies (task_id, depends_on_task_id, created_at) VALUES (?, ?, ?)`,
			taskID, dependsOnID, formatTime(now)); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("dependency %s -> %s: %w", taskID, dependsOnID, ErrDuplicate)
			}
			return fmt.Errorf("insert dependency: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, detail, created_at)
			 VALUES (?, ?, 'task.dependency.added', 'task', ?, ?, ?)`,
			uuid.NewString(), actorID, taskID, "depends_on="+dependsOnID, formatTime(now)); err != nil {
			return fmt.Errorf("append audit row: %w", err)
		}
		return nil
	})
}

// RemoveDependency deletes an edge.
func (s *Store) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ?`,
		taskID, dependsOnID)
	if err != nil {
		return fmt.Errorf("remove dependency: %w", err)
	}
	return requireRow(res)
}

// AppendAudit adds a free-form audit row.
func (s *Store) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Detail, formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

// AuditByEntity lists audit rows for one entity, newest first.
func (s *Store) AuditByEntity(ctx context.Context, entityType, entityID string) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, action, entity_type, entity_id, detail, created_at
		 FROM audit_log WHERE entity_type = ? AND entity_id = ? ORDER BY created_at DESC`,
		entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var created string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &created); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		if e.CreatedAt, err = mustTime(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TaskStats are the per-process task counts the health scorer reads.
type TaskStats struct {
	Open             int
	Overdue          int
	CompletedLast90d int
}

// TaskStatsByProcess computes open/overdue/recently-completed counts.
func (s *Store) TaskStatsByProcess(ctx context.Context, processID string, now time.Time) (TaskStats, error) {
	var st TaskStats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE done = 0),
			COUNT(*) FILTER (WHERE done = 0 AND due_date IS NOT NULL AND due_date < ?),
			COUNT(*) FILTER (WHERE done = 1 AND completed_at >= ?)
		 FROM tasks WHERE process_id = ?`,
		formatTime(now), formatTime(now.Add(-90*24*time.Hour)), processID).
		Scan(&st.Open, &st.Overdue, &st.CompletedLast90d)
	if err != nil {
		return TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return st, nil
}

func (s *Store) scanTask(row rowScanner) (Task, error) {
	var t Task
	var due, assignee, completed sql.NullString
	var done int
	var created, updated string
	err := row.Scan(&t.ID, &t.ProcessID, &t.Title, &done, &due, &t.Priority,
		&assignee, &t.Origin, &completed, &created, &updated)
	if err != nil {
		return Task{}, err
	}
	t.Done = done != 0
	t.AssigneeID = assignee.String
	if t.DueDate, err = parseTime(due); err != nil {
		return Task{}, err
	}
	if t.CompletedAt, err = parseTime(completed); err != nil {
		return Task{}, err
	}
	if t.CreatedAt, err = mustTime(created); err != nil {
		return Task{}, err
	}
	if t.UpdatedAt, err = mustTime(updated); err != nil {
		return Task{}, err
	}
	return t, nil
}
