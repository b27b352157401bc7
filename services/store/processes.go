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
)

const processColumns = `id, owner_id, name, status, process_type, charter,
	approach, deployment, learning, integration,
	asana_project_id, asana_snapshot, snapshot_refreshed_at, created_at, updated_at`

// CreateProcess inserts a new process in draft status.
func (s *Store) CreateProcess(ctx context.Context, ownerID, name, processType string) (Process, error) {
	if processType == "" {
		processType = "support"
	}
	now := time.Now().UTC()
	p := Process{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Status:      "draft",
		Type:        processType,
		Charter:     "{}",
		Approach:    "{}",
		Deployment:  "{}",
		Learning:    "{}",
		Integration: "{}",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processes (id, owner_id, name, status, process_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Status, p.Type, formatTime(now), formatTime(now))
	if err != nil {
		return Process{}, fmt.Errorf("insert process: %w", err)
	}
	return p, nil
}

// ProcessByID loads one process.
func (s *Store) ProcessByID(ctx context.Context, id string) (Process, error) {
	p, err := s.scanProcess(s.db.QueryRowContext(ctx,
		`SELECT `+processColumns+` FROM processes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Process{}, ErrNotFound
	}
	return p, err
}

// ProcessesByOwner lists one user's processes, newest first.
func (s *Store) ProcessesByOwner(ctx context.Context, ownerID string) ([]Process, error) {
	return s.queryProcesses(ctx,
		`SELECT `+processColumns+` FROM processes WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

// AllProcesses lists every process, for admin roll-ups.
func (s *Store) AllProcesses(ctx context.Context) ([]Process, error) {
	return s.queryProcesses(ctx,
		`SELECT `+processColumns+` FROM processes ORDER BY created_at DESC`)
}

// ProcessUpdate carries the mutable narrative fields of a process. Nil
// pointers leave the stored value untouched.
type ProcessUpdate struct {
	Name        *string
	Status      *string
	Type        *string
	Charter     *string
	Approach    *string
	Deployment  *string
	Learning    *string
	Integration *string
}

// UpdateProcess applies a partial update and bumps updated_at.
func (s *Store) UpdateProcess(ctx context.Context, id string, upd ProcessUpdate) (Process, error) {
	sets := "updated_at = ?"
	args := []any{formatTime(time.Now().UTC())}

	apply := func(column string, v *string) {
		if v != nil {
			sets += ", " + column + " = ?"
			args = append(args, *v)
		}
	}
	apply("name", upd.Name)
	apply("status", upd.Status)
	apply("process_type", upd.Type)
	apply("charter", upd.Charter)
	apply("approach", upd.Approach)
	apply("deployment", upd.Deployment)
	apply("learning", upd.Learning)
	apply("integration", upd.Integration)

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE processes SET `+sets+` WHERE id = ?`, args...)
	if err != nil {
		return Process{}, fmt.Errorf("update process: %w", err)
	}
	if err := requireRow(res); err != nil {
		return Process{}, err
	}
	return s.ProcessByID(ctx, id)
}

// LinkAsanaProject attaches an external project id to a process.
func (s *Store) LinkAsanaProject(ctx context.Context, processID, asanaProjectID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processes SET asana_project_id = ?, updated_at = ? WHERE id = ?`,
		asanaProjectID, formatTime(time.Now().UTC()), processID)
	if err != nil {
		return fmt.Errorf("link asana project: %w", err)
	}
	return requireRow(res)
}

// RefreshSnapshot replaces only the cached raw snapshot of the linked
// external project. Charter and ADLI content are deliberately not
// touched: a resync must never clobber locally entered narrative.
func (s *Store) RefreshSnapshot(ctx context.Context, processID, rawSnapshot string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processes SET asana_snapshot = ?, snapshot_refreshed_at = ? WHERE id = ?`,
		rawSnapshot, formatTime(time.Now().UTC()), processID)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	return requireRow(res)
}

// DeleteProcess removes a process and, via foreign keys, its metrics,
// tasks, and mappings.
func (s *Store) DeleteProcess(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	return requireRow(res)
}

func (s *Store) queryProcesses(ctx context.Context, query string, args ...any) ([]Process, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	var out []Process
	for rows.Next() {
		p, err := s.scanProcess(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) scanProcess(row rowScanner) (Process, error) {
	var p Process
	var projectID, snapshot, refreshed sql.NullString
	var created, updated string
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Status, &p.Type, &p.Charter,
		&p.Approach, &p.Deployment, &p.Learning, &p.Integration,
		&projectID, &snapshot, &refreshed, &created, &updated)
	if err != nil {
		return Process{}, err
	}
	p.AsanaProjectID = projectID.String
	p.AsanaSnapshot = snapshot.String
	if p.SnapshotRefreshedAt, err = parseTime(refreshed); err != nil {
		return Process{}, err
	}
	if p.CreatedAt, err = mustTime(created); err != nil {
		return Process{}, err
	}
	if p.UpdatedAt, err = mustTime(updated); err != nil {
		return Process{}, err
	}
	return p, nil
}
