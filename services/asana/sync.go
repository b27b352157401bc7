// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/niahq/excellence-hub/services/store"
)

var syncTracer = otel.Tracer("hub.asana.sync")

// SyncDelay is the pause between items in a bulk sync. The third-party
// API rate-limits per minute; sequential requests with this gap stay
// well inside the limit.
const SyncDelay = 500 * time.Millisecond

// ProjectStore is the slice of the persistence layer a sync touches.
// Resync writes only the cached raw snapshot, never the locally
// entered charter or narrative fields. The adoption metric feeds the
// monthly auto-log; logging a month twice is a no-op.
type ProjectStore interface {
	RefreshSnapshot(ctx context.Context, processID, rawSnapshot string) error
	EnsureAdoptionMetric(ctx context.Context, processID string) (store.Metric, error)
	LogAdoptionRate(ctx context.Context, metricID string, value float64, month time.Time) (bool, error)
}

// Snapshot is the raw project state captured at sync time.
type Snapshot struct {
	Project   Project   `json:"project"`
	Tasks     []Task    `json:"tasks"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Link pairs a hub process with its Asana project.
type Link struct {
	ProcessID  string `json:"process_id"`
	ProjectGID string `json:"project_gid"`
}

// SyncResult is the per-item outcome of a bulk sync.
type SyncResult struct {
	ProcessID  string `json:"process_id"`
	ProjectGID string `json:"project_gid"`
	OK         bool   `json:"ok"`
	TaskCount  int    `json:"task_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Syncer refreshes project snapshots for linked processes.
type Syncer struct {
	client *Client
	store  ProjectStore
	cache  *SnapshotCache
	delay  time.Duration
}

func NewSyncer(client *Client, store ProjectStore, cache *SnapshotCache) *Syncer {
	return &Syncer{client: client, store: store, cache: cache, delay: SyncDelay}
}

// SyncOne fetches a project's current state and refreshes the stored
// snapshot. Locally entered documentation is untouched.
func (s *Syncer) SyncOne(ctx context.Context, link Link) (SyncResult, error) {
	ctx, span := syncTracer.Start(ctx, "Syncer.SyncOne")
	defer span.End()
	span.SetAttributes(
		attribute.String("process.id", link.ProcessID),
		attribute.String("project.gid", link.ProjectGID),
	)

	res := SyncResult{ProcessID: link.ProcessID, ProjectGID: link.ProjectGID}

	tasks, err := s.client.ProjectTasks(ctx, link.ProjectGID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return res, fmt.Errorf("fetch project tasks: %w", err)
	}

	snap := Snapshot{
		Project:   Project{GID: link.ProjectGID},
		Tasks:     tasks,
		FetchedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return res, fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.store.RefreshSnapshot(ctx, link.ProcessID, string(raw)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return res, fmt.Errorf("store snapshot: %w", err)
	}
	s.cache.Put(link.ProjectGID, raw)

	res.OK = true
	res.TaskCount = len(tasks)
	span.SetAttributes(attribute.Int("sync.task_count", res.TaskCount))

	s.logAdoption(ctx, link.ProcessID, tasks, snap.FetchedAt)
	return res, nil
}

// logAdoption records the share of completed project tasks as this
// month's adoption entry. Best effort: a failure never fails the sync.
func (s *Syncer) logAdoption(ctx context.Context, processID string, tasks []Task, at time.Time) {
	if len(tasks) == 0 {
		return
	}
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	rate := float64(completed) / float64(len(tasks)) * 100

	m, err := s.store.EnsureAdoptionMetric(ctx, processID)
	if err != nil {
		slog.Warn("adoption metric unavailable", "process", processID, "error", err)
		return
	}
	if _, err := s.store.LogAdoptionRate(ctx, m.ID, rate, at); err != nil {
		slog.Warn("adoption auto-log failed", "process", processID, "error", err)
	}
}

// SyncAll refreshes each link in order, pausing between items and
// continuing past per-item failures. The returned slice always has one
// entry per link, in input order.
func (s *Syncer) SyncAll(ctx context.Context, links []Link) []SyncResult {
	ctx, span := syncTracer.Start(ctx, "Syncer.SyncAll",
		trace.WithAttributes(attribute.Int("sync.link_count", len(links))))
	defer span.End()

	results := make([]SyncResult, 0, len(links))
	for i, link := range links {
		if i > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				results = append(results, SyncResult{
					ProcessID:  link.ProcessID,
					ProjectGID: link.ProjectGID,
					Error:      ctx.Err().Error(),
				})
				continue
			}
		}

		res, err := s.SyncOne(ctx, link)
		if err != nil {
			slog.Warn("project sync failed", "process", link.ProcessID, "project", link.ProjectGID, "error", err)
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}
