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

const (
	ObjectiveSourceMetric = "metric"
	ObjectiveSourceADLI   = "adli"
)

// CreateObjective inserts a strategic objective. Metric-sourced
// objectives must name a metric; ADLI-sourced ones must carry a
// threshold.
func (s *Store) CreateObjective(ctx context.Context, o Objective) (Objective, error) {
	switch o.SourceType {
	case ObjectiveSourceMetric:
		if o.MetricID == "" {
			return Objective{}, fmt.Errorf("metric objective requires a metric id")
		}
	case ObjectiveSourceADLI:
		if o.ADLIThreshold == nil {
			return Objective{}, fmt.Errorf("adli objective requires a threshold")
		}
	default:
		return Objective{}, fmt.Errorf("unknown objective source %q", o.SourceType)
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	var metricID any
	if o.MetricID != "" {
		metricID = o.MetricID
	}
	var threshold any
	if o.ADLIThreshold != nil {
		threshold = *o.ADLIThreshold
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objectives (id, owner_id, title, target_value, source_type, metric_id, adli_threshold, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OwnerID, o.Title, o.TargetValue, o.SourceType, metricID, threshold,
		formatTime(now), formatTime(now))
	if err != nil {
		return Objective{}, fmt.Errorf("insert objective: %w", err)
	}
	return o, nil
}

// ObjectiveByID loads one objective.
func (s *Store) ObjectiveByID(ctx context.Context, id string) (Objective, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, target_value, source_type, metric_id, adli_threshold, created_at, updated_at
		 FROM objectives WHERE id = ?`, id)
	o, err := scanObjective(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Objective{}, ErrNotFound
	}
	return o, err
}

// ObjectivesByOwner lists a user's objectives.
func (s *Store) ObjectivesByOwner(ctx context.Context, ownerID string) ([]Objective, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, target_value, source_type, metric_id, adli_threshold, created_at, updated_at
		 FROM objectives WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query objectives: %w", err)
	}
	defer rows.Close()

	var out []Objective
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// DeleteObjective removes an objective.
func (s *Store) DeleteObjective(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objectives WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete objective: %w", err)
	}
	return requireRow(res)
}

func scanObjective(row rowScanner) (Objective, error) {
	var o Objective
	var metricID sql.NullString
	var threshold sql.NullFloat64
	var created, updated string
	err := row.Scan(&o.ID, &o.OwnerID, &o.Title, &o.TargetValue, &o.SourceType,
		&metricID, &threshold, &created, &updated)
	if err != nil {
		return Objective{}, err
	}
	o.MetricID = metricID.String
	if threshold.Valid {
		v := threshold.Float64
		o.ADLIThreshold = &v
	}
	if o.CreatedAt, err = mustTime(created); err != nil {
		return Objective{}, err
	}
	if o.UpdatedAt, err = mustTime(updated); err != nil {
		return Objective{}, err
	}
	return o, nil
}
