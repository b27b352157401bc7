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

// CreateMetric adds a metric to a process.
func (s *Store) CreateMetric(ctx context.Context, processID, name, cadence, unit string, target *float64) (Metric, error) {
	if cadence == "" {
		cadence = "monthly"
	}
	if unit == "" {
		unit = "number"
	}
	now := time.Now().UTC()
	m := Metric{
		ID:          uuid.NewString(),
		ProcessID:   processID,
		Name:        name,
		Cadence:     cadence,
		Unit:        unit,
		TargetValue: target,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var targetVal any
	if target != nil {
		targetVal = *target
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics (id, process_id, name, cadence, unit, target_value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProcessID, m.Name, m.Cadence, m.Unit, targetVal, formatTime(now), formatTime(now))
	if err != nil {
		return Metric{}, fmt.Errorf("insert metric: %w", err)
	}
	return m, nil
}

// MetricByID loads one metric.
func (s *Store) MetricByID(ctx context.Context, id string) (Metric, error) {
	m, err := s.scanMetric(s.db.QueryRowContext(ctx,
		`SELECT id, process_id, name, cadence, unit, target_value, created_at, updated_at
		 FROM metrics WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Metric{}, ErrNotFound
	}
	return m, err
}

// MetricsByProcess lists a process's metrics.
func (s *Store) MetricsByProcess(ctx context.Context, processID string) ([]Metric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, process_id, name, cadence, unit, target_value, created_at, updated_at
		 FROM metrics WHERE process_id = ? ORDER BY name`, processID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		m, err := s.scanMetric(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddEntry records a metric value.
func (s *Store) AddEntry(ctx context.Context, metricID string, value float64, date time.Time, source string) (MetricEntry, error) {
	if source == "" {
		source = "manual"
	}
	now := time.Now().UTC()
	e := MetricEntry{
		ID:        uuid.NewString(),
		MetricID:  metricID,
		Value:     value,
		EntryDate: date.UTC(),
		Source:    source,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metric_entries (id, metric_id, value, entry_date, entry_month, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MetricID, e.Value, formatTime(e.EntryDate), e.EntryDate.Format("2006-01"), e.Source, formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return MetricEntry{}, ErrDuplicate
		}
		return MetricEntry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// LogAdoptionRate records the monthly adoption-rate auto-entry. The
// operation is idempotent per calendar month: a second call in the
// same month is a silent no-op, reported via the bool return.
func (s *Store) LogAdoptionRate(ctx context.Context, metricID string, value float64, month time.Time) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO metric_entries (id, metric_id, value, entry_date, entry_month, source, created_at)
		 VALUES (?, ?, ?, ?, ?, 'adoption_auto', ?)
		 ON CONFLICT DO NOTHING`,
		uuid.NewString(), metricID, value, formatTime(month.UTC()), month.UTC().Format("2006-01"), formatTime(now))
	if err != nil {
		return false, fmt.Errorf("log adoption rate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// AdoptionMetricName is the reserved metric fed by the sync auto-log.
const AdoptionMetricName = "Adoption Rate"

// EnsureAdoptionMetric returns the process's adoption-rate metric,
// creating it on first use.
func (s *Store) EnsureAdoptionMetric(ctx context.Context, processID string) (Metric, error) {
	m, err := s.scanMetric(s.db.QueryRowContext(ctx,
		`SELECT id, process_id, name, cadence, unit, target_value, created_at, updated_at
		 FROM metrics WHERE process_id = ? AND name = ?`, processID, AdoptionMetricName))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Metric{}, fmt.Errorf("find adoption metric: %w", err)
	}
	return s.CreateMetric(ctx, processID, AdoptionMetricName, "monthly", "percent", nil)
}

// EntriesByMetric returns a metric's entries, newest first.
func (s *Store) EntriesByMetric(ctx context.Context, metricID string) ([]MetricEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, metric_id, value, entry_date, source, created_at
		 FROM metric_entries WHERE metric_id = ? ORDER BY entry_date DESC`, metricID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []MetricEntry
	for rows.Next() {
		var e MetricEntry
		var date, created string
		if err := rows.Scan(&e.ID, &e.MetricID, &e.Value, &date, &e.Source, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.EntryDate, err = mustTime(date); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = mustTime(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastEntryDate returns the newest entry date for a metric, or nil when
// the metric has no entries.
func (s *Store) LastEntryDate(ctx context.Context, metricID string) (*time.Time, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(entry_date) FROM metric_entries WHERE metric_id = ?`, metricID).Scan(&date)
	if err != nil {
		return nil, fmt.Errorf("last entry date: %w", err)
	}
	return parseTime(date)
}

func (s *Store) scanMetric(row rowScanner) (Metric, error) {
	var m Metric
	var target sql.NullFloat64
	var created, updated string
	if err := row.Scan(&m.ID, &m.ProcessID, &m.Name, &m.Cadence, &m.Unit, &target, &created, &updated); err != nil {
		return Metric{}, err
	}
	if target.Valid {
		v := target.Float64
		m.TargetValue = &v
	}
	var err error
	if m.CreatedAt, err = mustTime(created); err != nil {
		return Metric{}, err
	}
	if m.UpdatedAt, err = mustTime(updated); err != nil {
		return Metric{}, err
	}
	return m, nil
}
