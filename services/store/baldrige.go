// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MapProcess links a process to a Baldrige framework question. Mapping
// the same pair twice returns ErrDuplicate.
func (s *Store) MapProcess(ctx context.Context, processID, questionCode string) (BaldrigeMapping, error) {
	m := BaldrigeMapping{
		ID:           uuid.NewString(),
		ProcessID:    processID,
		QuestionCode: questionCode,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO baldrige_mappings (id, process_id, question_code, created_at) VALUES (?, ?, ?, ?)`,
		m.ID, m.ProcessID, m.QuestionCode, formatTime(m.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return BaldrigeMapping{}, ErrDuplicate
		}
		return BaldrigeMapping{}, fmt.Errorf("insert mapping: %w", err)
	}
	return m, nil
}

// UnmapProcess removes one mapping.
func (s *Store) UnmapProcess(ctx context.Context, processID, questionCode string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM baldrige_mappings WHERE process_id = ? AND question_code = ?`,
		processID, questionCode)
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return requireRow(res)
}

// MappingsByProcess lists a process's framework mappings.
func (s *Store) MappingsByProcess(ctx context.Context, processID string) ([]BaldrigeMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, process_id, question_code, created_at
		 FROM baldrige_mappings WHERE process_id = ? ORDER BY question_code`, processID)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var out []BaldrigeMapping
	for rows.Next() {
		var m BaldrigeMapping
		var created string
		if err := rows.Scan(&m.ID, &m.ProcessID, &m.QuestionCode, &created); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		if m.CreatedAt, err = mustTime(created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ProcessesByQuestion lists process ids mapped to one framework question
// across the whole account. Feeds the coverage report.
func (s *Store) ProcessesByQuestion(ctx context.Context, questionCode string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT process_id FROM baldrige_mappings WHERE question_code = ? ORDER BY process_id`, questionCode)
	if err != nil {
		return nil, fmt.Errorf("query mappings by question: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan process id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
