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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSurvey inserts an empty survey.
func (s *Store) CreateSurvey(ctx context.Context, ownerID, title, description string) (Survey, error) {
	now := time.Now().UTC()
	sv := Survey{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO surveys (id, owner_id, title, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.OwnerID, sv.Title, sv.Description, formatTime(now), formatTime(now))
	if err != nil {
		return Survey{}, fmt.Errorf("insert survey: %w", err)
	}
	return sv, nil
}

// SurveyByID loads one survey.
func (s *Store) SurveyByID(ctx context.Context, id string) (Survey, error) {
	var sv Survey
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, created_at, updated_at FROM surveys WHERE id = ?`, id).
		Scan(&sv.ID, &sv.OwnerID, &sv.Title, &sv.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Survey{}, ErrNotFound
	}
	if err != nil {
		return Survey{}, fmt.Errorf("load survey: %w", err)
	}
	if sv.CreatedAt, err = mustTime(created); err != nil {
		return Survey{}, err
	}
	if sv.UpdatedAt, err = mustTime(updated); err != nil {
		return Survey{}, err
	}
	return sv, nil
}

// SurveysByOwner lists a user's surveys.
func (s *Store) SurveysByOwner(ctx context.Context, ownerID string) ([]Survey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, description, created_at, updated_at
		 FROM surveys WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query surveys: %w", err)
	}
	defer rows.Close()

	var out []Survey
	for rows.Next() {
		var sv Survey
		var created, updated string
		if err := rows.Scan(&sv.ID, &sv.OwnerID, &sv.Title, &sv.Description, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		if sv.CreatedAt, err = mustTime(created); err != nil {
			return nil, err
		}
		if sv.UpdatedAt, err = mustTime(updated); err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// AddQuestion appends a typed question to a survey.
func (s *Store) AddQuestion(ctx context.Context, q Question) (Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	choices, err := json.Marshal(orEmpty(q.Choices))
	if err != nil {
		return Question{}, fmt.Errorf("encode choices: %w", err)
	}
	rows, err := json.Marshal(orEmpty(q.Rows))
	if err != nil {
		return Question{}, fmt.Errorf("encode rows: %w", err)
	}
	cols, err := json.Marshal(orEmpty(q.Columns))
	if err != nil {
		return Question{}, fmt.Errorf("encode columns: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO survey_questions (id, survey_id, prompt, question_type, choices, matrix_rows, matrix_columns, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.SurveyID, q.Prompt, q.Type, string(choices), string(rows), string(cols), q.Position)
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// QuestionsBySurvey lists a survey's questions in position order.
func (s *Store) QuestionsBySurvey(ctx context.Context, surveyID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, survey_id, prompt, question_type, choices, matrix_rows, matrix_columns, position
		 FROM survey_questions WHERE survey_id = ? ORDER BY position, id`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var choices, mrows, mcols string
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Prompt, &q.Type, &choices, &mrows, &mcols, &q.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
			return nil, fmt.Errorf("decode choices: %w", err)
		}
		if err := json.Unmarshal([]byte(mrows), &q.Rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		if err := json.Unmarshal([]byte(mcols), &q.Columns); err != nil {
			return nil, fmt.Errorf("decode columns: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// CreateTemplate stores a portable survey template with its questions.
func (s *Store) CreateTemplate(ctx context.Context, t Template) (Template, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()

	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO survey_templates (id, title, description, created_at) VALUES (?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, formatTime(t.CreatedAt)); err != nil {
			return fmt.Errorf("insert template: %w", err)
		}
		for i := range t.Questions {
			q := &t.Questions[i]
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			q.TemplateID = t.ID
			choices, err := json.Marshal(orEmpty(q.Choices))
			if err != nil {
				return fmt.Errorf("encode choices: %w", err)
			}
			rows, err := json.Marshal(orEmpty(q.Rows))
			if err != nil {
				return fmt.Errorf("encode rows: %w", err)
			}
			cols, err := json.Marshal(orEmpty(q.Columns))
			if err != nil {
				return fmt.Errorf("encode columns: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO template_questions (id, template_id, prompt, question_type, choices, matrix_rows, matrix_columns)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				q.ID, q.TemplateID, q.Prompt, q.Type, string(choices), string(rows), string(cols)); err != nil {
				return fmt.Errorf("insert template question: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

// InstantiateTemplate creates a survey from a template, copying its
// questions. Question positions are assigned by copy order; the
// template itself stays unordered.
func (s *Store) InstantiateTemplate(ctx context.Context, templateID, ownerID, title string) (Survey, error) {
	var t Template
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description FROM survey_templates WHERE id = ?`, templateID).
		Scan(&t.ID, &t.Title, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Survey{}, ErrNotFound
	}
	if err != nil {
		return Survey{}, fmt.Errorf("load template: %w", err)
	}
	if title == "" {
		title = t.Title
	}

	sv, err := s.CreateSurvey(ctx, ownerID, title, t.Description)
	if err != nil {
		return Survey{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT prompt, question_type, choices, matrix_rows, matrix_columns
		 FROM template_questions WHERE template_id = ?`, templateID)
	if err != nil {
		return Survey{}, fmt.Errorf("query template questions: %w", err)
	}
	defer rows.Close()

	// Drain the cursor before inserting. The insert needs its own
	// connection, and an open cursor pins the only one when the pool
	// is capped for in-memory databases.
	var questions []Question
	pos := 0
	for rows.Next() {
		var q Question
		var choices, mrows, mcols string
		if err := rows.Scan(&q.Prompt, &q.Type, &choices, &mrows, &mcols); err != nil {
			return Survey{}, fmt.Errorf("scan template question: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
			return Survey{}, fmt.Errorf("decode choices: %w", err)
		}
		if err := json.Unmarshal([]byte(mrows), &q.Rows); err != nil {
			return Survey{}, fmt.Errorf("decode rows: %w", err)
		}
		if err := json.Unmarshal([]byte(mcols), &q.Columns); err != nil {
			return Survey{}, fmt.Errorf("decode columns: %w", err)
		}
		q.SurveyID = sv.ID
		q.Position = pos
		pos++
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return Survey{}, fmt.Errorf("iterate template questions: %w", err)
	}
	if err := rows.Close(); err != nil {
		return Survey{}, fmt.Errorf("close template questions: %w", err)
	}

	for _, q := range questions {
		if _, err := s.AddQuestion(ctx, q); err != nil {
			return Survey{}, err
		}
	}
	return sv, nil
}

// OpenWave starts a new collection round.
func (s *Store) OpenWave(ctx context.Context, surveyID, label string) (Wave, error) {
	w := Wave{
		ID:       uuid.NewString(),
		SurveyID: surveyID,
		Label:    label,
		OpenedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO survey_waves (id, survey_id, label, opened_at) VALUES (?, ?, ?, ?)`,
		w.ID, w.SurveyID, w.Label, formatTime(w.OpenedAt))
	if err != nil {
		return Wave{}, fmt.Errorf("insert wave: %w", err)
	}
	return w, nil
}

// WaveByID loads one wave.
func (s *Store) WaveByID(ctx context.Context, id string) (Wave, error) {
	var w Wave
	var opened string
	var closed sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, survey_id, label, opened_at, closed_at FROM survey_waves WHERE id = ?`, id).
		Scan(&w.ID, &w.SurveyID, &w.Label, &opened, &closed)
	if errors.Is(err, sql.ErrNoRows) {
		return Wave{}, ErrNotFound
	}
	if err != nil {
		return Wave{}, fmt.Errorf("load wave: %w", err)
	}
	if w.OpenedAt, err = mustTime(opened); err != nil {
		return Wave{}, err
	}
	if w.ClosedAt, err = parseTime(closed); err != nil {
		return Wave{}, err
	}
	return w, nil
}

// CloseWave stamps a wave closed.
func (s *Store) CloseWave(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE survey_waves SET closed_at = ? WHERE id = ? AND closed_at IS NULL`,
		formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("close wave: %w", err)
	}
	return requireRow(res)
}

// WavesBySurvey lists a survey's waves, oldest first.
func (s *Store) WavesBySurvey(ctx context.Context, surveyID string) ([]Wave, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, survey_id, label, opened_at, closed_at
		 FROM survey_waves WHERE survey_id = ? ORDER BY opened_at`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("query waves: %w", err)
	}
	defer rows.Close()

	var out []Wave
	for rows.Next() {
		var w Wave
		var opened string
		var closed sql.NullString
		if err := rows.Scan(&w.ID, &w.SurveyID, &w.Label, &opened, &closed); err != nil {
			return nil, fmt.Errorf("scan wave: %w", err)
		}
		if w.OpenedAt, err = mustTime(opened); err != nil {
			return nil, err
		}
		if w.ClosedAt, err = parseTime(closed); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// PreviousWave returns the wave immediately before the given one in the
// same survey, or ErrNotFound for the first wave.
func (s *Store) PreviousWave(ctx context.Context, waveID string) (Wave, error) {
	w, err := s.WaveByID(ctx, waveID)
	if err != nil {
		return Wave{}, err
	}
	var prev Wave
	var opened string
	var closed sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT id, survey_id, label, opened_at, closed_at FROM survey_waves
		 WHERE survey_id = ? AND opened_at < ? ORDER BY opened_at DESC LIMIT 1`,
		w.SurveyID, formatTime(w.OpenedAt)).
		Scan(&prev.ID, &prev.SurveyID, &prev.Label, &opened, &closed)
	if errors.Is(err, sql.ErrNoRows) {
		return Wave{}, ErrNotFound
	}
	if err != nil {
		return Wave{}, fmt.Errorf("load previous wave: %w", err)
	}
	if prev.OpenedAt, err = mustTime(opened); err != nil {
		return Wave{}, err
	}
	if prev.ClosedAt, err = parseTime(closed); err != nil {
		return Wave{}, err
	}
	return prev, nil
}

// SubmitResponse stores one response and its answers atomically.
func (s *Store) SubmitResponse(ctx context.Context, waveID, respondent string, answers []Answer) (Response, error) {
	r := Response{
		ID:          uuid.NewString(),
		WaveID:      waveID,
		Respondent:  respondent,
		SubmittedAt: time.Now().UTC(),
	}
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO survey_responses (id, wave_id, respondent, submitted_at) VALUES (?, ?, ?, ?)`,
			r.ID, r.WaveID, r.Respondent, formatTime(r.SubmittedAt)); err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
		for _, a := range answers {
			var number any
			if a.NumberValue != nil {
				number = *a.NumberValue
			}
			var choice any
			if a.ChoiceIndex != nil {
				choice = *a.ChoiceIndex
			}
			var indices any
			if a.ChoiceIndices != nil {
				b, err := json.Marshal(a.ChoiceIndices)
				if err != nil {
					return fmt.Errorf("encode choice indices: %w", err)
				}
				indices = string(b)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO survey_answers (id, response_id, question_id, number_value, choice_index, choice_indices, text_value, row_label)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), r.ID, a.QuestionID, number, choice, indices, a.TextValue, a.RowLabel); err != nil {
				return fmt.Errorf("insert answer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	return r, nil
}

// AnswersByWave returns every answer row for one wave.
func (s *Store) AnswersByWave(ctx context.Context, waveID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.response_id, a.question_id, a.number_value, a.choice_index, a.choice_indices, a.text_value, a.row_label
		 FROM survey_answers a
		 JOIN survey_responses r ON r.id = a.response_id
		 WHERE r.wave_id = ?`, waveID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		var number sql.NullFloat64
		var choice sql.NullInt64
		var indices sql.NullString
		if err := rows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &number, &choice, &indices, &a.TextValue, &a.RowLabel); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if number.Valid {
			v := number.Float64
			a.NumberValue = &v
		}
		if choice.Valid {
			v := int(choice.Int64)
			a.ChoiceIndex = &v
		}
		if indices.Valid && indices.String != "" {
			if err := json.Unmarshal([]byte(indices.String), &a.ChoiceIndices); err != nil {
				return nil, fmt.Errorf("decode choice indices: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResponseCountByWave counts submissions in a wave.
func (s *Store) ResponseCountByWave(ctx context.Context, waveID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM survey_responses WHERE wave_id = ?`, waveID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
