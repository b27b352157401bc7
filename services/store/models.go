// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import "time"

// User is one identity row. Role is validated by pkg/access at the
// boundary; the store persists it verbatim.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	DisplayName           string     `json:"display_name"`
	Role                  string     `json:"role"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
	LastLoginAt           *time.Time `json:"last_login_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Process is one documented business process. Charter and the four
// ADLI fields are JSON blobs owned by the UI; the store never inspects
// them beyond emptiness checks.
type Process struct {
	ID                  string     `json:"id"`
	OwnerID             string     `json:"owner_id"`
	Name                string     `json:"name"`
	Status              string     `json:"status"`
	Type                string     `json:"process_type"`
	Charter             string     `json:"charter"`
	Approach            string     `json:"approach"`
	Deployment          string     `json:"deployment"`
	Learning            string     `json:"learning"`
	Integration         string     `json:"integration"`
	AsanaProjectID      string     `json:"asana_project_id,omitempty"`
	AsanaSnapshot       string     `json:"asana_snapshot,omitempty"`
	SnapshotRefreshedAt *time.Time `json:"snapshot_refreshed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Metric is a named measurement with a cadence and optional target.
type Metric struct {
	ID          string    `json:"id"`
	ProcessID   string    `json:"process_id"`
	Name        string    `json:"name"`
	Cadence     string    `json:"cadence"`
	Unit        string    `json:"unit"`
	TargetValue *float64  `json:"target_value,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MetricEntry is one recorded value for a metric.
type MetricEntry struct {
	ID        string    `json:"id"`
	MetricID  string    `json:"metric_id"`
	Value     float64   `json:"value"`
	EntryDate time.Time `json:"entry_date"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Task belongs to a process. Origin records whether it was created in
// the hub or imported from the external tool.
type Task struct {
	ID          string     `json:"id"`
	ProcessID   string     `json:"process_id"`
	Title       string     `json:"title"`
	Done        bool       `json:"done"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	Origin      string     `json:"origin"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AuditEntry is one appended audit-log row.
type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Survey is a recurring questionnaire owned by a user.
type Survey struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Question is one typed survey question. Choices and the matrix shape
// are stored as JSON arrays.
type Question struct {
	ID       string   `json:"id"`
	SurveyID string   `json:"survey_id"`
	Prompt   string   `json:"prompt"`
	Type     string   `json:"question_type"`
	Choices  []string `json:"choices,omitempty"`
	Rows     []string `json:"rows,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Position int      `json:"position"`
}

// Template is a portable survey blueprint. Template questions carry no
// ordering and no metric linkage on purpose.
type Template struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Questions   []TemplateQuestion `json:"questions,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TemplateQuestion is one question inside a template.
type TemplateQuestion struct {
	ID         string   `json:"id"`
	TemplateID string   `json:"template_id"`
	Prompt     string   `json:"prompt"`
	Type       string   `json:"question_type"`
	Choices    []string `json:"choices,omitempty"`
	Rows       []string `json:"rows,omitempty"`
	Columns    []string `json:"columns,omitempty"`
}

// Wave is one collection round of a survey.
type Wave struct {
	ID       string     `json:"id"`
	SurveyID string     `json:"survey_id"`
	Label    string     `json:"label"`
	OpenedAt time.Time  `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// Response is one submission within a wave.
type Response struct {
	ID          string    `json:"id"`
	WaveID      string    `json:"wave_id"`
	Respondent  string    `json:"respondent,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Answer is one answer row within a response.
type Answer struct {
	ID            string   `json:"id"`
	ResponseID    string   `json:"response_id"`
	QuestionID    string   `json:"question_id"`
	NumberValue   *float64 `json:"number_value,omitempty"`
	ChoiceIndex   *int     `json:"choice_index,omitempty"`
	ChoiceIndices []int    `json:"choice_indices,omitempty"`
	TextValue     string   `json:"text_value,omitempty"`
	RowLabel      string   `json:"row_label,omitempty"`
}

// Objective is a strategic goal, fed either by a metric's latest value
// or by the share of processes at or above an ADLI threshold.
type Objective struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title"`
	TargetValue   float64   `json:"target_value"`
	SourceType    string    `json:"source_type"`
	MetricID      string    `json:"metric_id,omitempty"`
	ADLIThreshold *float64  `json:"adli_threshold,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BaldrigeMapping links a process to one Baldrige framework question.
// Unique per (process, question) pair.
type BaldrigeMapping struct {
	ID           string    `json:"id"`
	ProcessID    string    `json:"process_id"`
	QuestionCode string    `json:"question_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// AsanaToken is a user's OAuth credential set for the external
// project-management API.
type AsanaToken struct {
	UserID       string     `json:"user_id"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	WorkspaceID  string     `json:"workspace_id,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
