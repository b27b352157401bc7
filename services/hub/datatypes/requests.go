// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides request and response types for the hub's
// HTTP API, with validation via go-playground/validator.
package datatypes

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxNarrativeBytes caps charter and ADLI narrative blobs. Byte
	// length, not rune count, to bound memory.
	MaxNarrativeBytes = 64 * 1024

	// MaxPromptContextBytes caps free-text sent into AI endpoints.
	MaxPromptContextBytes = 32 * 1024

	// MaxAnswersPerResponse caps one survey submission.
	MaxAnswersPerResponse = 200

	// MaxBulkSyncItems caps a bulk project sync request.
	MaxBulkSyncItems = 50
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("narrativebytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxNarrativeBytes
	})
	_ = validate.RegisterValidation("promptbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPromptContextBytes
	})
}

// Validate runs struct validation and wraps the first failure in a
// client-friendly error.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("field %s failed %s validation", f.Field(), f.Tag())
		}
		return err
	}
	return nil
}

// ===================== Sessions =====================

type LoginRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

// ===================== Processes =====================

type CreateProcessRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Type string `json:"process_type" validate:"omitempty,oneof=key support"`
}

type UpdateProcessRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft active retired"`
	Type        *string `json:"process_type" validate:"omitempty,oneof=key support"`
	Charter     *string `json:"charter" validate:"omitempty,narrativebytes"`
	Approach    *string `json:"approach" validate:"omitempty,narrativebytes"`
	Deployment  *string `json:"deployment" validate:"omitempty,narrativebytes"`
	Learning    *string `json:"learning" validate:"omitempty,narrativebytes"`
	Integration *string `json:"integration" validate:"omitempty,narrativebytes"`
}

// ===================== Metrics =====================

type CreateMetricRequest struct {
	Name    string   `json:"name" validate:"required,max=200"`
	Cadence string   `json:"cadence" validate:"omitempty,oneof=weekly monthly quarterly annual"`
	Unit    string   `json:"unit" validate:"omitempty,max=40"`
	Target  *float64 `json:"target_value"`
}

type AddEntryRequest struct {
	// Value has no required tag: zero is a legal metric value.
	Value float64 `json:"value"`
	Date  string  `json:"entry_date" validate:"required,datetime=2006-01-02"`
}

// ===================== Tasks =====================

type CreateTaskRequest struct {
	Title      string `json:"title" validate:"required,max=300"`
	DueDate    string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Priority   string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID string `json:"assignee_id" validate:"omitempty,uuid4"`
}

type AddDependencyRequest struct {
	DependsOnID string `json:"depends_on_id" validate:"required"`
}

// ===================== Surveys =====================

type CreateSurveyRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	TemplateID  string `json:"template_id" validate:"omitempty,uuid4"`
}

type AddQuestionRequest struct {
	Prompt   string   `json:"prompt" validate:"required,max=1000"`
	Type     string   `json:"question_type" validate:"required,oneof=rating yes_no nps multiple_choice checkbox open_text matrix"`
	Choices  []string `json:"choices" validate:"omitempty,max=20,dive,max=200"`
	Rows     []string `json:"rows" validate:"omitempty,max=20,dive,max=200"`
	Columns  []string `json:"columns" validate:"omitempty,max=20,dive,max=200"`
	Position int      `json:"position" validate:"gte=0"`
}

type OpenWaveRequest struct {
	Label string `json:"label" validate:"required,max=100"`
}

type SubmitAnswer struct {
	QuestionID    string   `json:"question_id" validate:"required"`
	NumberValue   *float64 `json:"number_value"`
	ChoiceIndex   *int     `json:"choice_index"`
	ChoiceIndices []int    `json:"choice_indices" validate:"omitempty,max=20"`
	TextValue     string   `json:"text_value" validate:"omitempty,promptbytes"`
	RowLabel      string   `json:"row_label" validate:"omitempty,max=200"`
}

type SubmitResponseRequest struct {
	Respondent string         `json:"respondent" validate:"omitempty,max=200"`
	Answers    []SubmitAnswer `json:"answers" validate:"required,min=1,max=200,dive"`
}

// ===================== Objectives =====================

type CreateObjectiveRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	TargetValue   float64  `json:"target_value"`
	SourceType    string   `json:"source_type" validate:"required,oneof=metric adli"`
	MetricID      string   `json:"metric_id" validate:"omitempty,uuid4"`
	ADLIThreshold *float64 `json:"adli_threshold" validate:"omitempty,gte=0,lte=100"`
}

// ===================== Baldrige =====================

type MapQuestionRequest struct {
	QuestionCode string `json:"question_code" validate:"required,max=20"`
}

// ===================== Admin =====================

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=member admin super_admin"`
}

type ImpersonateRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required,uuid4"`
}

// ===================== AI =====================

type DraftNarrativeRequest struct {
	Field string `json:"field" validate:"required,oneof=approach deployment learning integration"`
}

// ===================== Asana =====================

type ImportProjectRequest struct {
	ProjectGID    string `json:"project_gid" validate:"required,max=40"`
	WorkspaceGID  string `json:"workspace_gid" validate:"required,max=40"`
	ProcessName   string `json:"process_name" validate:"omitempty,max=200"`
	ProcessTypeID string `json:"process_type" validate:"omitempty,oneof=key support"`
}

type BulkSyncRequest struct {
	ProcessIDs []string `json:"process_ids" validate:"required,min=1,max=50,dive,uuid4"`
}
