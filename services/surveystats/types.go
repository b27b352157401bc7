// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package surveystats reduces raw survey answer rows into per-question
// summaries. Pure data reduction; the store fetches, this package
// folds.
package surveystats

// QuestionType is the declared type of a survey question.
type QuestionType string

const (
	TypeRating         QuestionType = "rating"
	TypeYesNo          QuestionType = "yes_no"
	TypeNPS            QuestionType = "nps"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeCheckbox       QuestionType = "checkbox"
	TypeOpenText       QuestionType = "open_text"
	TypeMatrix         QuestionType = "matrix"
)

// Question carries the declared shape of one question. Choices apply
// to multiple_choice and checkbox; Rows and Columns to matrix.
type Question struct {
	ID      string
	Type    QuestionType
	Choices []string
	Rows    []string
	Columns []string
}

// Answer is one raw answer row for a wave. Which fields are set depends
// on the question type:
//
//   - rating, nps: Number holds the value
//   - yes_no: Number holds 1 or 0
//   - multiple_choice: Choice holds the offered index, or Text holds a
//     free-text "other" answer
//   - checkbox: Choices holds the selected indices
//   - open_text: Text holds the response
//   - matrix: one row per (response, matrix row); Row names the matrix
//     row, Number holds the value
type Answer struct {
	QuestionID string
	ResponseID string
	Number     *float64
	Choice     *int
	Choices    []int
	Text       string
	Row        string
}

// ChoiceCount is the tally for one offered choice.
type ChoiceCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MatrixRowSummary is the per-row reduction of a matrix question.
type MatrixRowSummary struct {
	Row          string      `json:"row"`
	Count        int         `json:"count"`
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
	PreviousAvg  *float64    `json:"previous_avg,omitempty"`
}

// NPSSegments is the promoter/passive/detractor split of an NPS
// question.
type NPSSegments struct {
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
}

// Summary is the type-specific reduction of one question's answers.
// Only the fields meaningful for the question's type are populated.
type Summary struct {
	QuestionID string       `json:"question_id"`
	Type       QuestionType `json:"type"`
	Count      int          `json:"count"`

	// rating, yes_no (share of yes), nps (score), matrix (mean of row
	// means).
	Average     *float64 `json:"average,omitempty"`
	PreviousAvg *float64 `json:"previous_avg,omitempty"`

	// rating (rounded integer buckets) and nps (0..10).
	Histogram map[int]int `json:"histogram,omitempty"`

	// nps only.
	NPSScore *int         `json:"nps_score,omitempty"`
	Segments *NPSSegments `json:"segments,omitempty"`

	// multiple_choice and checkbox.
	ChoiceCounts []ChoiceCount `json:"choice_counts,omitempty"`
	OtherCount   int           `json:"other_count,omitempty"`

	// checkbox only: average selections per respondent.
	AvgSelections float64 `json:"avg_selections,omitempty"`

	// open_text only.
	Texts []string `json:"texts,omitempty"`

	// matrix only.
	Rows []MatrixRowSummary `json:"rows,omitempty"`

	// matrix only: per-column distribution across all rows.
	ColumnDistribution map[int]int `json:"column_distribution,omitempty"`
}
