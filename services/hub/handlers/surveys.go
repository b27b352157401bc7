// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/store"
	"github.com/niahq/excellence-hub/services/surveystats"
)

// CreateSurvey creates a blank survey, or instantiates a template when
// the request names one. Template questions are copied in order.
func CreateSurvey(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		var req datatypes.CreateSurveyRequest
		if !bindAndValidate(c, &req) {
			return
		}

		var (
			sv  store.Survey
			err error
		)
		if req.TemplateID != "" {
			sv, err = s.InstantiateTemplate(c.Request.Context(), req.TemplateID, id.User.ID, req.Title)
		} else {
			sv, err = s.CreateSurvey(c.Request.Context(), id.User.ID, req.Title, req.Description)
		}
		if err != nil {
			storeError(c, err, "survey")
			return
		}
		slog.Info("survey created", "survey", sv.ID, "owner", id.User.ID, "from_template", req.TemplateID != "")
		c.JSON(http.StatusCreated, sv)
	}
}

func ListSurveys(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		surveys, err := s.SurveysByOwner(c.Request.Context(), id.User.ID)
		if err != nil {
			storeError(c, err, "survey")
			return
		}
		c.JSON(http.StatusOK, gin.H{"surveys": surveys})
	}
}

func AddSurveyQuestion(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sv, ok := ownedSurvey(c, s, c.Param("surveyId"))
		if !ok {
			return
		}
		var req datatypes.AddQuestionRequest
		if !bindAndValidate(c, &req) {
			return
		}

		q, err := s.AddQuestion(c.Request.Context(), store.Question{
			SurveyID: sv.ID,
			Prompt:   req.Prompt,
			Type:     req.Type,
			Choices:  req.Choices,
			Rows:     req.Rows,
			Columns:  req.Columns,
			Position: req.Position,
		})
		if err != nil {
			storeError(c, err, "question")
			return
		}
		c.JSON(http.StatusCreated, q)
	}
}

func ListSurveyQuestions(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sv, ok := ownedSurvey(c, s, c.Param("surveyId"))
		if !ok {
			return
		}
		questions, err := s.QuestionsBySurvey(c.Request.Context(), sv.ID)
		if err != nil {
			storeError(c, err, "question")
			return
		}
		c.JSON(http.StatusOK, gin.H{"questions": questions})
	}
}

func OpenSurveyWave(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sv, ok := ownedSurvey(c, s, c.Param("surveyId"))
		if !ok {
			return
		}
		var req datatypes.OpenWaveRequest
		if !bindAndValidate(c, &req) {
			return
		}
		w, err := s.OpenWave(c.Request.Context(), sv.ID, req.Label)
		if err != nil {
			storeError(c, err, "wave")
			return
		}
		c.JSON(http.StatusCreated, w)
	}
}

func ListSurveyWaves(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sv, ok := ownedSurvey(c, s, c.Param("surveyId"))
		if !ok {
			return
		}
		waves, err := s.WavesBySurvey(c.Request.Context(), sv.ID)
		if err != nil {
			storeError(c, err, "wave")
			return
		}
		c.JSON(http.StatusOK, gin.H{"waves": waves})
	}
}

func CloseSurveyWave(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := ownedWave(c, s, c.Param("waveId"))
		if !ok {
			return
		}
		if err := s.CloseWave(c.Request.Context(), w.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusConflict, gin.H{"error": "wave is already closed"})
				return
			}
			storeError(c, err, "wave")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "closed"})
	}
}

// SubmitSurveyResponse records one submission. Responses are accepted
// into open waves only; this endpoint is the one survey route that does
// not require ownership, since respondents are not hub users.
func SubmitSurveyResponse(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := s.WaveByID(c.Request.Context(), c.Param("waveId"))
		if err != nil {
			storeError(c, err, "wave")
			return
		}
		if w.ClosedAt != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "wave is closed"})
			return
		}

		var req datatypes.SubmitResponseRequest
		if !bindAndValidate(c, &req) {
			return
		}

		answers := make([]store.Answer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, store.Answer{
				QuestionID:    a.QuestionID,
				NumberValue:   a.NumberValue,
				ChoiceIndex:   a.ChoiceIndex,
				ChoiceIndices: a.ChoiceIndices,
				TextValue:     a.TextValue,
				RowLabel:      a.RowLabel,
			})
		}

		resp, err := s.SubmitResponse(c.Request.Context(), w.ID, req.Respondent, answers)
		if err != nil {
			storeError(c, err, "response")
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// WaveResults aggregates one wave's answers into per-question
// summaries, with trend deltas against the previous wave when one
// exists.
func WaveResults(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := ownedWave(c, s, c.Param("waveId"))
		if !ok {
			return
		}
		ctx := c.Request.Context()

		questions, err := s.QuestionsBySurvey(ctx, w.SurveyID)
		if err != nil {
			storeError(c, err, "question")
			return
		}

		summaries, err := waveSummaries(ctx, s, questions, w.ID)
		if err != nil {
			storeError(c, err, "answers")
			return
		}

		prev, err := s.PreviousWave(ctx, w.ID)
		switch {
		case err == nil:
			prevSummaries, err := waveSummaries(ctx, s, questions, prev.ID)
			if err != nil {
				storeError(c, err, "answers")
				return
			}
			summaries = surveystats.AttachTrend(summaries, prevSummaries)
		case !errors.Is(err, store.ErrNotFound):
			storeError(c, err, "wave")
			return
		}

		count, err := s.ResponseCountByWave(ctx, w.ID)
		if err != nil {
			storeError(c, err, "responses")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"wave":           w,
			"response_count": count,
			"summaries":      summaries,
		})
	}
}

// waveSummaries loads one wave's answers and folds them.
func waveSummaries(ctx context.Context, s *store.Store, questions []store.Question, waveID string) ([]surveystats.Summary, error) {
	answers, err := s.AnswersByWave(ctx, waveID)
	if err != nil {
		return nil, err
	}

	qs := make([]surveystats.Question, 0, len(questions))
	for _, q := range questions {
		qs = append(qs, surveystats.Question{
			ID:      q.ID,
			Type:    surveystats.QuestionType(q.Type),
			Choices: q.Choices,
			Rows:    q.Rows,
			Columns: q.Columns,
		})
	}
	as := make([]surveystats.Answer, 0, len(answers))
	for _, a := range answers {
		as = append(as, surveystats.Answer{
			QuestionID: a.QuestionID,
			ResponseID: a.ResponseID,
			Number:     a.NumberValue,
			Choice:     a.ChoiceIndex,
			Choices:    a.ChoiceIndices,
			Text:       a.TextValue,
			Row:        a.RowLabel,
		})
	}
	return surveystats.Aggregate(qs, as), nil
}

// ownedWave loads a wave and checks ownership through its survey.
func ownedWave(c *gin.Context, s *store.Store, waveID string) (store.Wave, bool) {
	w, err := s.WaveByID(c.Request.Context(), waveID)
	if err != nil {
		storeError(c, err, "wave")
		return store.Wave{}, false
	}
	if _, ok := ownedSurvey(c, s, w.SurveyID); !ok {
		return store.Wave{}, false
	}
	return w, true
}
