// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/store"
)

func floatPtr(v float64) *float64 { return &v }

// submitRating posts one rating answer to the public response endpoint.
func submitRating(t *testing.T, s *store.Store, waveID, questionID string, value float64) {
	t.Helper()
	router := gin.New()
	router.POST("/public/waves/:waveId/responses", SubmitSurveyResponse(s))
	w := performRequest(router, "POST", "/public/waves/"+waveID+"/responses", datatypes.SubmitResponseRequest{
		Answers: []datatypes.SubmitAnswer{{QuestionID: questionID, NumberValue: floatPtr(value)}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

// =============================================================================
// Survey Lifecycle Tests
// =============================================================================

func TestCreateSurvey_Success(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")

	router := testRouter(owner, "POST", "/surveys", CreateSurvey(s))
	w := performRequest(router, "POST", "/surveys", datatypes.CreateSurveyRequest{
		Title:       "Quarterly Pulse",
		Description: "How is the quarter going?",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Quarterly Pulse", body["title"])
	assert.Equal(t, owner.ID, body["owner_id"])
}

func TestAddSurveyQuestion_RejectsUnknownType(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	sv, err := s.CreateSurvey(context.Background(), owner.ID, "Pulse", "")
	require.NoError(t, err)

	router := testRouter(owner, "POST", "/surveys/:surveyId/questions", AddSurveyQuestion(s))
	w := performRequest(router, "POST", "/surveys/"+sv.ID+"/questions", datatypes.AddQuestionRequest{
		Prompt: "How happy are you?",
		Type:   "slider",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitSurveyResponse_RejectsClosedWave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	sv, err := s.CreateSurvey(ctx, owner.ID, "Pulse", "")
	require.NoError(t, err)
	q, err := s.AddQuestion(ctx, store.Question{SurveyID: sv.ID, Prompt: "Rate us", Type: "rating"})
	require.NoError(t, err)
	wave, err := s.OpenWave(ctx, sv.ID, "Q1")
	require.NoError(t, err)
	require.NoError(t, s.CloseWave(ctx, wave.ID))

	router := gin.New()
	router.POST("/public/waves/:waveId/responses", SubmitSurveyResponse(s))
	w := performRequest(router, "POST", "/public/waves/"+wave.ID+"/responses", datatypes.SubmitResponseRequest{
		Answers: []datatypes.SubmitAnswer{{QuestionID: q.ID, NumberValue: floatPtr(4)}},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCloseSurveyWave_Twice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	sv, err := s.CreateSurvey(ctx, owner.ID, "Pulse", "")
	require.NoError(t, err)
	wave, err := s.OpenWave(ctx, sv.ID, "Q1")
	require.NoError(t, err)

	router := testRouter(owner, "POST", "/waves/:waveId/close", CloseSurveyWave(s))
	w := performRequest(router, "POST", "/waves/"+wave.ID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "POST", "/waves/"+wave.ID+"/close", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

// =============================================================================
// Wave Results Tests
// =============================================================================

func TestWaveResults_AggregatesRatings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	sv, err := s.CreateSurvey(ctx, owner.ID, "Pulse", "")
	require.NoError(t, err)
	q, err := s.AddQuestion(ctx, store.Question{SurveyID: sv.ID, Prompt: "Rate us", Type: "rating"})
	require.NoError(t, err)
	wave, err := s.OpenWave(ctx, sv.ID, "Q1")
	require.NoError(t, err)

	submitRating(t, s, wave.ID, q.ID, 3)
	submitRating(t, s, wave.ID, q.ID, 5)

	router := testRouter(owner, "GET", "/waves/:waveId/results", WaveResults(s))
	w := performRequest(router, "GET", "/waves/"+wave.ID+"/results", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["response_count"])
	summaries := body["summaries"].([]any)
	require.Len(t, summaries, 1)
	summary := summaries[0].(map[string]any)
	assert.Equal(t, q.ID, summary["question_id"])
	assert.InDelta(t, 4.0, summary["average"].(float64), 0.001)
	_, hasTrend := summary["previous_avg"]
	assert.False(t, hasTrend, "first wave has no trend")
}

func TestWaveResults_AttachesTrendFromPreviousWave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	sv, err := s.CreateSurvey(ctx, owner.ID, "Pulse", "")
	require.NoError(t, err)
	q, err := s.AddQuestion(ctx, store.Question{SurveyID: sv.ID, Prompt: "Rate us", Type: "rating"})
	require.NoError(t, err)

	wave1, err := s.OpenWave(ctx, sv.ID, "Q1")
	require.NoError(t, err)
	submitRating(t, s, wave1.ID, q.ID, 2)
	require.NoError(t, s.CloseWave(ctx, wave1.ID))

	wave2, err := s.OpenWave(ctx, sv.ID, "Q2")
	require.NoError(t, err)
	submitRating(t, s, wave2.ID, q.ID, 4)

	router := testRouter(owner, "GET", "/waves/:waveId/results", WaveResults(s))
	w := performRequest(router, "GET", "/waves/"+wave2.ID+"/results", nil)

	require.Equal(t, http.StatusOK, w.Code)
	summaries := decodeBody(t, w)["summaries"].([]any)
	require.Len(t, summaries, 1)
	summary := summaries[0].(map[string]any)
	assert.InDelta(t, 4.0, summary["average"].(float64), 0.001)
	require.Contains(t, summary, "previous_avg")
	assert.InDelta(t, 2.0, summary["previous_avg"].(float64), 0.001)
}

func TestWaveResults_HiddenFromOtherMembers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	other := seedUser(t, s, "other@example.com", "member")
	sv, err := s.CreateSurvey(ctx, owner.ID, "Pulse", "")
	require.NoError(t, err)
	wave, err := s.OpenWave(ctx, sv.ID, "Q1")
	require.NoError(t, err)

	router := testRouter(other, "GET", "/waves/:waveId/results", WaveResults(s))
	w := performRequest(router, "GET", "/waves/"+wave.ID+"/results", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
