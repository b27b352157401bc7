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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
)

// =============================================================================
// Scorecard Tests
// =============================================================================

func TestScorecard_EmptyAccount(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")

	router := testRouter(owner, "GET", "/scorecard", Scorecard(s, nil))
	w := performRequest(router, "GET", "/scorecard", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Empty(t, body["processes"])
	assert.Equal(t, float64(0), body["account_health"])
	compliance := body["compliance"].(map[string]any)
	assert.Equal(t, false, compliance["is_compliant"])
	assert.NotEmpty(t, compliance["reasons"])
}

func TestScorecard_ScoresEveryProcess(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	for _, name := range []string{"Payroll", "Hiring", "Billing", "Support", "Sales", "Legal"} {
		seedProcess(t, s, owner.ID, name)
	}

	router := testRouter(owner, "GET", "/scorecard", Scorecard(s, nil))
	w := performRequest(router, "GET", "/scorecard", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	processes := body["processes"].([]any)
	require.Len(t, processes, 6)
	for _, entry := range processes {
		ps := entry.(map[string]any)
		assert.NotEmpty(t, ps["process_id"])
		require.Contains(t, ps, "health")
		health := ps["health"].(map[string]any)
		assert.Contains(t, health, "total")
		assert.Contains(t, health, "dimensions")
	}
}

func TestScorecard_ScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	other := seedUser(t, s, "other@example.com", "member")
	seedProcess(t, s, other.ID, "Theirs")

	router := testRouter(owner, "GET", "/scorecard", Scorecard(s, nil))
	w := performRequest(router, "GET", "/scorecard", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["processes"])
}

// =============================================================================
// Baldrige Coverage Tests
// =============================================================================

func TestMapBaldrigeQuestion_RejectsUnknownCode(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	router := testRouter(owner, "POST", "/processes/:processId/mappings", MapBaldrigeQuestion(s))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/mappings",
		datatypes.MapQuestionRequest{QuestionCode: "9.9"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBaldrigeCoverage_CountsOwnedProcessesOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	other := seedUser(t, s, "other@example.com", "member")
	mine := seedProcess(t, s, owner.ID, "Payroll")
	theirs := seedProcess(t, s, other.ID, "Theirs")

	_, err := s.MapProcess(ctx, mine.ID, "1.1")
	require.NoError(t, err)
	_, err = s.MapProcess(ctx, theirs.ID, "1.1")
	require.NoError(t, err)
	_, err = s.MapProcess(ctx, theirs.ID, "2.1")
	require.NoError(t, err)

	router := testRouter(owner, "GET", "/baldrige/coverage", BaldrigeCoverage(s))
	w := performRequest(router, "GET", "/baldrige/coverage", nil)

	require.Equal(t, http.StatusOK, w.Code)
	coverage := decodeBody(t, w)["coverage"].([]any)
	require.Len(t, coverage, 12)

	byCode := map[string]map[string]any{}
	for _, row := range coverage {
		r := row.(map[string]any)
		byCode[r["question_code"].(string)] = r
	}
	assert.Equal(t, float64(1), byCode["1.1"]["process_count"])
	assert.Equal(t, true, byCode["1.1"]["covered"])
	// The other member's mapping does not count toward my coverage.
	assert.Equal(t, float64(0), byCode["2.1"]["process_count"])
	assert.Equal(t, false, byCode["2.1"]["covered"])
}

// =============================================================================
// Objective Progress Tests
// =============================================================================

func TestListObjectives_MetricProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	m, err := s.CreateMetric(ctx, p.ID, "NPS", "quarterly", "number", nil)
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, m.ID, 40, mustDate(t, "2026-06-01"), "manual")
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, m.ID, 45, mustDate(t, "2026-07-01"), "manual")
	require.NoError(t, err)

	createRouter := testRouter(owner, "POST", "/objectives", CreateObjective(s))
	w := performRequest(createRouter, "POST", "/objectives", datatypes.CreateObjectiveRequest{
		Title:       "NPS to 60",
		TargetValue: 60,
		SourceType:  "metric",
		MetricID:    m.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	listRouter := testRouter(owner, "GET", "/objectives", ListObjectives(s))
	w = performRequest(listRouter, "GET", "/objectives", nil)

	require.Equal(t, http.StatusOK, w.Code)
	objectives := decodeBody(t, w)["objectives"].([]any)
	require.Len(t, objectives, 1)
	o := objectives[0].(map[string]any)
	// Progress reads the newest entry, not the first.
	assert.InDelta(t, 45.0, o["current_value"].(float64), 0.001)
	assert.InDelta(t, 75.0, o["progress_percent"].(float64), 0.001)
}

func TestListObjectives_ProgressClampedAt100(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	m, err := s.CreateMetric(ctx, p.ID, "NPS", "quarterly", "number", nil)
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, m.ID, 80, mustDate(t, "2026-07-01"), "manual")
	require.NoError(t, err)

	createRouter := testRouter(owner, "POST", "/objectives", CreateObjective(s))
	w := performRequest(createRouter, "POST", "/objectives", datatypes.CreateObjectiveRequest{
		Title:       "NPS to 60",
		TargetValue: 60,
		SourceType:  "metric",
		MetricID:    m.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	listRouter := testRouter(owner, "GET", "/objectives", ListObjectives(s))
	w = performRequest(listRouter, "GET", "/objectives", nil)

	require.Equal(t, http.StatusOK, w.Code)
	objectives := decodeBody(t, w)["objectives"].([]any)
	require.Len(t, objectives, 1)
	assert.InDelta(t, 100.0, objectives[0].(map[string]any)["progress_percent"].(float64), 0.001)
}
