// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
)

// =============================================================================
// Narrative Draft Streaming Tests
// =============================================================================

func TestDraftNarrative_StreamsTokens(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	mockLLM := &MockLLMClient{StreamChunks: []string{"We run ", "payroll ", "monthly."}}
	router := testRouter(owner, "POST", "/processes/:processId/ai/narrative", DraftNarrative(s, mockLLM, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/narrative",
		datatypes.DraftNarrativeRequest{Field: "approach"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: status")
	assert.Equal(t, 3, strings.Count(body, "event: token"))
	assert.Contains(t, body, "payroll ")
	assert.Contains(t, body, "event: done")
	assert.NotContains(t, body, "event: error")
}

func TestDraftNarrative_StreamFailureEmitsErrorEvent(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	mockLLM := &MockLLMClient{StreamErr: errors.New("upstream timeout")}
	router := testRouter(owner, "POST", "/processes/:processId/ai/narrative", DraftNarrative(s, mockLLM, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/narrative",
		datatypes.DraftNarrativeRequest{Field: "learning"})

	body := w.Body.String()
	assert.Contains(t, body, "event: error")
	// The client sees a generic message, not the upstream error.
	assert.Contains(t, body, "model request failed")
	assert.NotContains(t, body, "upstream timeout")
	assert.NotContains(t, body, "event: done")
}

func TestDraftNarrative_RejectsUnknownField(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	router := testRouter(owner, "POST", "/processes/:processId/ai/narrative", DraftNarrative(s, &MockLLMClient{}, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/narrative",
		datatypes.DraftNarrativeRequest{Field: "charter"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Charter Suggestion Tests
// =============================================================================

func TestSuggestCharter_ParsesModelJSON(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	mockLLM := &MockLLMClient{
		GenerateResponse: "```json\n{\"purpose\":\"pay people on time\",\"scope\":\"all staff\"}\n```",
	}
	router := testRouter(owner, "POST", "/processes/:processId/ai/charter", SuggestCharter(s, mockLLM, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/charter", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	charter := body["charter"].(map[string]any)
	assert.Equal(t, "pay people on time", charter["purpose"])
	assert.Equal(t, "all staff", charter["scope"])
}

func TestSuggestCharter_UnusableModelOutput(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	mockLLM := &MockLLMClient{GenerateResponse: "I cannot help with that."}
	router := testRouter(owner, "POST", "/processes/:processId/ai/charter", SuggestCharter(s, mockLLM, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/charter", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSuggestCharter_ModelFailure(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	mockLLM := &MockLLMClient{GenerateErr: errors.New("connection refused")}
	router := testRouter(owner, "POST", "/processes/:processId/ai/charter", SuggestCharter(s, mockLLM, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/charter", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// =============================================================================
// Improvement Coaching Tests
// =============================================================================

func TestSuggestImprovements_StreamsForIncompleteProcess(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	mockLLM := &MockLLMClient{StreamChunks: []string{"Start by ", "documenting the approach."}}
	router := testRouter(owner, "POST", "/processes/:processId/ai/improvements", SuggestImprovements(s, mockLLM, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/improvements", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: token")
	assert.Contains(t, body, "event: done")
}

func TestAIEndpoints_HiddenFromOtherMembers(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	other := seedUser(t, s, "other@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	router := testRouter(other, "POST", "/processes/:processId/ai/charter", SuggestCharter(s, &MockLLMClient{}, nil))
	w := performRequest(router, "POST", "/processes/"+p.ID+"/ai/charter", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
