// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/hub/observability"
	"github.com/niahq/excellence-hub/services/llm"
	"github.com/niahq/excellence-hub/services/scoring"
	"github.com/niahq/excellence-hub/services/store"
)

// DraftNarrative streams an AI draft of one ADLI narrative field over
// SSE. The model sees the rest of the process documentation as context;
// the draft is never saved automatically.
func DraftNarrative(s *store.Store, client llm.Client, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		var req datatypes.DraftNarrativeRequest
		if !bindAndValidate(c, &req) {
			return
		}

		pctx, err := buildPromptContext(c.Request.Context(), s, p)
		if err != nil {
			storeError(c, err, "process")
			return
		}

		relayStream(c, client, metrics, "narrative",
			llm.NarrativeDraftPrompt(pctx, req.Field), "Drafting narrative...")
	}
}

// charterSuggestion is the parsed model output for a charter draft.
type charterSuggestion struct {
	Purpose      string `json:"purpose"`
	Scope        string `json:"scope"`
	Inputs       string `json:"inputs"`
	Outputs      string `json:"outputs"`
	Stakeholders string `json:"stakeholders"`
}

// SuggestCharter asks the model for a structured charter draft and
// returns it as JSON. Not streamed: the client fills form fields, so a
// partial charter is useless.
func SuggestCharter(s *store.Store, client llm.Client, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		pctx, err := buildPromptContext(c.Request.Context(), s, p)
		if err != nil {
			storeError(c, err, "process")
			return
		}

		start := time.Now()
		raw, err := client.Generate(c.Request.Context(), llm.CharterSuggestionPrompt(pctx), llm.GenerationParams{})
		metrics.ObserveAIStream("charter", time.Since(start).Seconds())
		if err != nil {
			slog.Error("charter generation failed", "process", p.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "model request failed"})
			return
		}

		var suggestion charterSuggestion
		if err := llm.ExtractJSON(raw, &suggestion); err != nil {
			slog.Warn("charter response was not valid JSON", "process", p.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "model returned an unusable response"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"charter": suggestion})
	}
}

// SuggestImprovements streams coaching tied to the process's unmet
// health checklist items.
func SuggestImprovements(s *store.Store, client llm.Client, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		ctx := c.Request.Context()
		now := time.Now().UTC()

		facts, err := processFacts(ctx, s, p, now)
		if err != nil {
			storeError(c, err, "process")
			return
		}
		score := scoring.ScoreProcess(facts, now)
		if len(score.NextActions) == 0 {
			c.JSON(http.StatusOK, gin.H{"status": "nothing to improve", "health": score.Total})
			return
		}
		unmet := make([]string, 0, len(score.NextActions))
		for _, a := range score.NextActions {
			unmet = append(unmet, a.Label)
		}

		pctx, err := buildPromptContext(ctx, s, p)
		if err != nil {
			storeError(c, err, "process")
			return
		}

		relayStream(c, client, metrics, "improvement",
			llm.ImprovementPrompt(pctx, unmet), "Reviewing process health...")
	}
}

// relayStream runs one prompt through the model and relays chunks to
// the client as SSE token events.
func relayStream(c *gin.Context, client llm.Client, metrics *observability.HubMetrics, endpoint, prompt, statusMsg string) {
	SetSSEHeaders(c.Writer)
	writer, err := NewSSEWriter(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	done := metrics.StreamStarted()
	defer done()
	start := time.Now()
	defer func() { metrics.ObserveAIStream(endpoint, time.Since(start).Seconds()) }()

	if err := writer.WriteStatus(statusMsg); err != nil {
		return
	}

	err = client.GenerateStream(c.Request.Context(), prompt, llm.GenerationParams{}, func(chunk string) error {
		return writer.WriteToken(chunk)
	})
	if err != nil {
		slog.Error("model stream failed", "endpoint", endpoint, "error", err)
		_ = writer.WriteError("model request failed")
		return
	}
	_ = writer.WriteDone()
}

// buildPromptContext assembles the model's view of one process.
func buildPromptContext(ctx context.Context, s *store.Store, p store.Process) (llm.ProcessContext, error) {
	metrics, err := s.MetricsByProcess(ctx, p.ID)
	if err != nil {
		return llm.ProcessContext{}, err
	}
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.Name)
	}
	return llm.ProcessContext{
		Name:        p.Name,
		Type:        p.Type,
		Status:      p.Status,
		Charter:     p.Charter,
		Approach:    p.Approach,
		Deployment:  p.Deployment,
		Learning:    p.Learning,
		Integration: p.Integration,
		MetricNames: names,
	}, nil
}
