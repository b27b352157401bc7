// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CSV Export Tests
// =============================================================================

func TestExportProcessesCSV(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	seedProcess(t, s, owner.ID, "Payroll")
	seedProcess(t, s, owner.ID, "Hiring, Onboarding") // comma forces quoting

	router := testRouter(owner, "GET", "/export/processes.csv", ExportProcessesCSV(s))
	w := performRequest(router, "GET", "/export/processes.csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"name", "type", "status", "health_score", "metric_count", "updated_at"}, records[0])

	names := []string{records[1][0], records[2][0]}
	assert.Contains(t, names, "Hiring, Onboarding")
}

func TestExportProcessesCSV_EmptyAccount(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")

	router := testRouter(owner, "GET", "/export/processes.csv", ExportProcessesCSV(s))
	w := performRequest(router, "GET", "/export/processes.csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestExportMetricEntriesCSV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")
	m, err := s.CreateMetric(ctx, p.ID, "On-time runs", "monthly", "percent", nil)
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, m.ID, 97.5, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), "manual")
	require.NoError(t, err)

	router := testRouter(owner, "GET", "/processes/:processId/export/metrics.csv", ExportMetricEntriesCSV(s))
	w := performRequest(router, "GET", "/processes/"+p.ID+"/export/metrics.csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"metric", "cadence", "unit", "entry_date", "value", "formatted", "source"}, records[0])
	assert.Equal(t, "On-time runs", records[1][0])
	assert.Equal(t, "2026-07-01", records[1][3])
	assert.Equal(t, "97.5", records[1][4])
	assert.Equal(t, "97.5%", records[1][5])
}

func TestExportMetricEntriesCSV_OtherMembersProcess(t *testing.T) {
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com", "member")
	other := seedUser(t, s, "other@example.com", "member")
	p := seedProcess(t, s, owner.ID, "Payroll")

	router := testRouter(other, "GET", "/processes/:processId/export/metrics.csv", ExportMetricEntriesCSV(s))
	w := performRequest(router, "GET", "/processes/"+p.ID+"/export/metrics.csv", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
