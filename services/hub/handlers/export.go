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
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/scoring"
	"github.com/niahq/excellence-hub/services/store"
)

// ExportProcessesCSV streams the caller's processes with their health
// scores as a CSV attachment.
func ExportProcessesCSV(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		processes, err := s.ProcessesByOwner(ctx, id.User.ID)
		if err != nil {
			storeError(c, err, "process")
			return
		}

		now := time.Now().UTC()
		rows := [][]string{{"name", "type", "status", "health_score", "metric_count", "updated_at"}}
		for _, p := range processes {
			facts, err := processFacts(ctx, s, p, now)
			if err != nil {
				storeError(c, err, "process")
				return
			}
			score := scoring.ScoreProcess(facts, now)
			rows = append(rows, []string{
				p.Name,
				p.Type,
				p.Status,
				strconv.Itoa(score.Total),
				strconv.Itoa(len(facts.Metrics)),
				p.UpdatedAt.Format(time.RFC3339),
			})
		}

		writeCSV(c, fmt.Sprintf("processes-%s.csv", now.Format("2006-01-02")), rows)
	}
}

// ExportMetricEntriesCSV streams every entry of every metric on one
// process as a CSV attachment.
func ExportMetricEntriesCSV(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		rows, err := metricEntryRows(c.Request.Context(), s, p.ID)
		if err != nil {
			storeError(c, err, "metric entries")
			return
		}
		writeCSV(c, fmt.Sprintf("metrics-%s.csv", time.Now().UTC().Format("2006-01-02")), rows)
	}
}

// metricEntryRows builds the CSV rows for a process's metric entries.
// Shared with the CLI export command.
func metricEntryRows(ctx context.Context, s *store.Store, processID string) ([][]string, error) {
	metrics, err := s.MetricsByProcess(ctx, processID)
	if err != nil {
		return nil, err
	}

	rows := [][]string{{"metric", "cadence", "unit", "entry_date", "value", "formatted", "source"}}
	for _, m := range metrics {
		entries, err := s.EntriesByMetric(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			rows = append(rows, []string{
				m.Name,
				m.Cadence,
				m.Unit,
				e.EntryDate.Format("2006-01-02"),
				strconv.FormatFloat(e.Value, 'f', -1, 64),
				scoring.FormatValue(e.Value, m.Unit),
				e.Source,
			})
		}
	}
	return rows, nil
}

// writeCSV writes rows as an RFC 4180 attachment. encoding/csv handles
// quoting for embedded commas, quotes, and newlines.
func writeCSV(c *gin.Context, filename string, rows [][]string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			// Headers are already out; nothing sensible to send.
			return
		}
	}
	w.Flush()
}
