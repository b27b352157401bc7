// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/scoring"
	"github.com/niahq/excellence-hub/services/store"
)

// entryDateFormat is the wire format for metric entry dates.
const entryDateFormat = "2006-01-02"

func CreateMetric(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		var req datatypes.CreateMetricRequest
		if !bindAndValidate(c, &req) {
			return
		}

		cadence := req.Cadence
		if cadence == "" {
			cadence = string(scoring.CadenceMonthly)
		}
		unit := req.Unit
		if unit == "" {
			unit = "number"
		}
		m, err := s.CreateMetric(c.Request.Context(), p.ID, req.Name, cadence, unit, req.Target)
		if err != nil {
			storeError(c, err, "metric")
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

// metricView is one metric with its review status and formatted latest
// value attached.
type metricView struct {
	store.Metric
	ReviewStatus    scoring.ReviewState `json:"review_status"`
	LatestValue     *float64            `json:"latest_value,omitempty"`
	LatestFormatted string              `json:"latest_formatted,omitempty"`
	LastEntryDate   *time.Time          `json:"last_entry_date,omitempty"`
}

func ListMetrics(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}

		metrics, err := s.MetricsByProcess(c.Request.Context(), p.ID)
		if err != nil {
			storeError(c, err, "metric")
			return
		}

		now := time.Now().UTC()
		views := make([]metricView, 0, len(metrics))
		for _, m := range metrics {
			v := metricView{Metric: m}
			entries, err := s.EntriesByMetric(c.Request.Context(), m.ID)
			if err != nil {
				storeError(c, err, "metric entries")
				return
			}
			if len(entries) > 0 {
				// Entries come back newest first.
				latest := entries[0]
				v.LatestValue = &latest.Value
				v.LatestFormatted = scoring.FormatValue(latest.Value, m.Unit)
				v.LastEntryDate = &latest.EntryDate
			}
			v.ReviewStatus = scoring.ReviewStatus(scoring.Cadence(m.Cadence), v.LastEntryDate, now)
			views = append(views, v)
		}
		c.JSON(http.StatusOK, gin.H{"metrics": views})
	}
}

func AddMetricEntry(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := ownedMetric(c, s, c.Param("metricId"))
		if !ok {
			return
		}
		var req datatypes.AddEntryRequest
		if !bindAndValidate(c, &req) {
			return
		}

		date, err := time.Parse(entryDateFormat, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry date"})
			return
		}

		entry, err := s.AddEntry(c.Request.Context(), m.ID, req.Value, date, "manual")
		if err != nil {
			storeError(c, err, "metric entry")
			return
		}
		slog.Info("metric entry recorded", "metric", m.ID, "date", req.Date)
		c.JSON(http.StatusCreated, entry)
	}
}

func ListMetricEntries(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := ownedMetric(c, s, c.Param("metricId"))
		if !ok {
			return
		}
		entries, err := s.EntriesByMetric(c.Request.Context(), m.ID)
		if err != nil {
			storeError(c, err, "metric entries")
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// ownedMetric loads a metric and checks ownership through its process.
func ownedMetric(c *gin.Context, s *store.Store, metricID string) (store.Metric, bool) {
	m, err := s.MetricByID(c.Request.Context(), metricID)
	if err != nil {
		storeError(c, err, "metric")
		return store.Metric{}, false
	}
	if _, ok := ownedProcess(c, s, m.ProcessID); !ok {
		return store.Metric{}, false
	}
	return m, true
}
