// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/store"
)

// baldrigeQuestionCodes is the fixed set of framework questions a
// process can map to, grouped by category prefix (1 leadership through
// 6 operations).
var baldrigeQuestionCodes = []string{
	"1.1", "1.2",
	"2.1", "2.2",
	"3.1", "3.2",
	"4.1", "4.2",
	"5.1", "5.2",
	"6.1", "6.2",
}

func MapBaldrigeQuestion(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		var req datatypes.MapQuestionRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if !validQuestionCode(req.QuestionCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown question code"})
			return
		}

		m, err := s.MapProcess(c.Request.Context(), p.ID, req.QuestionCode)
		if err != nil {
			storeError(c, err, "mapping")
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

func UnmapBaldrigeQuestion(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		if err := s.UnmapProcess(c.Request.Context(), p.ID, c.Param("questionCode")); err != nil {
			storeError(c, err, "mapping")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "removed"})
	}
}

func ListBaldrigeMappings(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		mappings, err := s.MappingsByProcess(c.Request.Context(), p.ID)
		if err != nil {
			storeError(c, err, "mapping")
			return
		}
		c.JSON(http.StatusOK, gin.H{"mappings": mappings})
	}
}

// questionCoverage is one row of the coverage report.
type questionCoverage struct {
	QuestionCode string `json:"question_code"`
	ProcessCount int    `json:"process_count"`
	Covered      bool   `json:"covered"`
}

// BaldrigeCoverage reports, for every framework question, how many of
// the caller's processes map to it. Uncovered questions are the gaps an
// assessor would flag first.
func BaldrigeCoverage(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		owned := map[string]bool{}
		processes, err := s.ProcessesByOwner(ctx, id.User.ID)
		if err != nil {
			storeError(c, err, "process")
			return
		}
		for _, p := range processes {
			owned[p.ID] = true
		}

		report := make([]questionCoverage, 0, len(baldrigeQuestionCodes))
		for _, code := range baldrigeQuestionCodes {
			processIDs, err := s.ProcessesByQuestion(ctx, code)
			if err != nil {
				storeError(c, err, "mapping")
				return
			}
			count := 0
			for _, pid := range processIDs {
				if owned[pid] {
					count++
				}
			}
			report = append(report, questionCoverage{
				QuestionCode: code,
				ProcessCount: count,
				Covered:      count > 0,
			})
		}
		c.JSON(http.StatusOK, gin.H{"coverage": report})
	}
}

func validQuestionCode(code string) bool {
	for _, c := range baldrigeQuestionCodes {
		if c == code {
			return true
		}
	}
	return false
}
