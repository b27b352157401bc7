// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the hub's HTTP API. Every handler is a
// closure over its dependencies returning a gin.HandlerFunc; routing
// and middleware live in the routes package.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/hub/middleware"
	"github.com/niahq/excellence-hub/services/store"
)

// bindAndValidate decodes the JSON body into req and runs struct
// validation, writing a 400 response on failure. Returns false when the
// handler should stop.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := datatypes.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// currentIdentity fetches the identity that the auth middleware stored.
// Writes a 401 and returns false when it is missing, which only happens
// if a route skipped the middleware.
func currentIdentity(c *gin.Context) (middleware.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return middleware.Identity{}, false
	}
	return id, true
}

// storeError maps a store failure onto the right status code. what
// names the entity for the 404 message.
func storeError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	default:
		slog.Error("store operation failed", "entity", what, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ownedProcess loads a process and enforces that the caller owns it.
// Admins may read and modify any process. Writes the error response and
// returns false on failure.
func ownedProcess(c *gin.Context, s *store.Store, processID string) (store.Process, bool) {
	id, ok := currentIdentity(c)
	if !ok {
		return store.Process{}, false
	}
	p, err := s.ProcessByID(c.Request.Context(), processID)
	if err != nil {
		storeError(c, err, "process")
		return store.Process{}, false
	}
	if p.OwnerID != id.User.ID && !id.Role().IsAdmin() {
		c.JSON(http.StatusNotFound, gin.H{"error": "process not found"})
		return store.Process{}, false
	}
	return p, true
}

// ownedSurvey is ownedProcess for surveys.
func ownedSurvey(c *gin.Context, s *store.Store, surveyID string) (store.Survey, bool) {
	id, ok := currentIdentity(c)
	if !ok {
		return store.Survey{}, false
	}
	sv, err := s.SurveyByID(c.Request.Context(), surveyID)
	if err != nil {
		storeError(c, err, "survey")
		return store.Survey{}, false
	}
	if sv.OwnerID != id.User.ID && !id.Role().IsAdmin() {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return store.Survey{}, false
	}
	return sv, true
}
