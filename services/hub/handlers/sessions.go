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
	"github.com/niahq/excellence-hub/services/hub/middleware"
	"github.com/niahq/excellence-hub/services/store"
)

// Login resolves the posted email to a user and issues a session
// cookie. Identity itself is established upstream by the SSO proxy;
// this endpoint only mints the hub's own session.
func Login(s *store.Store, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LoginRequest
		if !bindAndValidate(c, &req) {
			return
		}

		user, err := s.UserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			storeError(c, err, "user")
			return
		}

		token, err := s.CreateSession(c.Request.Context(), user.ID)
		if err != nil {
			slog.Error("failed to create session", "user", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}

		c.SetCookie(middleware.SessionCookie, token,
			int(store.SessionTTL/time.Second), "/", "", secureCookies, true)
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// Logout deletes the session row and clears both cookies, ending any
// impersonation along with the session.
func Logout(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
			if err := s.DeleteSession(c.Request.Context(), token); err != nil {
				slog.Warn("failed to delete session", "error", err)
			}
		}
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
		c.SetCookie(middleware.ProxyCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	}
}

// Me returns the effective user plus impersonation state.
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		resp := gin.H{"user": id.User, "impersonating": id.Impersonating()}
		if id.Admin != nil {
			resp["admin"] = gin.H{"id": id.Admin.ID, "display_name": id.Admin.DisplayName}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CompleteOnboarding marks the caller's onboarding as finished. Calling
// it again is a no-op; the original timestamp is kept.
func CompleteOnboarding(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		if err := s.CompleteOnboarding(c.Request.Context(), id.User.ID, time.Now().UTC()); err != nil {
			storeError(c, err, "user")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "onboarding completed"})
	}
}
