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
	"github.com/niahq/excellence-hub/services/hub/middleware"
)

// =============================================================================
// Login Tests
// =============================================================================

func TestLogin_SetsSessionCookie(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "owner@example.com", "member")

	router := gin.New()
	router.POST("/auth/login", Login(s, false))
	w := performRequest(router, "POST", "/auth/login", datatypes.LoginRequest{Email: "owner@example.com"})

	require.Equal(t, http.StatusOK, w.Code)

	var token string
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookie {
			token = cookie.Value
			assert.True(t, cookie.HttpOnly)
		}
	}
	require.NotEmpty(t, token)

	got, err := s.SessionUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s := newTestStore(t)

	router := gin.New()
	router.POST("/auth/login", Login(s, false))
	w := performRequest(router, "POST", "/auth/login", datatypes.LoginRequest{Email: "nobody@example.com"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogin_RejectsMalformedEmail(t *testing.T) {
	s := newTestStore(t)

	router := gin.New()
	router.POST("/auth/login", Login(s, false))
	w := performRequest(router, "POST", "/auth/login", datatypes.LoginRequest{Email: "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe_ReportsImpersonation(t *testing.T) {
	s := newTestStore(t)
	super := seedUser(t, s, "super@example.com", "super_admin")
	member := seedUser(t, s, "member@example.com", "member")

	router := gin.New()
	router.GET("/me", func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{User: member, Admin: &super})
		c.Next()
	}, Me())
	w := performRequest(router, "GET", "/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["impersonating"])
	assert.Equal(t, member.ID, body["user"].(map[string]any)["id"])
	assert.Equal(t, super.ID, body["admin"].(map[string]any)["id"])
}

func TestCompleteOnboarding_Idempotent(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "owner@example.com", "member")

	router := testRouter(u, "POST", "/onboarding/complete", CompleteOnboarding(s))
	w := performRequest(router, "POST", "/onboarding/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	first, err := s.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, first.OnboardingCompletedAt)

	w = performRequest(router, "POST", "/onboarding/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	second, err := s.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.OnboardingCompletedAt, second.OnboardingCompletedAt)
}
