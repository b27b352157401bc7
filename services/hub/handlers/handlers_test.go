// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/niahq/excellence-hub/services/hub/middleware"
	"github.com/niahq/excellence-hub/services/llm"
	"github.com/niahq/excellence-hub/services/store"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// newTestStore opens an in-memory SQLite store that is torn down with
// the test.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedUser creates a user directly in the store.
func seedUser(t *testing.T, s *store.Store, email, role string) store.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, email, role)
	require.NoError(t, err)
	return u
}

// seedProcess creates a process owned by ownerID.
func seedProcess(t *testing.T, s *store.Store, ownerID, name string) store.Process {
	t.Helper()
	p, err := s.CreateProcess(context.Background(), ownerID, name, "support")
	require.NoError(t, err)
	return p
}

// asUser returns middleware that injects u as the authenticated
// identity, standing in for the session cookie flow.
func asUser(u store.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{User: u})
		c.Next()
	}
}

// testRouter builds a Gin router with the handler registered behind an
// injected identity.
func testRouter(u store.User, method, path string, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Handle(method, path, asUser(u), handler)
	return router
}

// performRequest executes an HTTP request against the test router.
func performRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// mustDate parses a YYYY-MM-DD date.
func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// decodeBody unmarshals the recorded JSON response into a map.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// MockLLMClient implements llm.Client for handler testing.
type MockLLMClient struct {
	GenerateResponse string
	GenerateErr      error
	StreamChunks     []string
	StreamErr        error
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return m.GenerateResponse, m.GenerateErr
}

func (m *MockLLMClient) GenerateStream(ctx context.Context, prompt string, params llm.GenerationParams, cb llm.StreamCallback) error {
	if m.StreamErr != nil {
		return m.StreamErr
	}
	for _, chunk := range m.StreamChunks {
		if err := cb(chunk); err != nil {
			return err
		}
	}
	return nil
}
